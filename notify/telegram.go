// Package notify sends operator alerts on execution failure and
// sustained provider health degradation, the way tracker.Tracker
// notified end users of topup outcomes, retargeted at a single admin
// chat since the gateway has no per-user chat to address.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/swaprouter/gateway/domain"
)

// Notifier posts formatted alerts to one Telegram chat. A nil *Notifier,
// or one built by New with an empty token, makes every method a silent
// no-op so the gateway runs fine without alerting configured.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
}

// New returns a Notifier. If token is empty, notifications are
// disabled and every method becomes a no-op.
func New(token string, chatID int64) (*Notifier, error) {
	if token == "" {
		return &Notifier{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: creating bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

func (n *Notifier) enabled() bool { return n != nil && n.bot != nil && n.chatID != 0 }

func (n *Notifier) send(text string) {
	if !n.enabled() {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("notify: error sending alert: %v", err)
	}
}

// ExecutionFailed reports a failed execution with its provider and
// stage/category error string.
func (n *Notifier) ExecutionFailed(provider, sellToken, buyToken, errCategory string) {
	n.send(fmt.Sprintf("*Execution Failed*\nProvider: `%s`\n%s → %s\nReason: `%s`",
		provider, sellToken, buyToken, errCategory))
}

// ExecutionSucceeded reports a successful execution's transaction hash.
func (n *Notifier) ExecutionSucceeded(provider, txHash string) {
	n.send(fmt.Sprintf("*Execution Succeeded*\nProvider: `%s`\nTx: `%s`", provider, txHash))
}

// ProviderDegraded alerts when a provider has been unhealthy for long
// enough that the caller decided it's worth paging about, rather than
// on every individual failed probe.
func (n *Notifier) ProviderDegraded(name string, status domain.HealthStatus, errorRate float64) {
	n.send(fmt.Sprintf("*Provider Degraded*\n`%s` is now `%s` (error rate %.0f%%)", name, status, errorRate*100))
}
