// Package odos adapts the Odos quote/assemble API to the gateway's
// OnChainAggregator capability set. Odos quotes are two-step: a
// /sor/quote call returns a pathId redeemable at /sor/assemble within a
// short window, after which it must be refreshed.
package odos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/httplog"
	"github.com/swaprouter/gateway/provider"
)

const baseURL = "https://api.odos.xyz"

// pathIDLifetime is kept conservative against Odos's documented 60s
// pathId redemption window.
const pathIDLifetime = 55 * time.Second

// Adapter is the Odos OnChainAggregator instance.
type Adapter struct {
	referralCode string
	chains       []int64
	httpClient   *http.Client

	mu         sync.RWMutex
	lastHealth domain.ProviderHealth
}

// New returns an Odos adapter configured for the given chains.
func New(referralCode string, chains []int64) *Adapter {
	return &Adapter{
		referralCode: referralCode,
		chains:       chains,
		httpClient:   httplog.NewHTTPClient("odos", 15*time.Second),
	}
}

func (a *Adapter) Name() string { return "odos" }

func (a *Adapter) Health() domain.ProviderHealth {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastHealth
}

func (a *Adapter) Config() provider.AdapterConfig {
	return provider.AdapterConfig{BaseURL: baseURL, Chains: a.chains}
}

// Probe checks the chains listing endpoint, which needs no token pair.
func (a *Adapter) Probe(ctx context.Context) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/info/chains", nil)
	if err != nil {
		return err
	}
	resp, err := a.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		a.setHealth(domain.HealthUnhealthy, latency, 1)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		a.setHealth(domain.HealthUnhealthy, latency, 1)
		return fmt.Errorf("odos: probe returned %d", resp.StatusCode)
	}
	status := domain.HealthHealthy
	if latency > 2*time.Second {
		status = domain.HealthDegraded
	}
	a.setHealth(status, latency, 0)
	return nil
}

func (a *Adapter) setHealth(status domain.HealthStatus, latency time.Duration, errorRate float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastHealth = domain.ProviderHealth{
		Name:      a.Name(),
		Status:    status,
		LatencyMs: latency.Milliseconds(),
		LastCheck: time.Now(),
		ErrorRate: errorRate,
	}
}

func (a *Adapter) SupportsChain(chainID int64) bool {
	for _, c := range a.chains {
		if c == chainID {
			return true
		}
	}
	return false
}

func (a *Adapter) GetSupportedChains() []int64 { return a.chains }

type sorQuoteResponse struct {
	PathID     string `json:"pathId"`
	OutAmounts []string `json:"outAmounts"`
	InAmounts  []string `json:"inAmounts"`
}

type assembleResponse struct {
	OutAmounts []string `json:"outAmounts"`
	Transaction struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
		Gas   int64  `json:"gas"`
	} `json:"transaction"`
}

func (a *Adapter) quotePath(ctx context.Context, req domain.SwapRequest) (sorQuoteResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"chainId":          req.ChainID,
		"inputTokens":      []map[string]string{{"tokenAddress": req.SellToken, "amount": req.SellAmount.String()}},
		"outputTokens":     []map[string]string{{"tokenAddress": req.BuyToken, "proportion": "1"}},
		"userAddr":         req.Taker,
		"slippageLimitPercent": req.SlippagePercentage,
		"referralCode":     a.referralCode,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/sor/quote/v2", bytes.NewReader(body))
	if err != nil {
		return sorQuoteResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return sorQuoteResponse{}, fmt.Errorf("odos: requesting quote: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return sorQuoteResponse{}, fmt.Errorf("odos: reading quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return sorQuoteResponse{}, fmt.Errorf("odos: quote API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var q sorQuoteResponse
	if err := json.Unmarshal(respBody, &q); err != nil {
		return sorQuoteResponse{}, fmt.Errorf("odos: parsing quote response: %w", err)
	}
	return q, nil
}

func (a *Adapter) assemble(ctx context.Context, pathID, userAddr string) (assembleResponse, error) {
	body, _ := json.Marshal(map[string]string{"pathId": pathID, "userAddr": userAddr})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/sor/assemble", bytes.NewReader(body))
	if err != nil {
		return assembleResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return assembleResponse{}, fmt.Errorf("odos: requesting assemble: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return assembleResponse{}, fmt.Errorf("odos: reading assemble response: %w", err)
	}
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusBadRequest {
		return assembleResponse{}, errQuoteExpired
	}
	if resp.StatusCode != http.StatusOK {
		return assembleResponse{}, fmt.Errorf("odos: assemble API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var a2 assembleResponse
	if err := json.Unmarshal(respBody, &a2); err != nil {
		return assembleResponse{}, fmt.Errorf("odos: parsing assemble response: %w", err)
	}
	return a2, nil
}

var errQuoteExpired = fmt.Errorf("odos: pathId expired, quote-expired")

// GetQuote runs the quote+assemble pair, auto-refreshing the pathId
// exactly once if assemble reports it has expired (HTTP 410 or 400).
// The pathId's age is not checked against pathIDLifetime here.
func (a *Adapter) GetQuote(ctx context.Context, req domain.SwapRequest, strict bool) (domain.SwapQuote, error) {
	sq, err := a.quotePath(ctx, req)
	if err != nil {
		return domain.SwapQuote{}, err
	}

	asm, err := a.assemble(ctx, sq.PathID, req.Taker)
	if err == errQuoteExpired {
		sq, err = a.quotePath(ctx, req)
		if err != nil {
			return domain.SwapQuote{}, err
		}
		asm, err = a.assemble(ctx, sq.PathID, req.Taker)
	}
	if err != nil {
		return domain.SwapQuote{}, err
	}

	var buyAmount domain.Amount
	if len(asm.OutAmounts) > 0 {
		buyAmount = domain.MustParseAmount(asm.OutAmounts[0])
	}

	return domain.SwapQuote{
		SellToken:  req.SellToken,
		BuyToken:   req.BuyToken,
		SellAmount: req.SellAmount,
		BuyAmount:  buyAmount,
		// Odos does not report a separate minimum; the slippage limit
		// passed into the quote already bounds it.
		MinBuyAmount: buyAmount.BasisPoints(9500),
		To:           asm.Transaction.To,
		Data:         asm.Transaction.Data,
		Value:        parseOrZero(asm.Transaction.Value),
		Gas:          domain.NewAmount(nil),
		Aggregator:   "odos",
	}, nil
}

func parseOrZero(s string) domain.Amount {
	if s == "" {
		return domain.NewAmount(nil)
	}
	a, err := domain.ParseAmount(s)
	if err != nil {
		return domain.NewAmount(nil)
	}
	return a
}

func (a *Adapter) BuildTx(ctx context.Context, req domain.SwapRequest) (provider.BuiltTx, error) {
	q, err := a.GetQuote(ctx, req, false)
	if err != nil {
		return provider.BuiltTx{}, err
	}
	return provider.BuiltTx{To: q.To, Data: q.Data, Value: q.Value}, nil
}
