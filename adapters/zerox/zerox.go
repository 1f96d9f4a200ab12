// Package zerox adapts the 0x Swap API (v2, allowance-holder and
// permit2 quote endpoints) to the gateway's OnChainAggregator and
// EvmSpenderProvider capability sets.
package zerox

import (
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

const baseURL = "https://api.0x.org"

// Adapter is the 0x OnChainAggregator + EvmSpenderProvider instance.
type Adapter struct {
	apiKey     string
	chains     []int64
	httpClient *http.Client

	mu         sync.RWMutex
	lastHealth domain.ProviderHealth
}

// New returns a 0x adapter configured for the given chains.
func New(apiKey string, chains []int64) *Adapter {
	return &Adapter{
		apiKey:     apiKey,
		chains:     chains,
		httpClient: httplog.NewHTTPClient("0x", 15*time.Second),
	}
}

func (a *Adapter) Name() string { return "0x" }

func (a *Adapter) Health() domain.ProviderHealth {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastHealth
}

func (a *Adapter) Config() provider.AdapterConfig {
	return provider.AdapterConfig{BaseURL: baseURL, Chains: a.chains}
}

// Probe is registered with the health monitor; it issues a cheap
// quote-price request against a canonical WETH->USDC pair on chain 1.
func (a *Adapter) Probe(ctx context.Context) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/swap/allowance-holder/price?chainId=1&sellToken=0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2&buyToken=0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48&sellAmount=1000000000000000000", nil)
	if err != nil {
		return err
	}
	a.addHeaders(req)
	resp, err := a.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		a.setHealth(domain.HealthUnhealthy, latency, 1)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		a.setHealth(domain.HealthUnhealthy, latency, 1)
		return fmt.Errorf("0x: probe returned %d", resp.StatusCode)
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

func (a *Adapter) addHeaders(req *http.Request) {
	req.Header.Set("0x-api-key", a.apiKey)
	req.Header.Set("0x-version", "v2")
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

// quoteResponse is the subset of the 0x v2 quote response the gateway
// consumes.
type quoteResponse struct {
	BuyAmount       string `json:"buyAmount"`
	MinBuyAmount    string `json:"minBuyAmount"`
	SellAmount      string `json:"sellAmount"`
	AllowanceTarget string `json:"allowanceTarget"`
	Transaction     struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
		Gas   string `json:"gas"`
	} `json:"transaction"`
	Permit2 *struct {
		Type  string                 `json:"type"`
		Hash  string                 `json:"hash"`
		Eip712 struct {
			Types       map[string]interface{} `json:"types"`
			Domain      map[string]interface{} `json:"domain"`
			PrimaryType string                 `json:"primaryType"`
			Message     map[string]interface{} `json:"message"`
		} `json:"eip712"`
	} `json:"permit2"`
}

func (a *Adapter) fetchQuote(ctx context.Context, endpoint string, req domain.SwapRequest) (quoteResponse, error) {
	url := fmt.Sprintf("%s/swap/%s/quote?chainId=%d&sellToken=%s&buyToken=%s&sellAmount=%s&taker=%s",
		baseURL, endpoint, req.ChainID, req.SellToken, req.BuyToken, req.SellAmount.String(), req.Taker)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return quoteResponse{}, err
	}
	a.addHeaders(httpReq)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return quoteResponse{}, fmt.Errorf("0x: requesting quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return quoteResponse{}, fmt.Errorf("0x: reading quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return quoteResponse{}, fmt.Errorf("0x: quote API returned %d: %s", resp.StatusCode, string(body))
	}

	var q quoteResponse
	if err := json.Unmarshal(body, &q); err != nil {
		return quoteResponse{}, fmt.Errorf("0x: parsing quote response: %w", err)
	}
	return q, nil
}

func toSwapQuote(req domain.SwapRequest, q quoteResponse, strategy domain.ApprovalStrategy) domain.SwapQuote {
	out := domain.SwapQuote{
		SellToken:        req.SellToken,
		BuyToken:         req.BuyToken,
		SellAmount:       domain.MustParseAmount(q.SellAmount),
		BuyAmount:        domain.MustParseAmount(q.BuyAmount),
		MinBuyAmount:     domain.MustParseAmount(q.MinBuyAmount),
		To:               q.Transaction.To,
		Data:             q.Transaction.Data,
		AllowanceTarget:  q.AllowanceTarget,
		Aggregator:       "0x",
		ApprovalStrategy: strategy,
	}
	if q.Transaction.Value != "" {
		out.Value = domain.MustParseAmount(q.Transaction.Value)
	}
	if q.Transaction.Gas != "" {
		out.Gas = domain.MustParseAmount(q.Transaction.Gas)
	}
	if q.Permit2 != nil {
		out.Permit2 = &domain.Permit2Data{
			Type: q.Permit2.Type,
			Hash: q.Permit2.Hash,
			EIP712: domain.Permit2EIP712{
				Types:       q.Permit2.Eip712.Types,
				Domain:      q.Permit2.Eip712.Domain,
				PrimaryType: q.Permit2.Eip712.PrimaryType,
				Message:     q.Permit2.Eip712.Message,
			},
		}
	}
	return out
}

// GetQuote prefers the Permit2 quote endpoint when the caller asked for
// a gas-less approval, otherwise the allowance-holder endpoint.
func (a *Adapter) GetQuote(ctx context.Context, req domain.SwapRequest, strict bool) (domain.SwapQuote, error) {
	if req.ApprovalStrategy == domain.StrategyPermit2 {
		return a.GetPermit2Quote(ctx, req)
	}
	return a.GetAllowanceHolderQuote(ctx, req)
}

func (a *Adapter) BuildTx(ctx context.Context, req domain.SwapRequest) (provider.BuiltTx, error) {
	q, err := a.GetQuote(ctx, req, false)
	if err != nil {
		return provider.BuiltTx{}, err
	}
	return provider.BuiltTx{
		To:       q.To,
		Data:     q.Data,
		Value:    q.Value,
		GasLimit: q.Gas,
	}, nil
}

// GetAllowanceHolderQuote implements EvmSpenderProvider.
func (a *Adapter) GetAllowanceHolderQuote(ctx context.Context, req domain.SwapRequest) (domain.SwapQuote, error) {
	q, err := a.fetchQuote(ctx, "allowance-holder", req)
	if err != nil {
		return domain.SwapQuote{}, err
	}
	return toSwapQuote(req, q, domain.StrategyAllowanceHolder), nil
}

// GetPermit2Quote implements EvmSpenderProvider.
func (a *Adapter) GetPermit2Quote(ctx context.Context, req domain.SwapRequest) (domain.SwapQuote, error) {
	q, err := a.fetchQuote(ctx, "permit2", req)
	if err != nil {
		return domain.SwapQuote{}, err
	}
	return toSwapQuote(req, q, domain.StrategyPermit2), nil
}

// GetPermit2Price implements EvmSpenderProvider: like GetPermit2Quote but
// only the indicative buyAmount is needed.
func (a *Adapter) GetPermit2Price(ctx context.Context, req domain.SwapRequest) (domain.Amount, error) {
	q, err := a.fetchQuote(ctx, "permit2", req)
	if err != nil {
		return domain.Amount{}, err
	}
	return domain.MustParseAmount(q.BuyAmount), nil
}

// GetSpenderAddress implements EvmSpenderProvider.
func (a *Adapter) GetSpenderAddress(ctx context.Context, chainID int64, strategy domain.ApprovalStrategy) (string, error) {
	if strategy == domain.StrategyPermit2 {
		return "0x000000000022D473030F116dDEE9F6B43aC78BA3", nil
	}
	q, err := a.GetAllowanceHolderQuote(ctx, domain.SwapRequest{
		ChainID:    chainID,
		SellToken:  domain.NativeTokenSentinels[0],
		BuyToken:   domain.NativeTokenSentinels[0],
		SellAmount: domain.MustParseAmount("1000000"),
		Taker:      "0x0000000000000000000000000000000000000001",
	})
	if err != nil {
		return "", err
	}
	if q.AllowanceTarget == "" {
		return "", fmt.Errorf("0x: quote did not name an allowanceTarget")
	}
	return q.AllowanceTarget, nil
}
