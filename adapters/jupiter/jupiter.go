// Package jupiter adapts the Jupiter aggregator API to the gateway's
// SolanaRouter capability set. Quoting and unsigned-transaction
// assembly are fully implemented; actual signing and RPC submission
// are left stubbed, matching the rest of this gateway's stance on
// non-EVM execution.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/httplog"
	"github.com/swaprouter/gateway/provider"
)

const quoteBaseURL = "https://quote-api.jup.ag/v6"

// SolanaMainnetChainID is the registry-assigned identifier this
// gateway uses for Solana mainnet-beta; Solana has no chain ID of its
// own in the EVM sense.
const SolanaMainnetChainID int64 = 20000

// Adapter is the Jupiter SolanaRouter instance.
type Adapter struct {
	httpClient *http.Client
	rpcClient  *solanaRPC

	mu         sync.RWMutex
	lastHealth domain.ProviderHealth
}

// New returns a Jupiter adapter reading quotes over HTTP and
// (optionally) an RPC endpoint for blockhash lookups when assembling
// unsigned transactions.
func New(rpcURL string) *Adapter {
	return &Adapter{
		httpClient: httplog.NewHTTPClient("jupiter", 15*time.Second),
		rpcClient:  newSolanaRPC(rpcURL),
	}
}

func (a *Adapter) Name() string { return "jupiter" }

func (a *Adapter) Health() domain.ProviderHealth {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastHealth
}

func (a *Adapter) Config() provider.AdapterConfig {
	return provider.AdapterConfig{BaseURL: quoteBaseURL, Chains: []int64{SolanaMainnetChainID}}
}

// Probe quotes a tiny, always-liquid SOL->USDC swap as a liveness
// check.
func (a *Adapter) Probe(ctx context.Context) error {
	start := time.Now()
	params := url.Values{}
	params.Set("inputMint", "So11111111111111111111111111111111111111112")
	params.Set("outputMint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	params.Set("amount", "1000000")
	params.Set("slippageBps", "50")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteBaseURL+"/quote?"+params.Encode(), nil)
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
		return fmt.Errorf("jupiter: probe returned %d", resp.StatusCode)
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
	a.lastHealth = domain.ProviderHealth{Name: a.Name(), Status: status, LatencyMs: latency.Milliseconds(), LastCheck: time.Now(), ErrorRate: errorRate}
}

// SupportsTokenPair reports whether Jupiter could plausibly quote the
// pair; Jupiter itself is the source of truth, so this always returns
// true and lets GetQuote fail for genuinely untradeable pairs.
func (a *Adapter) SupportsTokenPair(tokenA, tokenB string) bool { return true }

type quoteResponse struct {
	InAmount             string `json:"inAmount"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	PriceImpactPct       string `json:"priceImpactPct"`
	// routePlan is opaque; it is handed back to /swap verbatim via the
	// full quote payload stored on the RouteQuote's RouteID.
	raw json.RawMessage
}

func (a *Adapter) fetchQuote(ctx context.Context, req domain.UniversalSwapRequest) (quoteResponse, json.RawMessage, error) {
	slippageBps := int(req.Slippage * 100)
	if slippageBps <= 0 {
		slippageBps = 50
	}

	params := url.Values{}
	params.Set("inputMint", req.SellToken)
	params.Set("outputMint", req.BuyToken)
	params.Set("amount", req.SellAmount.String())
	params.Set("slippageBps", strconv.Itoa(slippageBps))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteBaseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return quoteResponse{}, nil, err
	}
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return quoteResponse{}, nil, fmt.Errorf("jupiter: requesting quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return quoteResponse{}, nil, fmt.Errorf("jupiter: reading quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return quoteResponse{}, nil, fmt.Errorf("jupiter: quote API returned %d: %s", resp.StatusCode, string(body))
	}

	var q quoteResponse
	if err := json.Unmarshal(body, &q); err != nil {
		return quoteResponse{}, nil, fmt.Errorf("jupiter: parsing quote response: %w", err)
	}
	return q, json.RawMessage(body), nil
}

// Quote returns a single-step Solana route. RouteID carries the raw
// Jupiter quote response so BuildAndSign can replay it into /swap
// without a second round trip.
func (a *Adapter) Quote(ctx context.Context, req domain.UniversalSwapRequest) (domain.RouteQuote, error) {
	q, raw, err := a.fetchQuote(ctx, req)
	if err != nil {
		return domain.RouteQuote{}, err
	}

	outAmount, err := domain.ParseAmount(q.OutAmount)
	if err != nil {
		outAmount = domain.NewAmount(nil)
	}

	return domain.RouteQuote{
		Provider:          a.Name(),
		Steps:             []domain.Step{{Kind: "swap", ChainID: SolanaMainnetChainID, Details: "jupiter aggregated route", Protocol: "jupiter"}},
		TotalEstimatedOut: outAmount,
		EtaSeconds:        20,
		RouteID:           string(raw),
		PriceImpact:       q.PriceImpactPct,
		Confidence:        0.85,
	}, nil
}

// BuildAndSign assembles the unsigned Jupiter swap transaction for a
// previously fetched quote and returns it base64-encoded. Actual
// signing is not performed here: keypair must be the fee payer's
// base58 public key as a string (anything else is an error), RawTx
// always carries an unsigned transaction the caller must sign and
// submit through its own Solana keypair handling, and TxID is left
// empty.
func (a *Adapter) BuildAndSign(ctx context.Context, quote domain.RouteQuote, keypair interface{}) (provider.BuiltSolanaTx, error) {
	userPublicKey, _ := keypair.(string)
	if userPublicKey == "" {
		return provider.BuiltSolanaTx{}, fmt.Errorf("jupiter: BuildAndSign requires a base58 fee-payer public key; signing is not performed by this adapter")
	}

	body, err := json.Marshal(map[string]interface{}{
		"quoteResponse":     json.RawMessage(quote.RouteID),
		"userPublicKey":     userPublicKey,
		"wrapAndUnwrapSol":  true,
	})
	if err != nil {
		return provider.BuiltSolanaTx{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, quoteBaseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return provider.BuiltSolanaTx{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return provider.BuiltSolanaTx{}, fmt.Errorf("jupiter: requesting swap transaction: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.BuiltSolanaTx{}, fmt.Errorf("jupiter: reading swap response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return provider.BuiltSolanaTx{}, fmt.Errorf("jupiter: swap API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var swapResp struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(respBody, &swapResp); err != nil {
		return provider.BuiltSolanaTx{}, fmt.Errorf("jupiter: parsing swap response: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(swapResp.SwapTransaction)
	if err != nil {
		return provider.BuiltSolanaTx{}, fmt.Errorf("jupiter: decoding swap transaction: %w", err)
	}
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return provider.BuiltSolanaTx{}, fmt.Errorf("jupiter: parsing versioned transaction: %w", err)
	}

	instructionSummaries := make([]string, 0, len(tx.Message.Instructions))
	for i := range tx.Message.Instructions {
		instructionSummaries = append(instructionSummaries, fmt.Sprintf("instruction[%d]", i))
	}

	return provider.BuiltSolanaTx{
		RawTx:        swapResp.SwapTransaction,
		Instructions: instructionSummaries,
	}, nil
}
