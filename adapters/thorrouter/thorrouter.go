// Package thorrouter adapts THORChain's THORNode quote/inbound-address
// API and its EVM router contract to the gateway's NativeRouter
// capability set: swaps that originate on an EVM chain (paying USDC)
// and settle on a native L1 the EVM world has no token standard for.
package thorrouter

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/provider"
)

const thornodeBaseURL = "https://thornode.ninerealms.com"

// Registry-assigned destination identifiers; THORChain's own native
// assets have no EVM chain ID of their own.
const (
	DestinationBTC  int64 = 10000
	DestinationRUNE int64 = 10001
)

// usdcContracts is the EVM-chain-ID-keyed USDC contract used as the
// swap's source token on each supported origin chain.
var usdcContracts = map[int64]common.Address{
	43114: common.HexToAddress("0xB97EF9Ef8734C71904D8002F8B6BC66Dd9c48a6E"),
	8453:  common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
}

var thorchainAssetNotation = map[int64]string{
	43114: "AVAX.USDC-0XB97EF9EF8734C71904D8002F8B6BC66DD9C48A6E",
	8453:  "BASE.USDC-0X833589FCD6EDB6E08F4C7C32D4F71B54BDA02913",
}

const erc20ApproveABI = `[{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`
const routerDepositABI = `[{"inputs":[{"name":"vault","type":"address"},{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"memo","type":"string"},{"name":"expiry","type":"uint256"}],"name":"depositWithExpiry","outputs":[],"stateMutability":"payable","type":"function"}]`

// Adapter is the THORChain NativeRouter instance.
type Adapter struct {
	rpcClients map[int64]*ethclient.Client
	httpClient *http.Client

	mu         sync.RWMutex
	lastHealth domain.ProviderHealth
}

// New returns a THORChain adapter dialed to the given origin-chain RPC
// clients.
func New(rpcClients map[int64]*ethclient.Client) *Adapter {
	return &Adapter{rpcClients: rpcClients, httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (a *Adapter) Name() string { return "thorchain" }

func (a *Adapter) Health() domain.ProviderHealth {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastHealth
}

func (a *Adapter) Config() provider.AdapterConfig {
	chains := make([]int64, 0, len(a.rpcClients))
	for c := range a.rpcClients {
		chains = append(chains, c)
	}
	return provider.AdapterConfig{BaseURL: thornodeBaseURL, Chains: chains}
}

// Probe fetches the inbound-address set, which THORNode always serves
// cheaply.
func (a *Adapter) Probe(ctx context.Context) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thornodeBaseURL+"/thorchain/inbound_addresses", nil)
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
		return fmt.Errorf("thorchain: probe returned %d", resp.StatusCode)
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

func (a *Adapter) GetSupportedDestinations() []int64 {
	return []int64{DestinationBTC, DestinationRUNE}
}

type quoteResponse struct {
	InboundAddress    string `json:"inbound_address"`
	Router            string `json:"router"`
	Expiry            int64  `json:"expiry"`
	Memo              string `json:"memo"`
	ExpectedAmountOut string `json:"expected_amount_out"`
}

func destinationAsset(destination int64) (string, error) {
	switch destination {
	case DestinationBTC:
		return "BTC.BTC", nil
	case DestinationRUNE:
		return "THOR.RUNE", nil
	default:
		return "", fmt.Errorf("thorchain: unsupported destination %d", destination)
	}
}

// QuoteBTC fetches a THORNode swap quote from req's EVM source chain's
// USDC to the requested native destination asset (named QuoteBTC for
// historical reasons; it serves every native destination this adapter
// knows, not only Bitcoin).
func (a *Adapter) QuoteBTC(ctx context.Context, req domain.UniversalSwapRequest) (domain.RouteQuote, error) {
	fromAsset, ok := thorchainAssetNotation[req.Source.ChainID]
	if !ok {
		return domain.RouteQuote{}, fmt.Errorf("thorchain: unsupported source chain %d", req.Source.ChainID)
	}
	toAsset, err := destinationAsset(req.Destination.ChainID)
	if err != nil {
		return domain.RouteQuote{}, err
	}

	params := url.Values{}
	params.Set("from_asset", fromAsset)
	params.Set("to_asset", toAsset)
	params.Set("amount", req.SellAmount.String())
	params.Set("destination", req.EffectiveRecipient())
	params.Set("streaming_interval", "1")
	params.Set("streaming_quantity", "0")

	reqURL := fmt.Sprintf("%s/thorchain/quote/swap?%s", thornodeBaseURL, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.RouteQuote{}, err
	}
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return domain.RouteQuote{}, fmt.Errorf("thorchain: requesting quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RouteQuote{}, fmt.Errorf("thorchain: reading quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.RouteQuote{}, fmt.Errorf("thorchain: quote API returned %d: %s", resp.StatusCode, string(body))
	}

	var q quoteResponse
	if err := json.Unmarshal(body, &q); err != nil {
		return domain.RouteQuote{}, fmt.Errorf("thorchain: parsing quote response: %w", err)
	}

	outAmount, err := domain.ParseAmount(q.ExpectedAmountOut)
	if err != nil {
		outAmount = domain.NewAmount(nil)
	}

	routeID := fmt.Sprintf("%s|%s|%s|%d", q.InboundAddress, q.Router, q.Memo, q.Expiry)

	return domain.RouteQuote{
		Provider:          a.Name(),
		Steps:             []domain.Step{{Kind: "native", ChainID: req.Source.ChainID, Details: "deposit to router with memo", Protocol: "thorchain"}},
		TotalEstimatedOut: outAmount,
		EtaSeconds:        600,
		RouteID:           routeID,
		Confidence:        0.9,
	}, nil
}

// DepositAndTrack approves the router and submits the deposit
// transaction for a previously quoted route, waiting for both to be
// mined, then returns a pending status; settlement on the destination
// chain is not tracked by this adapter.
func (a *Adapter) DepositAndTrack(ctx context.Context, tx string, memo string) (domain.ExecutionStatus, error) {
	// tx is expected to carry "chainID|routeID|privateKeyHex|amount",
	// where routeID is itself the four pipe-separated fields
	// "inbound|router|memo|expiry", so the descriptor splits into seven.
	// The caller assembles this; the adapter never retains a raw signing
	// secret longer than this call.
	parts := strings.Split(tx, "|")
	if len(parts) != 7 {
		return domain.StatusFailed, fmt.Errorf("thorchain: malformed deposit descriptor")
	}
	var chainID int64
	if _, err := fmt.Sscanf(parts[0], "%d", &chainID); err != nil {
		return domain.StatusFailed, fmt.Errorf("thorchain: bad chain id: %w", err)
	}
	inboundAddr, router, routedMemo, expiryStr := parts[1], parts[2], parts[3], parts[4]
	if memo != "" {
		routedMemo = memo
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(parts[5], "0x"))
	if err != nil {
		return domain.StatusFailed, fmt.Errorf("thorchain: invalid signing key: %w", err)
	}
	amount, ok := new(big.Int).SetString(parts[6], 10)
	if !ok {
		return domain.StatusFailed, fmt.Errorf("thorchain: invalid amount")
	}

	rpc, ok := a.rpcClients[chainID]
	if !ok {
		return domain.StatusFailed, fmt.Errorf("thorchain: no RPC client for chain %d", chainID)
	}
	usdc, ok := usdcContracts[chainID]
	if !ok {
		return domain.StatusFailed, fmt.Errorf("thorchain: no USDC contract for chain %d", chainID)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	if _, err := a.approveERC20(ctx, rpc, chainID, key, from, usdc, common.HexToAddress(router), amount); err != nil {
		return domain.StatusFailed, fmt.Errorf("thorchain: approval: %w", err)
	}

	var expiry int64
	fmt.Sscanf(expiryStr, "%d", &expiry)
	minExpiry := time.Now().Add(60 * time.Minute).Unix()
	if expiry < minExpiry {
		expiry = minExpiry
	}

	if _, err := a.depositWithExpiry(ctx, rpc, chainID, key, from, common.HexToAddress(router), common.HexToAddress(inboundAddr), usdc, amount, routedMemo, expiry); err != nil {
		return domain.StatusFailed, fmt.Errorf("thorchain: deposit: %w", err)
	}

	return domain.StatusPending, nil
}

func (a *Adapter) approveERC20(ctx context.Context, rpc *ethclient.Client, chainID int64, key *ecdsa.PrivateKey, from, token, spender common.Address, amount *big.Int) (string, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ApproveABI))
	if err != nil {
		return "", err
	}
	data, err := parsed.Pack("approve", spender, amount)
	if err != nil {
		return "", err
	}
	tx, err := a.sendTx(ctx, rpc, chainID, key, from, token, big.NewInt(0), data, 100000)
	if err != nil {
		return "", err
	}
	receipt, err := bind.WaitMined(ctx, rpc, tx)
	if err != nil {
		return "", fmt.Errorf("waiting for approval confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("approval transaction reverted")
	}
	return tx.Hash().Hex(), nil
}

func (a *Adapter) depositWithExpiry(ctx context.Context, rpc *ethclient.Client, chainID int64, key *ecdsa.PrivateKey, from, router, vault, asset common.Address, amount *big.Int, memo string, expiry int64) (string, error) {
	parsed, err := abi.JSON(strings.NewReader(routerDepositABI))
	if err != nil {
		return "", err
	}
	data, err := parsed.Pack("depositWithExpiry", vault, asset, amount, memo, big.NewInt(expiry))
	if err != nil {
		return "", err
	}
	tx, err := a.sendTx(ctx, rpc, chainID, key, from, router, big.NewInt(0), data, 300000)
	if err != nil {
		return "", err
	}
	receipt, err := bind.WaitMined(ctx, rpc, tx)
	if err != nil {
		return "", fmt.Errorf("waiting for deposit confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("deposit transaction reverted")
	}
	return tx.Hash().Hex(), nil
}

func (a *Adapter) sendTx(ctx context.Context, rpc *ethclient.Client, chainID int64, key *ecdsa.PrivateKey, from, to common.Address, value *big.Int, data []byte, gasLimit uint64) (*types.Transaction, error) {
	nonce, err := rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}
	gasPrice, err := rpc.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}
	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(chainID)), key)
	if err != nil {
		return nil, fmt.Errorf("signing tx: %w", err)
	}
	if err := rpc.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("sending tx: %w", err)
	}
	return signedTx, nil
}
