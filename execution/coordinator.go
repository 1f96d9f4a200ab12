// Package execution is the execution coordinator (component I): for an
// EVM swap backed by a provided signing secret, it runs validate →
// pre-flight → quote → approval → submit → confirm → parse-receipt,
// recording the run in the audit log when it starts and again at its
// final outcome.
package execution

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/swaprouter/gateway/approval"
	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/evmrpc"
	"github.com/swaprouter/gateway/permit2"
	"github.com/swaprouter/gateway/precheck"
	"github.com/swaprouter/gateway/quote"
	"github.com/swaprouter/gateway/signer"
)

const (
	maxAttempts         = 3
	confirmationCeiling = 5 * time.Minute
)

var erc20ABI abi.ABI
var transferEventSig = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
	]`))
	if err != nil {
		panic(err)
	}
}

// Recorder persists state transitions; store.Store satisfies it.
type Recorder interface {
	CreateExecutionRecord(ctx context.Context, requestHash string, chainID int64, sellToken, buyToken string) (int64, error)
	UpdateExecutionStatus(ctx context.Context, id int64, status domain.ExecutionStatus, provider, quoteAmount, actualAmount, txHash, approvalTxHash, execErr string) error
}

// Coordinator wires together every component an execution needs.
type Coordinator struct {
	orchestrator *quote.Orchestrator
	precheck     *precheck.Checker
	approvals    *approval.Workflow
	spenders     *approval.SpenderResolver
	rpc          *evmrpc.Pool
	recorder     Recorder
}

// New returns a Coordinator. recorder may be nil to run without audit
// persistence (e.g. in tests).
func New(orch *quote.Orchestrator, pc *precheck.Checker, appr *approval.Workflow, spenders *approval.SpenderResolver, rpc *evmrpc.Pool, recorder Recorder) *Coordinator {
	return &Coordinator{orchestrator: orch, precheck: pc, approvals: appr, spenders: spenders, rpc: rpc, recorder: recorder}
}

// Result is what the caller sees after Execute returns.
type Result struct {
	Status         domain.ExecutionStatus
	TxHash         string
	ApprovalTxHash string
	ActualAmount   domain.Amount
	Provider       string
	Errors         []string
}

// Execute runs the full state machine for req, signing with secret.
func (c *Coordinator) Execute(ctx context.Context, req domain.UniversalSwapRequest, secret signer.Secret) (Result, error) {
	if err := validate(req); err != nil {
		return Result{Status: domain.StatusFailed, Errors: []string{err.Error()}}, err
	}

	key, err := signer.Resolve(secret)
	if err != nil {
		return Result{Status: domain.StatusFailed, Errors: []string{"invalid signing secret"}}, err
	}
	owner := signer.AddressOf(key).Hex()

	var recordID int64
	if c.recorder != nil {
		recordID, _ = c.recorder.CreateExecutionRecord(ctx, requestHash(req), req.Source.ChainID, req.SellToken, req.BuyToken)
	}
	fail := func(stage string, err error) (Result, error) {
		category := translateError(err)
		if c.recorder != nil {
			c.recorder.UpdateExecutionStatus(ctx, recordID, domain.StatusFailed, "", "", "", "", "", category)
		}
		return Result{Status: domain.StatusFailed, Errors: []string{fmt.Sprintf("%s: %s", stage, category)}}, fmt.Errorf("execution: %s: %w", stage, err)
	}

	pre := c.precheck.Run(ctx, req, owner)
	if pre.ParametersValid.Skipped || !pre.ParametersValid.Value {
		return fail("preflight", fmt.Errorf("parameters not valid for this chain/ecosystem pair"))
	}

	legacy := req.ToLegacy()
	q, provName, err := c.acquireQuote(ctx, legacy)
	if err != nil {
		return fail("quote", err)
	}

	var approvalTxHash string
	if !isNative(req.SellToken) {
		approvalTxHash, q, err = c.handleApproval(ctx, req, owner, key, q)
		if err != nil {
			return fail("approval", err)
		}
	}

	txHash, err := c.submitSwap(ctx, req.Source.ChainID, owner, key, q)
	if err != nil {
		return fail("submit", err)
	}

	receipt, err := c.waitConfirmed(ctx, req.Source.ChainID, txHash)
	if err != nil {
		return fail("confirmation", err)
	}

	actual := parseReceivedAmount(receipt, req.BuyToken, req.EffectiveRecipient(), q.BuyAmount)

	if c.recorder != nil {
		c.recorder.UpdateExecutionStatus(ctx, recordID, domain.StatusSuccess, provName, q.BuyAmount.String(), actual.String(), txHash, approvalTxHash, "")
	}

	return Result{
		Status:         domain.StatusSuccess,
		TxHash:         txHash,
		ApprovalTxHash: approvalTxHash,
		ActualAmount:   actual,
		Provider:       provName,
	}, nil
}

func validate(req domain.UniversalSwapRequest) error {
	if req.SellToken == req.BuyToken {
		return fmt.Errorf("sellToken and buyToken must differ")
	}
	if req.SellAmount.IsZero() {
		return fmt.Errorf("sellAmount must be positive")
	}
	if req.Taker == "" {
		return fmt.Errorf("taker is required")
	}
	return nil
}

// acquireQuote retries up to maxAttempts times with exponential backoff
// (1s, 2s, ...).
func (c *Coordinator) acquireQuote(ctx context.Context, req domain.SwapRequest) (domain.SwapQuote, string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return domain.SwapQuote{}, "", ctx.Err()
			}
		}
		q, err := c.orchestrator.GetQuote(ctx, req, "", false)
		if err == nil {
			return q, q.Aggregator, nil
		}
		lastErr = err
		log.Printf("execution: quote attempt %d/%d failed: %v", attempt+1, maxAttempts, err)
	}
	return domain.SwapQuote{}, "", fmt.Errorf("quote acquisition exhausted %d attempts: %w", maxAttempts, lastErr)
}

// handleApproval returns the approval tx hash (empty for Permit2, which
// needs no on-chain tx) and the quote, possibly with its data spliced
// with a Permit2 signature.
func (c *Coordinator) handleApproval(ctx context.Context, req domain.UniversalSwapRequest, owner string, key *ecdsa.PrivateKey, q domain.SwapQuote) (string, domain.SwapQuote, error) {
	strategy := q.ApprovalStrategy
	if strategy == "" {
		strategy = domain.StrategyAllowanceHolder
	}

	if strategy == domain.StrategyPermit2 && permit2.HasPermit2(q) {
		pq, err := permit2.ProcessPermit2Quote(q, key)
		if err != nil {
			return "", q, err
		}
		return "", permit2.CreateSignedQuote(q, pq), nil
	}

	spender, err := c.spenders.Resolve(ctx, req.Source.ChainID, domain.StrategyAllowanceHolder)
	if err != nil {
		return "", q, err
	}
	needed, err := c.approvals.IsApprovalNeeded(ctx, req.Source.ChainID, req.SellToken, owner, spender, req.SellAmount)
	if err != nil {
		log.Printf("execution: approval check error (proceeding conservatively): %v", err)
	}
	if !needed {
		return "", q, nil
	}

	client, ok := c.rpc.Client(req.Source.ChainID)
	if !ok {
		return "", q, fmt.Errorf("no RPC client for chain %d", req.Source.ChainID)
	}
	txHash, err := c.sendApproveTx(ctx, client, req.Source.ChainID, key, common.HexToAddress(req.SellToken), common.HexToAddress(spender), req.SellAmount.Int())
	if err != nil {
		return "", q, err
	}
	if _, err := c.waitConfirmed(ctx, req.Source.ChainID, txHash); err != nil {
		return txHash, q, fmt.Errorf("approval tx not confirmed: %w", err)
	}
	return txHash, q, nil
}

func (c *Coordinator) sendApproveTx(ctx context.Context, client *ethclient.Client, chainID int64, key *ecdsa.PrivateKey, token, spender common.Address, amount *big.Int) (string, error) {
	from := signer.AddressOf(key)
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return "", err
	}
	return c.sendTx(ctx, client, chainID, key, from, token, big.NewInt(0), data, 100000)
}

func (c *Coordinator) submitSwap(ctx context.Context, chainID int64, owner string, key *ecdsa.PrivateKey, q domain.SwapQuote) (string, error) {
	client, ok := c.rpc.Client(chainID)
	if !ok {
		return "", fmt.Errorf("no RPC client for chain %d", chainID)
	}

	var txHash string
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		dataBytes, err := hexDecode(q.Data)
		if err != nil {
			return "", err
		}
		txHash, lastErr = c.sendTx(ctx, client, chainID, key, signer.AddressOf(key), common.HexToAddress(q.To), q.Value.Int(), dataBytes, gasLimitOf(q))
		if lastErr == nil {
			return txHash, nil
		}
		log.Printf("execution: swap submit attempt %d/%d failed: %v", attempt+1, maxAttempts, lastErr)
	}
	_ = owner
	return "", fmt.Errorf("swap submission exhausted %d attempts: %w", maxAttempts, lastErr)
}

func gasLimitOf(q domain.SwapQuote) uint64 {
	if !q.Gas.IsZero() {
		return q.Gas.Int().Uint64()
	}
	return 300000
}

func (c *Coordinator) sendTx(ctx context.Context, client *ethclient.Client, chainID int64, key *ecdsa.PrivateKey, from, to common.Address, value *big.Int, data []byte, gasLimit uint64) (string, error) {
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(chainID)), key)
	if err != nil {
		return "", fmt.Errorf("signing tx: %w", err)
	}
	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("sending tx: %w", err)
	}
	return signedTx.Hash().Hex(), nil
}

func (c *Coordinator) waitConfirmed(ctx context.Context, chainID int64, txHash string) (*types.Receipt, error) {
	client, ok := c.rpc.Client(chainID)
	if !ok {
		return nil, fmt.Errorf("no RPC client for chain %d", chainID)
	}
	waitCtx, cancel := context.WithTimeout(ctx, confirmationCeiling)
	defer cancel()

	tx, _, err := client.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("fetching tx %s: %w", txHash, err)
	}
	receipt, err := bind.WaitMined(waitCtx, client, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", txHash)
	}
	return receipt, nil
}

// parseReceivedAmount scans receipt logs for an ERC-20 Transfer event on
// buyToken targeting recipient, returning the transferred amount. Falls
// back to the quote's buyAmount when no matching event is found (native
// token transfers emit no log at all).
func parseReceivedAmount(receipt *types.Receipt, buyToken, recipient string, fallback domain.Amount) domain.Amount {
	if receipt == nil {
		return fallback
	}
	wantToken := strings.ToLower(buyToken)
	wantRecipient := common.HexToAddress(recipient)

	for _, lg := range receipt.Logs {
		if strings.ToLower(lg.Address.Hex()) != wantToken {
			continue
		}
		if len(lg.Topics) != 3 || lg.Topics[0] != transferEventSig {
			continue
		}
		to := common.BytesToAddress(lg.Topics[2].Bytes())
		if to != wantRecipient {
			continue
		}
		if len(lg.Data) < 32 {
			continue
		}
		return domain.NewAmount(new(big.Int).SetBytes(lg.Data[:32]))
	}
	return fallback
}

func isNative(token string) bool {
	for _, s := range domain.NativeTokenSentinels {
		if strings.EqualFold(token, s) {
			return true
		}
	}
	return false
}

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding calldata: %w", err)
	}
	return b, nil
}

func requestHash(req domain.UniversalSwapRequest) string {
	h := crypto.Keccak256Hash([]byte(fmt.Sprintf("%d:%d:%s:%s:%s:%s",
		req.Source.ChainID, req.Destination.ChainID, req.SellToken, req.BuyToken, req.SellAmount.String(), req.Taker)))
	return h.Hex()
}
