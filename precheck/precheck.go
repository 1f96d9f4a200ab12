// Package precheck runs the five independent probes the gateway performs
// before committing to an execution: parameter validity, liquidity,
// approval status, wallet balance, and provider health. None of the
// probes short-circuit the others — every one always runs and reports
// its own outcome.
package precheck

import (
	"context"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/swaprouter/gateway/approval"
	"github.com/swaprouter/gateway/cache"
	"github.com/swaprouter/gateway/classify"
	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/evmrpc"
	"github.com/swaprouter/gateway/health"
	"github.com/swaprouter/gateway/quote"
	"github.com/swaprouter/gateway/registry"
)

// Tristate is a probe's outcome: true, false, or "skipped" (neither)
// when the probe could not determine an answer.
type Tristate struct {
	Value   bool
	Skipped bool
}

func boolState(v bool) Tristate  { return Tristate{Value: v} }
func skippedState() Tristate     { return Tristate{Skipped: true} }

// Result is the composite output of Run.
type Result struct {
	ParametersValid     Tristate
	LiquidityAvailable  Tristate
	ApprovalRequired    Tristate
	SufficientBalance   Tristate
	ProviderHealthy     Tristate
	Warnings            []string
	Details             map[string]string
}

// Checker bundles everything Run needs to probe a single universal
// request.
type Checker struct {
	registry      *registry.Registry
	health        *health.Monitor
	orchestrator  *quote.Orchestrator
	quoteCache    *cache.QuoteCache
	approvals     *approval.Workflow
	spenders      *approval.SpenderResolver
	rpc           *evmrpc.Pool
}

// New returns a Checker wired to the gateway's shared components.
func New(reg *registry.Registry, mon *health.Monitor, orch *quote.Orchestrator, qc *cache.QuoteCache, appr *approval.Workflow, spenders *approval.SpenderResolver, rpc *evmrpc.Pool) *Checker {
	return &Checker{registry: reg, health: mon, orchestrator: orch, quoteCache: qc, approvals: appr, spenders: spenders, rpc: rpc}
}

// Run executes all five probes for req and the resolved owner address.
func (c *Checker) Run(ctx context.Context, req domain.UniversalSwapRequest, owner string) Result {
	res := Result{Details: map[string]string{}}

	res.ParametersValid = c.checkParameters(req)
	res.LiquidityAvailable = c.checkLiquidity(ctx, req, &res)
	res.ApprovalRequired = c.checkApproval(ctx, req, owner, &res)
	res.SufficientBalance = c.checkBalance(ctx, req, owner, &res)
	res.ProviderHealthy = c.checkProviderHealth(ctx, &res)

	return res
}

func (c *Checker) checkParameters(req domain.UniversalSwapRequest) Tristate {
	ok := classify.IsChainCompatible(req, c.registry.IsEmpty(), c.orchestrator, c.quoteCache)
	return boolState(ok)
}

func (c *Checker) checkLiquidity(ctx context.Context, req domain.UniversalSwapRequest, res *Result) Tristate {
	if req.Source.Ecosystem != domain.EcosystemEVM {
		return boolState(true)
	}

	legacy := req.ToLegacy()
	results, err := c.orchestrator.GetMultipleQuotes(ctx, legacy)
	if err != nil {
		res.Warnings = append(res.Warnings, "liquidity probe: "+err.Error())
		return boolState(false)
	}

	liquid := false
	for _, r := range results {
		if r.Err == nil && !r.Quote.BuyAmount.IsZero() {
			liquid = true
			break
		}
	}
	if liquid {
		c.quoteCache.Record(legacy.ChainID, legacy.SellToken, legacy.BuyToken)
	}
	return boolState(liquid)
}

func (c *Checker) checkApproval(ctx context.Context, req domain.UniversalSwapRequest, owner string, res *Result) Tristate {
	if req.Source.Ecosystem != domain.EcosystemEVM {
		return boolState(false)
	}
	if isNativeAddr(req.SellToken) {
		return boolState(false)
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = domain.StrategyAllowanceHolder
	}

	spender, err := c.spenders.Resolve(ctx, req.Source.ChainID, strategy)
	if err != nil {
		res.Warnings = append(res.Warnings, "approval probe: could not resolve spender: "+err.Error())
		return skippedState()
	}

	needed, err := c.approvals.IsApprovalNeeded(ctx, req.Source.ChainID, req.SellToken, owner, spender, req.SellAmount)
	if err != nil {
		res.Warnings = append(res.Warnings, "approval probe: "+err.Error())
	}
	return boolState(needed)
}

var erc20BalanceOfABI abi.ABI

func init() {
	var err error
	erc20BalanceOfABI, err = abi.JSON(strings.NewReader(`[{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`))
	if err != nil {
		panic(err)
	}
}

func (c *Checker) checkBalance(ctx context.Context, req domain.UniversalSwapRequest, owner string, res *Result) Tristate {
	if req.Source.Ecosystem != domain.EcosystemEVM {
		return boolState(true)
	}
	client, ok := c.rpc.Client(req.Source.ChainID)
	if !ok {
		res.Warnings = append(res.Warnings, "balance probe: no RPC client for chain")
		return skippedState()
	}

	bal, err := tokenBalance(ctx, client, req.SellToken, owner)
	if err != nil {
		res.Warnings = append(res.Warnings, "balance probe: "+err.Error())
		return skippedState()
	}
	return boolState(bal.Cmp(req.SellAmount.Int()) >= 0)
}

func tokenBalance(ctx context.Context, client *ethclient.Client, token, owner string) (*big.Int, error) {
	ownerAddr := common.HexToAddress(owner)
	if isNativeAddr(token) {
		return client.BalanceAt(ctx, ownerAddr, nil)
	}

	data, err := erc20BalanceOfABI.Pack("balanceOf", ownerAddr)
	if err != nil {
		return nil, err
	}
	tokenAddr := common.HexToAddress(token)
	output, err := client.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(output) < 32 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(output), nil
}

func (c *Checker) checkProviderHealth(ctx context.Context, res *Result) Tristate {
	adapters := c.registry.EvmAggregators()
	if len(adapters) == 0 {
		return boolState(true)
	}
	for _, a := range adapters {
		h := c.health.Snapshot(ctx, a.Name())
		if h.Status != domain.HealthHealthy {
			res.Warnings = append(res.Warnings, "provider "+a.Name()+" is not healthy")
			return boolState(false)
		}
	}
	return boolState(true)
}

func isNativeAddr(addr string) bool {
	for _, sentinel := range domain.NativeTokenSentinels {
		if strings.EqualFold(addr, sentinel) {
			return true
		}
	}
	return false
}
