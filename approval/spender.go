package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/swaprouter/gateway/cache"
	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/permit2"
)

// spenderCacheTTL is how long a dynamically-probed allowance-holder
// spender address is trusted before it's re-probed.
const spenderCacheTTL = 24 * time.Hour

// hardforkFallbackSpenders maps an EVM hardfork family to its
// known allowance-holder contract address, used only when the dynamic
// probe quote fails. Chains outside this table have no fallback.
var hardforkFallbackSpenders = map[string]string{
	"cancun":   "0x0000000000001fF3684f28c67538d4D072C22734",
	"shanghai": "0x0000000000005E88410CcDFaDe4a5EfaE4b49562",
	"london":   "0x0000000000001fF3684f28c67538d4D072C22734",
}

// chainHardforkFamily is the known hardfork generation for each chain ID
// the gateway serves approvals on.
var chainHardforkFamily = map[int64]string{
	1:     "cancun",
	10:    "cancun",
	137:   "shanghai",
	42161: "london",
	8453:  "cancun",
}

// ProbeQuoter issues a tiny probe quote against an adapter and reports
// the allowanceTarget it names, used to dynamically discover the
// allowance-holder spender for a chain.
type ProbeQuoter interface {
	GetAllowanceHolderQuote(ctx context.Context, req domain.SwapRequest) (domain.SwapQuote, error)
}

// SpenderResolver resolves the address an approval must be granted to,
// for either strategy, caching dynamic lookups for 24 hours.
type SpenderResolver struct {
	dynamicCache *cache.TTLCache[string]
	probe        ProbeQuoter
}

// NewSpenderResolver returns a resolver that uses probe for the
// allowance-holder dynamic lookup.
func NewSpenderResolver(probe ProbeQuoter) *SpenderResolver {
	return &SpenderResolver{
		dynamicCache: cache.NewTTLCache[string](spenderCacheTTL),
		probe:        probe,
	}
}

// Resolve returns the spender address for chainID under strategy.
func (r *SpenderResolver) Resolve(ctx context.Context, chainID int64, strategy domain.ApprovalStrategy) (string, error) {
	if strategy == domain.StrategyPermit2 {
		return permit2.ContractAddress, nil
	}

	key := fmt.Sprintf("%d", chainID)
	addr, err := r.dynamicCache.GetOrFetch(key, func() (string, error) {
		return r.probeSpender(ctx, chainID)
	})
	if err == nil {
		return addr, nil
	}

	family, ok := chainHardforkFamily[chainID]
	if !ok {
		return "", fmt.Errorf("approval: chain %d unsupported, no spender fallback", chainID)
	}
	fallback, ok := hardforkFallbackSpenders[family]
	if !ok {
		return "", fmt.Errorf("approval: chain %d unsupported, no spender fallback", chainID)
	}
	return fallback, nil
}

func (r *SpenderResolver) probeSpender(ctx context.Context, chainID int64) (string, error) {
	if r.probe == nil {
		return "", fmt.Errorf("approval: no probe quoter configured")
	}
	// SellToken and BuyToken are deliberately identical: this is a
	// liveness probe for the adapter's declared spender, not a real
	// trade, and it never flows through execution.validate (which would
	// otherwise reject a sell==buy pair). A future refactor that routes
	// probes through shared validation must account for this.
	q, err := r.probe.GetAllowanceHolderQuote(ctx, domain.SwapRequest{
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
		return "", fmt.Errorf("approval: probe quote did not name an allowanceTarget")
	}
	return q.AllowanceTarget, nil
}
