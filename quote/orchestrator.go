// Package quote is the dynamic quote orchestrator: for each request it
// filters providers by chain support and health, scores them, fans out
// quote requests in parallel, and returns either the best single result
// or a ranked comparison.
package quote

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/swaprouter/gateway/cache"
	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/health"
	"github.com/swaprouter/gateway/provider"
	"github.com/swaprouter/gateway/registry"
)

// Orchestrator is component F: it owns no adapters itself, only the
// registry and health monitor it reads from.
type Orchestrator struct {
	registry   *registry.Registry
	health     *health.Monitor
	quoteCache *cache.QuoteCache
}

// New returns an Orchestrator wired to the given registry, health
// monitor, and supported-quote cache.
func New(reg *registry.Registry, mon *health.Monitor, qc *cache.QuoteCache) *Orchestrator {
	return &Orchestrator{registry: reg, health: mon, quoteCache: qc}
}

type scored struct {
	adapter provider.OnChainAggregator
	health  domain.ProviderHealth
	score   int
}

func (o *Orchestrator) supportedAdapters(chainID int64) []provider.OnChainAggregator {
	var out []provider.OnChainAggregator
	for _, a := range o.registry.EvmAggregators() {
		if a.SupportsChain(chainID) {
			out = append(out, a)
		}
	}
	return out
}

// SupportsChain implements classify.ChainSupportChecker.
func (o *Orchestrator) SupportsChain(ecosystem domain.Ecosystem, chainID int64) bool {
	if ecosystem != domain.EcosystemEVM && ecosystem != domain.EcosystemAvalanche {
		return false
	}
	return len(o.supportedAdapters(chainID)) > 0
}

func (o *Orchestrator) rank(ctx context.Context, req domain.SwapRequest, adapters []provider.OnChainAggregator) []scored {
	out := make([]scored, 0, len(adapters))
	for _, a := range adapters {
		h := o.health.Snapshot(ctx, a.Name())
		out = append(out, scored{adapter: a, health: h, score: Score(a.Name(), h, req)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// GetQuote returns one quote. If preferredType names a registered EVM
// adapter, it is attempted once before falling through to dynamic
// selection. Dynamic selection filters to healthy adapters, scoring the
// survivors and trying them best-first; if every supported adapter is
// unhealthy, it retries in fallback mode over the full unfiltered set.
func (o *Orchestrator) GetQuote(ctx context.Context, req domain.SwapRequest, preferredType domain.AggregatorType, strict bool) (domain.SwapQuote, error) {
	if preferredType != "" {
		if a, ok := o.registry.EvmAggregatorByLegacyType(preferredType); ok {
			q, err := a.GetQuote(ctx, req, strict)
			if err == nil {
				o.recordSuccess(req, q)
				return q, nil
			}
		}
	}

	adapters := o.supportedAdapters(req.ChainID)
	if len(adapters) == 0 {
		return domain.SwapQuote{}, fmt.Errorf("quote: no provider supports chain %d (known chains: %v)", req.ChainID, o.knownChains())
	}

	ranked := o.rank(ctx, req, adapters)

	healthy := filterHealthy(ranked)
	if q, err := o.tryInOrder(ctx, req, healthy, strict); err == nil {
		return q, nil
	} else if len(healthy) > 0 {
		// All healthy candidates failed too; still fall through to the
		// full fallback-mode attempt below rather than giving up.
		_ = err
	}

	// Fallback mode: every supported provider is unhealthy, or the
	// healthy subset all failed. Attempt the full ranked set.
	return o.tryInOrder(ctx, req, ranked, strict)
}

func filterHealthy(ranked []scored) []scored {
	out := make([]scored, 0, len(ranked))
	for _, s := range ranked {
		if s.health.Status == domain.HealthHealthy {
			out = append(out, s)
		}
	}
	return out
}

func (o *Orchestrator) tryInOrder(ctx context.Context, req domain.SwapRequest, ranked []scored, strict bool) (domain.SwapQuote, error) {
	var lastErr error
	for _, s := range ranked {
		q, err := s.adapter.GetQuote(ctx, req, strict)
		if err != nil {
			lastErr = err
			continue
		}
		o.recordSuccess(req, q)
		return q, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("quote: no candidate providers")
	}
	return domain.SwapQuote{}, fmt.Errorf("quote: all providers failed, last error: %w", lastErr)
}

func (o *Orchestrator) recordSuccess(req domain.SwapRequest, q domain.SwapQuote) {
	if o.quoteCache != nil {
		o.quoteCache.Record(req.ChainID, req.SellToken, req.BuyToken)
	}
}

func (o *Orchestrator) knownChains() []int64 {
	seen := make(map[int64]struct{})
	for _, a := range o.registry.EvmAggregators() {
		for _, c := range a.GetSupportedChains() {
			seen[c] = struct{}{}
		}
	}
	out := make([]int64, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	return out
}

// QuoteResult pairs an adapter's quote with the name it came from, for
// GetMultipleQuotes' ranked comparison output.
type QuoteResult struct {
	Provider string
	Quote    domain.SwapQuote
	Err      error
}

// GetMultipleQuotes fans out to every chain-supported adapter
// concurrently, regardless of health, and returns one QuoteResult per
// adapter that responded (successfully or not). It fails only if every
// adapter failed.
func (o *Orchestrator) GetMultipleQuotes(ctx context.Context, req domain.SwapRequest) ([]QuoteResult, error) {
	adapters := o.supportedAdapters(req.ChainID)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("quote: no provider supports chain %d", req.ChainID)
	}

	results := make([]QuoteResult, len(adapters))
	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a provider.OnChainAggregator) {
			defer wg.Done()
			q, err := a.GetQuote(ctx, req, false)
			results[i] = QuoteResult{Provider: a.Name(), Quote: q, Err: err}
		}(i, a)
	}
	wg.Wait()

	successes := 0
	for _, r := range results {
		if r.Err == nil {
			successes++
			o.recordSuccess(req, r.Quote)
		}
	}
	if successes == 0 {
		return nil, fmt.Errorf("quote: every provider failed for chain %d", req.ChainID)
	}
	return results, nil
}

// BestQuote returns the QuoteResult with the maximal BuyAmount among
// successful results, using unbounded-integer comparison.
func BestQuote(results []QuoteResult) (*QuoteResult, error) {
	var best *QuoteResult
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			continue
		}
		if best == nil || r.Quote.BuyAmount.Cmp(best.Quote.BuyAmount) > 0 {
			best = r
		}
	}
	if best == nil {
		return nil, fmt.Errorf("quote: no successful quotes to pick from")
	}
	return best, nil
}

// PriceDifference computes (best-worst)/worst*100 among successful
// results, formatted to two decimals. Returns "0" when fewer than two
// successful quotes exist.
func PriceDifference(results []QuoteResult) string {
	var best, worst *domain.Amount
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			continue
		}
		amt := r.Quote.BuyAmount
		if best == nil || amt.Cmp(*best) > 0 {
			best = &amt
		}
		if worst == nil || amt.Cmp(*worst) < 0 {
			worst = &amt
		}
	}
	if best == nil || worst == nil || worst.IsZero() || best.Cmp(*worst) == 0 {
		return "0"
	}
	diff := best.Sub(*worst)
	// (diff / worst) * 100, to two decimals: scale by 10000 before
	// dividing so the truncation keeps two fractional digits.
	scaled := new(big.Int).Mul(diff.Int(), big.NewInt(10000))
	scaled.Div(scaled, worst.Int())
	return formatCentiPercent(scaled.Int64())
}

// formatCentiPercent renders a value expressed in hundredths-of-a-percent
// (i.e. already multiplied by 10000 relative to the ratio) as a decimal
// string with exactly two fractional digits.
func formatCentiPercent(centi int64) string {
	whole := centi / 100
	frac := centi % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d", whole, frac)
}
