package quote

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swaprouter/gateway/cache"
	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/health"
	"github.com/swaprouter/gateway/provider"
	"github.com/swaprouter/gateway/registry"
)

// fakeAggregator is a minimal provider.OnChainAggregator stub whose
// GetQuote response is controlled by the test.
type fakeAggregator struct {
	name   string
	chains []int64
	quote  domain.SwapQuote
	err    error
}

func (f *fakeAggregator) Name() string { return f.name }

func (f *fakeAggregator) Health() domain.ProviderHealth {
	return domain.ProviderHealth{Name: f.name}
}

func (f *fakeAggregator) Config() provider.AdapterConfig {
	return provider.AdapterConfig{Chains: f.chains}
}

func (f *fakeAggregator) GetQuote(ctx context.Context, req domain.SwapRequest, strict bool) (domain.SwapQuote, error) {
	return f.quote, f.err
}

func (f *fakeAggregator) BuildTx(ctx context.Context, req domain.SwapRequest) (provider.BuiltTx, error) {
	return provider.BuiltTx{}, nil
}

func (f *fakeAggregator) SupportsChain(chainID int64) bool {
	for _, c := range f.chains {
		if c == chainID {
			return true
		}
	}
	return false
}

func (f *fakeAggregator) GetSupportedChains() []int64 { return f.chains }

func quoteWithBuyAmount(amount string) domain.SwapQuote {
	return domain.SwapQuote{BuyAmount: domain.MustParseAmount(amount)}
}

func TestBestQuotePicksMaxBuyAmount(t *testing.T) {
	results := []QuoteResult{
		{Provider: "a", Quote: quoteWithBuyAmount("100")},
		{Provider: "b", Quote: quoteWithBuyAmount("250")},
		{Provider: "c", Err: fmt.Errorf("boom")},
	}
	best, err := BestQuote(results)
	require.NoError(t, err)
	require.Equal(t, "b", best.Provider)
}

func TestBestQuoteErrorsWhenEveryResultFailed(t *testing.T) {
	results := []QuoteResult{
		{Provider: "a", Err: fmt.Errorf("boom")},
		{Provider: "b", Err: fmt.Errorf("also boom")},
	}
	_, err := BestQuote(results)
	require.Error(t, err)
}

func TestPriceDifferenceFormula(t *testing.T) {
	cases := []struct {
		name    string
		results []QuoteResult
		want    string
	}{
		{
			name: "ten percent spread",
			results: []QuoteResult{
				{Provider: "a", Quote: quoteWithBuyAmount("1000")},
				{Provider: "b", Quote: quoteWithBuyAmount("1100")},
			},
			want: "10.00",
		},
		{
			name: "single success has no spread",
			results: []QuoteResult{
				{Provider: "a", Quote: quoteWithBuyAmount("1000")},
			},
			want: "0",
		},
		{
			name: "failures are excluded from the spread",
			results: []QuoteResult{
				{Provider: "a", Quote: quoteWithBuyAmount("1000")},
				{Provider: "b", Err: fmt.Errorf("boom")},
			},
			want: "0",
		},
		{
			name: "identical buy amounts have no spread",
			results: []QuoteResult{
				{Provider: "a", Quote: quoteWithBuyAmount("1000")},
				{Provider: "b", Quote: quoteWithBuyAmount("1000")},
			},
			want: "0",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, PriceDifference(c.results))
		})
	}
}

func TestScoreAppliesHealthAndNameBonuses(t *testing.T) {
	req := domain.SwapRequest{ChainID: 1, SellAmount: domain.MustParseAmount("1")}

	healthy := domain.ProviderHealth{Status: domain.HealthHealthy}
	unhealthy := domain.ProviderHealth{Status: domain.HealthUnhealthy}

	require.Greater(t, Score("0x", healthy, req), Score("0x", unhealthy, req))
	// Chain 1's 0x nudge only applies to "0x", not other adapter names.
	require.Greater(t, Score("0x", healthy, req), Score("odos", healthy, req))
}

func TestGetMultipleQuotesReturnsPartialFailures(t *testing.T) {
	reg := registry.New()
	reg.RegisterEvmAggregator(&fakeAggregator{name: "good", chains: []int64{1}, quote: quoteWithBuyAmount("100")})
	reg.RegisterEvmAggregator(&fakeAggregator{name: "bad", chains: []int64{1}, err: fmt.Errorf("upstream down")})
	reg.MarkRegistrationComplete()

	orch := New(reg, health.New(nil), cache.NewQuoteCache())

	results, err := orch.GetMultipleQuotes(context.Background(), domain.SwapRequest{ChainID: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)

	var sawGood, sawBad bool
	for _, r := range results {
		switch r.Provider {
		case "good":
			sawGood = true
			require.NoError(t, r.Err)
		case "bad":
			sawBad = true
			require.Error(t, r.Err)
		}
	}
	require.True(t, sawGood, "expected the healthy adapter's result to be present")
	require.True(t, sawBad, "expected the failing adapter's result to be present, not dropped")
}

func TestGetMultipleQuotesFailsOnlyWhenEveryAdapterFails(t *testing.T) {
	reg := registry.New()
	reg.RegisterEvmAggregator(&fakeAggregator{name: "bad", chains: []int64{1}, err: fmt.Errorf("down")})
	reg.MarkRegistrationComplete()

	orch := New(reg, health.New(nil), cache.NewQuoteCache())
	_, err := orch.GetMultipleQuotes(context.Background(), domain.SwapRequest{ChainID: 1})
	require.Error(t, err)
}

// TestGetQuoteFallsBackToFullSetWhenAllUnhealthy exercises GetQuote's
// fallback path: with no health prober registered, every adapter snapshots
// as unhealthy, so the healthy-only subset is empty. GetQuote must still
// retry over the full ranked set rather than giving up.
func TestGetQuoteFallsBackToFullSetWhenAllUnhealthy(t *testing.T) {
	reg := registry.New()
	reg.RegisterEvmAggregator(&fakeAggregator{name: "only", chains: []int64{1}, quote: quoteWithBuyAmount("500")})
	reg.MarkRegistrationComplete()

	orch := New(reg, health.New(nil), cache.NewQuoteCache())
	q, err := orch.GetQuote(context.Background(), domain.SwapRequest{ChainID: 1}, "", false)
	require.NoError(t, err)
	require.Equal(t, "500", q.BuyAmount.String())
}

func TestGetQuotePrefersRegisteredLegacyTypeFirst(t *testing.T) {
	reg := registry.New()
	reg.RegisterEvmAggregator(&fakeAggregator{name: "0x", chains: []int64{1}, quote: quoteWithBuyAmount("111")})
	reg.RegisterEvmAggregator(&fakeAggregator{name: "odos", chains: []int64{1}, quote: quoteWithBuyAmount("999")})
	reg.MarkRegistrationComplete()

	orch := New(reg, health.New(nil), cache.NewQuoteCache())
	q, err := orch.GetQuote(context.Background(), domain.SwapRequest{ChainID: 1}, domain.AggregatorZeroX, false)
	require.NoError(t, err)
	require.Equal(t, "111", q.BuyAmount.String())
}
