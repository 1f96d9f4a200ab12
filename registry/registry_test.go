package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/provider"
)

type fakeEvmAggregator struct {
	name string
}

func (f *fakeEvmAggregator) Name() string                 { return f.name }
func (f *fakeEvmAggregator) Health() domain.ProviderHealth { return domain.ProviderHealth{Name: f.name} }
func (f *fakeEvmAggregator) Config() provider.AdapterConfig { return provider.AdapterConfig{} }
func (f *fakeEvmAggregator) GetQuote(ctx context.Context, req domain.SwapRequest, strict bool) (domain.SwapQuote, error) {
	return domain.SwapQuote{}, nil
}
func (f *fakeEvmAggregator) BuildTx(ctx context.Context, req domain.SwapRequest) (provider.BuiltTx, error) {
	return provider.BuiltTx{}, nil
}
func (f *fakeEvmAggregator) SupportsChain(chainID int64) bool { return true }
func (f *fakeEvmAggregator) GetSupportedChains() []int64      { return []int64{1} }

type fakeMetaAggregator struct {
	name string
}

func (f *fakeMetaAggregator) Name() string                 { return f.name }
func (f *fakeMetaAggregator) Health() domain.ProviderHealth { return domain.ProviderHealth{Name: f.name} }
func (f *fakeMetaAggregator) Config() provider.AdapterConfig { return provider.AdapterConfig{} }
func (f *fakeMetaAggregator) GetRoutes(ctx context.Context, req domain.UniversalSwapRequest) ([]domain.RouteQuote, error) {
	return nil, nil
}
func (f *fakeMetaAggregator) Execute(ctx context.Context, routeID string, signer provider.SignerContext) (provider.ExecuteResult, error) {
	return provider.ExecuteResult{}, nil
}
func (f *fakeMetaAggregator) Status(ctx context.Context, routeID string) (domain.ExecutionStatus, error) {
	return "", nil
}
func (f *fakeMetaAggregator) GetSupportedChains() (from []int64, to []int64) { return nil, nil }

func TestRegisterEvmAggregatorIgnoresDuplicateName(t *testing.T) {
	reg := New()
	first := &fakeEvmAggregator{name: "0x"}
	second := &fakeEvmAggregator{name: "0x"}

	reg.RegisterEvmAggregator(first)
	reg.RegisterEvmAggregator(second)

	got := reg.EvmAggregators()
	require.Len(t, got, 1, "a second registration under the same name must be ignored")

	stored, ok := reg.EvmAggregatorByName("0x")
	require.True(t, ok)
	require.Same(t, first, stored, "the first registration must win, not be overwritten")
}

func TestRegisterEvmAggregatorPopulatesLegacyMirror(t *testing.T) {
	reg := New()
	reg.RegisterEvmAggregator(&fakeEvmAggregator{name: "0x"})

	p, ok := reg.EvmAggregatorByLegacyType(domain.AggregatorZeroX)
	require.True(t, ok)
	require.Equal(t, "0x", p.Name())
}

func TestRegisterMetaAggregatorIgnoresDuplicateName(t *testing.T) {
	reg := New()
	reg.RegisterMetaAggregator(&fakeMetaAggregator{name: "near-intents"})
	reg.RegisterMetaAggregator(&fakeMetaAggregator{name: "near-intents"})

	require.Len(t, reg.MetaAggregators(), 1)
}

func TestRegistryIsEmptyUntilSomethingRegisters(t *testing.T) {
	reg := New()
	require.True(t, reg.IsEmpty())

	reg.RegisterEvmAggregator(&fakeEvmAggregator{name: "0x"})
	require.False(t, reg.IsEmpty())
}

func TestRegisterDispatchesByCategory(t *testing.T) {
	reg := New()
	reg.Register(&fakeEvmAggregator{name: "0x"}, domain.CategoryEvmAggregator)
	reg.Register(&fakeMetaAggregator{name: "near-intents"}, domain.CategoryMetaAggregator)

	require.Len(t, reg.EvmAggregators(), 1)
	require.Len(t, reg.MetaAggregators(), 1)
}

func TestWaitForRegistrationUnblocksOnMarkComplete(t *testing.T) {
	reg := New()
	reg.MarkRegistrationComplete()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reg.WaitForRegistration(ctx))
}

func TestWaitForRegistrationRespectsContextCancellation(t *testing.T) {
	reg := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, reg.WaitForRegistration(ctx))
}
