package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swaprouter/gateway/domain"
)

func TestDeriveSwapTypeMatrix(t *testing.T) {
	cases := []struct {
		name string
		src  domain.ChainRef
		dst  domain.ChainRef
		want domain.SwapType
	}{
		{
			name: "same ecosystem same chain is on-chain",
			src:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
			dst:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
			want: domain.SwapOnChain,
		},
		{
			name: "evm to bitcoin is native",
			src:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
			dst:  domain.ChainRef{Ecosystem: domain.EcosystemBitcoin},
			want: domain.SwapNative,
		},
		{
			name: "evm to solana is cross-chain",
			src:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
			dst:  domain.ChainRef{Ecosystem: domain.EcosystemSolana},
			want: domain.SwapCrossChain,
		},
		{
			name: "evm l1 to evm l2 is l1-to-l2",
			src:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
			dst:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 10},
			want: domain.SwapL1ToL2,
		},
		{
			name: "evm l2 to evm l1 is l2-to-l1",
			src:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 10},
			dst:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
			want: domain.SwapL2ToL1,
		},
		{
			name: "evm l2 to evm l2 is l2-to-l2",
			src:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 10},
			dst:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 8453},
			want: domain.SwapL2ToL2,
		},
		{
			name: "evm chains outside the l1/l2 tables fall back to cross-chain",
			src:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
			dst:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 999},
			want: domain.SwapCrossChain,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := domain.UniversalSwapRequest{Source: c.src, Destination: c.dst}
			got, err := DetermineSwapType(req)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

// TestDetermineSwapTypeIgnoresDisagreeingHint covers scenario 3: a hint
// that disagrees with the freshly derived type is logged and discarded,
// never returned in its place.
func TestDetermineSwapTypeIgnoresDisagreeingHint(t *testing.T) {
	req := domain.UniversalSwapRequest{
		Source:       domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
		Destination:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
		SwapTypeHint: domain.SwapCrossChain,
	}
	got, err := DetermineSwapType(req)
	require.NoError(t, err)
	require.Equal(t, domain.SwapOnChain, got, "a disagreeing hint must never override the derived type")
}

func TestDetermineSwapTypeAcceptsAgreeingHint(t *testing.T) {
	req := domain.UniversalSwapRequest{
		Source:       domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
		Destination:  domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
		SwapTypeHint: domain.SwapOnChain,
	}
	got, err := DetermineSwapType(req)
	require.NoError(t, err)
	require.Equal(t, domain.SwapOnChain, got)
}

func TestCategoryFor(t *testing.T) {
	cases := []struct {
		name      string
		swapType  domain.SwapType
		ecosystem domain.Ecosystem
		want      domain.ProviderCategory
		wantErr   bool
	}{
		{name: "evm on-chain", swapType: domain.SwapOnChain, ecosystem: domain.EcosystemEVM, want: domain.CategoryEvmAggregator},
		{name: "avalanche on-chain", swapType: domain.SwapOnChain, ecosystem: domain.EcosystemAvalanche, want: domain.CategoryEvmAggregator},
		{name: "solana on-chain", swapType: domain.SwapOnChain, ecosystem: domain.EcosystemSolana, want: domain.CategorySolanaRouter},
		{name: "unsupported on-chain ecosystem", swapType: domain.SwapOnChain, ecosystem: domain.EcosystemBitcoin, wantErr: true},
		{name: "cross-chain is meta-aggregator", swapType: domain.SwapCrossChain, want: domain.CategoryMetaAggregator},
		{name: "l1-to-l2 is meta-aggregator", swapType: domain.SwapL1ToL2, want: domain.CategoryMetaAggregator},
		{name: "native-swap is native-router", swapType: domain.SwapNative, want: domain.CategoryNativeRouter},
		{name: "unknown swap type errors", swapType: domain.SwapType("bogus"), wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := domain.UniversalSwapRequest{Source: domain.ChainRef{Ecosystem: c.ecosystem}}
			got, err := CategoryFor(c.swapType, req)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

type stubChainSupport struct {
	supports bool
}

func (s stubChainSupport) SupportsChain(ecosystem domain.Ecosystem, chainID int64) bool {
	return s.supports
}

type stubQuoteCache struct {
	hasAny bool
}

func (s stubQuoteCache) HasAny(chainID int64) bool { return s.hasAny }

func TestIsChainCompatible(t *testing.T) {
	req := domain.UniversalSwapRequest{
		Source:      domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
		Destination: domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
	}

	require.True(t, IsChainCompatible(req, true, stubChainSupport{supports: false}, stubQuoteCache{hasAny: false}),
		"an empty registry must be treated as compatible so the first quote can populate the cache")

	require.True(t, IsChainCompatible(req, false, stubChainSupport{supports: true}, stubQuoteCache{hasAny: false}))
	require.True(t, IsChainCompatible(req, false, stubChainSupport{supports: false}, stubQuoteCache{hasAny: true}))
	require.False(t, IsChainCompatible(req, false, stubChainSupport{supports: false}, stubQuoteCache{hasAny: false}))

	unsupported := domain.UniversalSwapRequest{
		Source:      domain.ChainRef{Ecosystem: domain.Ecosystem("unknown")},
		Destination: domain.ChainRef{Ecosystem: domain.EcosystemEVM, ChainID: 1},
	}
	require.False(t, IsChainCompatible(unsupported, false, stubChainSupport{supports: true}, stubQuoteCache{hasAny: true}))
}
