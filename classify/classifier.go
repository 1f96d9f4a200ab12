// Package classify decides, from a request's source/destination chain
// and ecosystem pair, what kind of swap it is and which provider
// category must service it.
package classify

import (
	"fmt"
	"log"

	"github.com/swaprouter/gateway/domain"
)

// evmL1 and evmL2 partition the EVM chain IDs the gateway knows about
// into layer-1s and layer-2s for the l1-to-l2/l2-to-l1/l2-to-l2 split.
// Chains outside both sets fall back to plain cross-chain.
var evmL1 = map[int64]struct{}{1: {}, 56: {}, 137: {}}
var evmL2 = map[int64]struct{}{10: {}, 42161: {}, 8453: {}, 324: {}}

// ErrUnroutable means no rule in DetermineSwapType matched.
var ErrUnroutable = fmt.Errorf("classify: request is unroutable")

// DetermineSwapType applies the seven-step deterministic inference
// order. If req.SwapTypeHint is set, it is accepted only when it equals
// the freshly re-derived result; otherwise the re-derived result is
// returned and a warning is logged, matching the classifier's own
// override rule rather than trusting caller input blindly.
func DetermineSwapType(req domain.UniversalSwapRequest) (domain.SwapType, error) {
	derived, err := deriveSwapType(req)
	if err != nil {
		return "", err
	}
	if req.SwapTypeHint != "" && req.SwapTypeHint != derived {
		log.Printf("classify: swapType hint %q disagreed with derived %q, using derived", req.SwapTypeHint, derived)
	}
	return derived, nil
}

func deriveSwapType(req domain.UniversalSwapRequest) (domain.SwapType, error) {
	src, dst := req.Source, req.Destination

	if src.Ecosystem == dst.Ecosystem && src.ChainID == dst.ChainID {
		return domain.SwapOnChain, nil
	}

	if src.Ecosystem != dst.Ecosystem {
		if isNativeSwapEcosystem(src.Ecosystem) || isNativeSwapEcosystem(dst.Ecosystem) {
			return domain.SwapNative, nil
		}
		return domain.SwapCrossChain, nil
	}

	// Same ecosystem, different chain IDs.
	if src.Ecosystem == domain.EcosystemEVM {
		_, srcL1 := evmL1[src.ChainID]
		_, srcL2 := evmL2[src.ChainID]
		_, dstL1 := evmL1[dst.ChainID]
		_, dstL2 := evmL2[dst.ChainID]
		switch {
		case srcL1 && dstL2:
			return domain.SwapL1ToL2, nil
		case srcL2 && dstL1:
			return domain.SwapL2ToL1, nil
		case srcL2 && dstL2:
			return domain.SwapL2ToL2, nil
		default:
			return domain.SwapCrossChain, nil
		}
	}

	return domain.SwapCrossChain, nil
}

func isNativeSwapEcosystem(e domain.Ecosystem) bool {
	switch e {
	case domain.EcosystemBitcoin, domain.EcosystemThorchain, domain.EcosystemMaya, domain.EcosystemCosmos:
		return true
	default:
		return false
	}
}

// CategoryFor maps a swap type and the request's ecosystems to the
// provider category that must service it.
func CategoryFor(swapType domain.SwapType, req domain.UniversalSwapRequest) (domain.ProviderCategory, error) {
	switch swapType {
	case domain.SwapOnChain:
		switch req.Source.Ecosystem {
		case domain.EcosystemEVM, domain.EcosystemAvalanche:
			return domain.CategoryEvmAggregator, nil
		case domain.EcosystemSolana:
			return domain.CategorySolanaRouter, nil
		default:
			return "", fmt.Errorf("classify: no provider category for on-chain ecosystem %q", req.Source.Ecosystem)
		}
	case domain.SwapCrossChain, domain.SwapL1ToL2, domain.SwapL2ToL1, domain.SwapL2ToL2:
		return domain.CategoryMetaAggregator, nil
	case domain.SwapNative:
		return domain.CategoryNativeRouter, nil
	default:
		return "", fmt.Errorf("classify: unknown swap type %q", swapType)
	}
}

// ChainSupportChecker is satisfied by quote.Orchestrator (SupportsChain
// across the registry's EVM aggregators).
type ChainSupportChecker interface {
	SupportsChain(ecosystem domain.Ecosystem, chainID int64) bool
}

// QuoteCacheChecker is satisfied by cache.QuoteCache.
type QuoteCacheChecker interface {
	HasAny(chainID int64) bool
}

// IsChainCompatible reports whether both ecosystems named in req are
// supported and at least one registered adapter (or the historical
// quote cache) confirms the chain is servable. If registryEmpty is true
// (bootstrap), it returns true unconditionally so the first successful
// quote can populate the cache.
func IsChainCompatible(req domain.UniversalSwapRequest, registryEmpty bool, registrySupports ChainSupportChecker, quoteCache QuoteCacheChecker) bool {
	if registryEmpty {
		return true
	}
	if !isSupportedEcosystem(req.Source.Ecosystem) || !isSupportedEcosystem(req.Destination.Ecosystem) {
		return false
	}
	if registrySupports != nil && registrySupports.SupportsChain(req.Source.Ecosystem, req.Source.ChainID) {
		return true
	}
	if quoteCache != nil && quoteCache.HasAny(req.Source.ChainID) {
		return true
	}
	return false
}

func isSupportedEcosystem(e domain.Ecosystem) bool {
	switch e {
	case domain.EcosystemEVM, domain.EcosystemSolana, domain.EcosystemCosmos,
		domain.EcosystemBitcoin, domain.EcosystemSubstrate, domain.EcosystemNear,
		domain.EcosystemTerra, domain.EcosystemAvalanche, domain.EcosystemThorchain,
		domain.EcosystemMaya:
		return true
	default:
		return false
	}
}
