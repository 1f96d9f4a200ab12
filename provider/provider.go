// Package provider defines the capability-set interfaces that every
// third-party adapter implements. An adapter always implements Provider
// plus exactly one of the four category interfaces; it may additionally
// implement EvmSpenderProvider if it exposes 0x-style approval
// endpoints.
package provider

import (
	"context"

	"github.com/swaprouter/gateway/domain"
)

// AdapterConfig is the static, non-secret configuration an adapter
// reports about itself, used for diagnostics and the /aggregators
// endpoint.
type AdapterConfig struct {
	BaseURL string
	Chains  []int64
}

// Provider is the universal capability every adapter exposes regardless
// of category.
type Provider interface {
	// Name is the adapter's registered identifier, e.g. "0x", "odos",
	// "near-intents", "thorchain", "jupiter".
	Name() string
	// Health returns the adapter's most recently observed health. It
	// must not block on a network call; the health monitor is the sole
	// prober and writer.
	Health() domain.ProviderHealth
	Config() AdapterConfig
}

// BuiltTx is the unsigned transaction payload an OnChainAggregator
// returns, ready to be signed and broadcast from the taker.
type BuiltTx struct {
	To                   string
	Data                 string
	Value                domain.Amount
	GasLimit             domain.Amount
	GasPrice             domain.Amount
	MaxFeePerGas         domain.Amount
	MaxPriorityFeePerGas domain.Amount
}

// OnChainAggregator is a same-chain DEX aggregator (0x, Odos, ...).
type OnChainAggregator interface {
	Provider
	GetQuote(ctx context.Context, req domain.SwapRequest, strict bool) (domain.SwapQuote, error)
	BuildTx(ctx context.Context, req domain.SwapRequest) (BuiltTx, error)
	SupportsChain(chainID int64) bool
	GetSupportedChains() []int64
}

// ExecuteResult is the outcome of a MetaAggregator.Execute call.
type ExecuteResult struct {
	TxIDs []string
}

// SignerContext carries what a MetaAggregator/SolanaRouter/NativeRouter
// needs to sign and submit on the caller's behalf. The gateway never
// persists the secret past the call that uses it.
type SignerContext struct {
	ChainID      int64
	SigningSecret string
}

// MetaAggregator composes multiple underlying DEXes and/or bridges,
// often cross-chain (NEAR Intents, LiFi, Socket, Rango, ...).
type MetaAggregator interface {
	Provider
	GetRoutes(ctx context.Context, req domain.UniversalSwapRequest) ([]domain.RouteQuote, error)
	Execute(ctx context.Context, routeID string, signer SignerContext) (ExecuteResult, error)
	Status(ctx context.Context, routeID string) (domain.ExecutionStatus, error)
	GetSupportedChains() (from []int64, to []int64)
}

// BuiltSolanaTx is the output of SolanaRouter.BuildAndSign.
type BuiltSolanaTx struct {
	RawTx        string
	TxID         string
	Instructions []string
}

// SolanaRouter quotes and builds Solana-native swap transactions.
type SolanaRouter interface {
	Provider
	Quote(ctx context.Context, req domain.UniversalSwapRequest) (domain.RouteQuote, error)
	// keypair is an opaque, caller-supplied handle whose accepted form
	// is adapter-specific.
	BuildAndSign(ctx context.Context, quote domain.RouteQuote, keypair interface{}) (BuiltSolanaTx, error)
	SupportsTokenPair(a, b string) bool
}

// NativeRouter quotes and tracks swaps that settle on a native-L1 chain
// outside the EVM/Solana world (THORChain, Bitcoin, Maya, Cosmos).
type NativeRouter interface {
	Provider
	QuoteBTC(ctx context.Context, req domain.UniversalSwapRequest) (domain.RouteQuote, error)
	DepositAndTrack(ctx context.Context, tx string, memo string) (domain.ExecutionStatus, error)
	GetSupportedDestinations() []int64
}

// EvmSpenderProvider is the optional narrower capability an EVM
// aggregator may additionally implement to participate in the
// allowance-holder approval flow. It is probed with a type assertion at
// the call site, never required.
type EvmSpenderProvider interface {
	GetSpenderAddress(ctx context.Context, chainID int64, strategy domain.ApprovalStrategy) (string, error)
	GetAllowanceHolderQuote(ctx context.Context, req domain.SwapRequest) (domain.SwapQuote, error)
	GetPermit2Quote(ctx context.Context, req domain.SwapRequest) (domain.SwapQuote, error)
	GetPermit2Price(ctx context.Context, req domain.SwapRequest) (domain.Amount, error)
}
