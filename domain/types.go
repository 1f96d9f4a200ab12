// Package domain holds the request, quote, route, and permit data types
// shared by every other package, plus the closed enumerations they're
// built from.
package domain

import "time"

// Ecosystem is a blockchain technology family. A chain ID is only
// meaningful within one ecosystem.
type Ecosystem string

const (
	EcosystemEVM        Ecosystem = "evm"
	EcosystemSolana     Ecosystem = "solana"
	EcosystemCosmos     Ecosystem = "cosmos"
	EcosystemBitcoin    Ecosystem = "bitcoin"
	EcosystemSubstrate  Ecosystem = "substrate"
	EcosystemNear       Ecosystem = "near"
	EcosystemTerra      Ecosystem = "terra"
	EcosystemAvalanche  Ecosystem = "avalanche"
	EcosystemThorchain  Ecosystem = "thorchain"
	EcosystemMaya       Ecosystem = "maya"
)

// SwapType classifies a swap request by the relationship between its
// source and destination chains.
type SwapType string

const (
	SwapOnChain    SwapType = "on-chain"
	SwapCrossChain SwapType = "cross-chain"
	SwapL1ToL2     SwapType = "l1-to-l2"
	SwapL2ToL1     SwapType = "l2-to-l1"
	SwapL2ToL2     SwapType = "l2-to-l2"
	SwapNative     SwapType = "native-swap"
)

// TokenStandard is the on-chain representation of a token.
type TokenStandard string

const (
	TokenNative       TokenStandard = "native"
	TokenERC20        TokenStandard = "erc20"
	TokenSPL          TokenStandard = "spl"
	TokenBEP20        TokenStandard = "bep20"
	TokenCosmosNative TokenStandard = "cosmos-native"
	TokenRune         TokenStandard = "rune"
	TokenCacao        TokenStandard = "cacao"
)

// ApprovalStrategy is how an EVM caller grants spending rights before a
// swap transaction.
type ApprovalStrategy string

const (
	StrategyAllowanceHolder ApprovalStrategy = "allowance-holder"
	StrategyPermit2         ApprovalStrategy = "permit2"
)

// ProviderCategory is the capability set a provider adapter implements.
type ProviderCategory string

const (
	CategoryEvmAggregator ProviderCategory = "evm-aggregator"
	CategoryMetaAggregator ProviderCategory = "meta-aggregator"
	CategorySolanaRouter  ProviderCategory = "solana-router"
	CategoryNativeRouter  ProviderCategory = "native-router"
)

// ExecutionStatus is the lifecycle state of a coordinated execution.
type ExecutionStatus string

const (
	StatusPending ExecutionStatus = "PENDING"
	StatusSuccess ExecutionStatus = "SUCCESS"
	StatusFailed  ExecutionStatus = "FAILED"
	StatusPartial ExecutionStatus = "PARTIAL"
)

// AggregatorType is the legacy name used by callers that predate the
// category-keyed registry. Only "0x" and "odos" adapters are mirrored
// into it.
type AggregatorType string

const (
	AggregatorZeroX AggregatorType = "ZEROX"
	AggregatorOdos  AggregatorType = "ODOS"
)

// ChainRef ties a chain ID to the ecosystem and token standard it's
// native to. ChainID is the EVM chain ID for EcosystemEVM; for
// non-numeric ecosystems (Solana clusters, native-L1 asset families) it
// is a small registry-assigned integer rather than the ecosystem's own
// native identifier.
type ChainRef struct {
	ChainID   int64     `json:"chainId"`
	Ecosystem Ecosystem `json:"ecosystem"`
	Standard  TokenStandard `json:"standard"`
}

// SwapRequest is the legacy single-chain request shape.
type SwapRequest struct {
	ChainID            int64            `json:"chainId"`
	SellToken          string           `json:"sellToken"`
	BuyToken           string           `json:"buyToken"`
	SellAmount         Amount           `json:"sellAmount"`
	Taker              string           `json:"taker"`
	Recipient          string           `json:"recipient,omitempty"`
	SlippagePercentage float64          `json:"slippagePercentage,omitempty"`
	Deadline           int64            `json:"deadline,omitempty"`
	Aggregator         string           `json:"aggregator,omitempty"`
	ApprovalStrategy   ApprovalStrategy `json:"approvalStrategy,omitempty"`
}

// EffectiveRecipient returns Recipient, defaulting to Taker.
func (r SwapRequest) EffectiveRecipient() string {
	if r.Recipient == "" {
		return r.Taker
	}
	return r.Recipient
}

// UniversalSwapRequest is the superset request shape accepted by the
// gateway entry point; it carries explicit source/destination chain
// tuples instead of a single implied EVM chain.
type UniversalSwapRequest struct {
	Source       ChainRef         `json:"source"`
	Destination  ChainRef         `json:"destination"`
	SellToken    string           `json:"sellToken"`
	BuyToken     string           `json:"buyToken"`
	SellAmount   Amount           `json:"sellAmount"`
	Taker        string           `json:"taker"`
	Recipient    string           `json:"recipient,omitempty"`
	Slippage     float64          `json:"slippagePercentage,omitempty"`
	Deadline     int64            `json:"deadline,omitempty"`
	Aggregator   string           `json:"aggregator,omitempty"`
	Strategy     ApprovalStrategy `json:"approvalStrategy,omitempty"`
	SwapTypeHint SwapType         `json:"swapType,omitempty"`
}

// EffectiveRecipient returns Recipient, defaulting to Taker.
func (r UniversalSwapRequest) EffectiveRecipient() string {
	if r.Recipient == "" {
		return r.Taker
	}
	return r.Recipient
}

// ToLegacy collapses a same-EVM-chain universal request into the legacy
// single-chain shape. Callers must check Source.Ecosystem ==
// Destination.Ecosystem == evm && Source.ChainID == Destination.ChainID
// first; ToLegacy does not re-check.
func (r UniversalSwapRequest) ToLegacy() SwapRequest {
	return SwapRequest{
		ChainID:            r.Source.ChainID,
		SellToken:          r.SellToken,
		BuyToken:           r.BuyToken,
		SellAmount:         r.SellAmount,
		Taker:              r.Taker,
		Recipient:          r.Recipient,
		SlippagePercentage: r.Slippage,
		Deadline:           r.Deadline,
		Aggregator:         r.Aggregator,
		ApprovalStrategy:   r.Strategy,
	}
}

// Permit2EIP712 is the typed-data bundle an adapter attaches to a quote
// that requires a gas-less Permit2 signature instead of an approval tx.
// Types and Domain are treated as opaque and passed through unchanged.
type Permit2EIP712 struct {
	Types       map[string]interface{} `json:"types"`
	Domain      map[string]interface{} `json:"domain"`
	PrimaryType string                 `json:"primaryType"`
	Message     map[string]interface{} `json:"message"`
}

// Permit2Data wraps the EIP-712 bundle with the bookkeeping fields the
// caller needs to locate it.
type Permit2Data struct {
	Type   string         `json:"type"`
	Hash   string         `json:"hash"`
	EIP712 Permit2EIP712  `json:"eip712"`
}

// SwapQuote is a single-chain (or same-ecosystem) executable quote: a
// transaction payload ready to broadcast from the taker, plus the
// numbers needed to evaluate it.
type SwapQuote struct {
	SellToken            string           `json:"sellToken"`
	BuyToken             string           `json:"buyToken"`
	SellAmount           Amount           `json:"sellAmount"`
	BuyAmount            Amount           `json:"buyAmount"`
	MinBuyAmount         Amount           `json:"minBuyAmount"`
	To                   string           `json:"to"`
	Data                 string           `json:"data"`
	Value                Amount           `json:"value"`
	Gas                  Amount           `json:"gas,omitempty"`
	GasPrice             Amount           `json:"gasPrice,omitempty"`
	MaxFeePerGas         Amount           `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas Amount           `json:"maxPriorityFeePerGas,omitempty"`
	AllowanceTarget      string           `json:"allowanceTarget,omitempty"`
	Aggregator           string           `json:"aggregator"`
	PriceImpact          string           `json:"priceImpact,omitempty"`
	EstimatedGas         Amount           `json:"estimatedGas,omitempty"`
	Permit2              *Permit2Data     `json:"permit2,omitempty"`
	ApprovalStrategy     ApprovalStrategy `json:"approvalStrategy,omitempty"`
}

// Step is one leg of a cross-chain route.
type Step struct {
	Kind          string `json:"kind"` // swap | bridge | native
	ChainID       int64  `json:"chainId"`
	Details       string `json:"details"`
	Protocol      string `json:"protocol,omitempty"`
	EstimatedTime int64  `json:"estimatedTime,omitempty"`
}

// RouteFees breaks down a RouteQuote's cost.
type RouteFees struct {
	Gas      Amount `json:"gas"`
	Provider Amount `json:"provider"`
	Bridge   Amount `json:"bridge,omitempty"`
	App      Amount `json:"app,omitempty"`
}

// RouteQuote is a (possibly multi-step, possibly cross-chain) quote
// returned by a MetaAggregator, SolanaRouter, or NativeRouter.
type RouteQuote struct {
	Provider          string    `json:"provider"`
	Steps             []Step    `json:"steps"`
	TotalEstimatedOut Amount    `json:"totalEstimatedOut"`
	Fees              RouteFees `json:"fees"`
	EtaSeconds        int64     `json:"etaSeconds,omitempty"`
	RouteID           string    `json:"routeId,omitempty"`
	PriceImpact       string    `json:"priceImpact,omitempty"`
	// Confidence is in [0.1, 1.0].
	Confidence float64 `json:"confidence"`
}

// HealthStatus is a provider's current liveness classification.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ProviderHealth is a cached liveness snapshot for one provider.
type ProviderHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	LatencyMs int64        `json:"latency,omitempty"`
	LastCheck time.Time    `json:"lastCheck"`
	ErrorRate float64      `json:"errorRate,omitempty"`
}

// AggregatorNameFor maps an adapter's registered name to its legacy
// AggregatorType. Names other than "0x" and "odos" return "" and
// false; this function is pure and does not log.
func AggregatorNameFor(name string) (AggregatorType, bool) {
	switch name {
	case "0x":
		return AggregatorZeroX, true
	case "odos":
		return AggregatorOdos, true
	default:
		return "", false
	}
}

// NativeTokenSentinels are the addresses conventionally used to refer to
// an EVM chain's native gas token inside an ERC-20-shaped API, compared
// case-insensitively by callers.
var NativeTokenSentinels = []string{
	"0x0000000000000000000000000000000000000000",
	"0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
}
