// Package approval implements the EVM approval workflow: deciding
// whether a caller must grant ERC-20 allowance or can instead sign a
// gas-less Permit2 permit, and resolving the spender address for either
// path.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/evmrpc"
	"github.com/swaprouter/gateway/permit2"
)

// permit2SupportedChains is the initial table of chains where the
// Permit2 contract is deployed.
var permit2SupportedChains = map[int64]struct{}{
	1: {}, 10: {}, 56: {}, 137: {}, 42161: {}, 8453: {}, 43114: {},
}

// IsPermit2SupportedChain reports whether chainID has a deployed Permit2
// contract in the initial table.
func IsPermit2SupportedChain(chainID int64) bool {
	_, ok := permit2SupportedChains[chainID]
	return ok
}

// TokenPermit2Checker decides whether a given token on a given chain
// accepts Permit2-based allowances. Concrete policy (an allow-list, an
// adapter capability probe, ...) is supplied by the caller; the
// workflow itself stays agnostic about where that knowledge comes from.
type TokenPermit2Checker func(chainID int64, token string) bool

// Workflow is component H, wired to an RPC pool and a spender resolver.
type Workflow struct {
	rpc             *evmrpc.Pool
	spenders        *SpenderResolver
	isPermit2Token  TokenPermit2Checker
}

// New returns a Workflow. isPermit2Token may be nil, in which case no
// token is ever treated as Permit2-compatible and every approval falls
// through to the ERC-20 allowance path.
func New(rpc *evmrpc.Pool, spenders *SpenderResolver, isPermit2Token TokenPermit2Checker) *Workflow {
	if isPermit2Token == nil {
		isPermit2Token = func(int64, string) bool { return false }
	}
	return &Workflow{rpc: rpc, spenders: spenders, isPermit2Token: isPermit2Token}
}

// IsApprovalNeeded runs the three-branch approval decision: a native
// token never needs approval; a Permit2-compatible token on a
// Permit2-supported chain is checked against the Permit2 contract;
// everything else reads the plain ERC-20 allowance.
//
// On any read error the result is conservatively "needed", and the
// error is returned alongside so the caller (precheck) can surface it
// as a diagnostic rather than silently swallowing it.
func (w *Workflow) IsApprovalNeeded(ctx context.Context, chainID int64, token, owner, spender string, amount domain.Amount) (needed bool, err error) {
	if isNativeToken(token) {
		return false, nil
	}

	client, ok := w.rpc.Client(chainID)
	if !ok {
		return true, fmt.Errorf("approval: no RPC client for chain %d", chainID)
	}

	if IsPermit2SupportedChain(chainID) && w.isPermit2Token(chainID, token) {
		a, err := permit2ContractAllowance(ctx, client, common.HexToAddress(permit2.ContractAddress),
			common.HexToAddress(token), common.HexToAddress(owner), common.HexToAddress(spender))
		if err != nil {
			return true, fmt.Errorf("approval: reading permit2 allowance: %w", err)
		}
		expired := a.Expiration < time.Now().Unix()
		insufficient := a.Amount.Cmp(amount.Int()) < 0
		return expired || insufficient, nil
	}

	allowance, err := erc20Allowance(ctx, client, common.HexToAddress(token), common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return true, fmt.Errorf("approval: reading erc20 allowance: %w", err)
	}
	return allowance.Cmp(amount.Int()) < 0, nil
}

func isNativeToken(token string) bool {
	for _, sentinel := range domain.NativeTokenSentinels {
		if equalFoldHex(token, sentinel) {
			return true
		}
	}
	return false
}

func equalFoldHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
