package quote

import (
	"math/big"

	"github.com/swaprouter/gateway/domain"
)

// tenTo21 is 10^21, the trade-size nudge threshold.
var tenTo21 = new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil)

// Score is the single site in the codebase that applies provider-name
// heuristics to a quote's rank. Adapters must never adjust their own
// rank.
func Score(name string, h domain.ProviderHealth, req domain.SwapRequest) int {
	score := 100

	switch h.Status {
	case domain.HealthHealthy:
		score += 50
	case domain.HealthUnhealthy:
		score -= 100
	}

	if bonus := 100 - int(h.LatencyMs); bonus > 0 {
		score += bonus
	}
	score -= int(h.ErrorRate * 100)

	if req.ChainID == 1 && name == "0x" {
		score += 20
	}
	if req.ChainID == 137 && name == "odos" {
		score += 15
	}
	if name == "0x" && req.SellAmount.Int().Cmp(tenTo21) > 0 {
		score += 10
	}
	if name == "0x" && req.ApprovalStrategy == domain.StrategyPermit2 {
		score += 25
	}

	if score < 0 {
		score = 0
	}
	return score
}
