package execution

import "strings"

// translateError maps an upstream error message to a stable,
// user-facing category by substring match. The signer secret never
// appears in any message passed through here — callers must not build
// these messages by interpolating the secret.
func translateError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "insufficient funds"):
		return "insufficient-funds"
	case strings.Contains(msg, "gas required exceeds") || strings.Contains(msg, "out of gas") || strings.Contains(msg, "gas estimation"):
		return "gas-estimation"
	case strings.Contains(msg, "slippage"):
		return "slippage"
	case strings.Contains(msg, "no route") || strings.Contains(msg, "no such host") || strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout"):
		return "network"
	case strings.Contains(msg, "deadline") || strings.Contains(msg, "expired"):
		return "deadline"
	case strings.Contains(msg, "nonce too low") || strings.Contains(msg, "nonce too high"):
		return "nonce"
	case strings.Contains(msg, "replacement transaction underpriced") || strings.Contains(msg, "already known"):
		return "replacement"
	default:
		return "unknown"
	}
}
