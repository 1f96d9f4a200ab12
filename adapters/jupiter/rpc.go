package jupiter

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"
)

// solanaRPC is a thin wrapper kept separate from the quote/swap HTTP
// client so a future signing implementation has a natural place to
// fetch a recent blockhash and submit the signed transaction without
// touching the Jupiter-specific code above.
type solanaRPC struct {
	client *rpc.Client
}

func newSolanaRPC(rpcURL string) *solanaRPC {
	if rpcURL == "" {
		return &solanaRPC{}
	}
	return &solanaRPC{client: rpc.New(rpcURL)}
}

// LatestBlockhash returns the current blockhash, used by a caller that
// has decided to sign and resubmit the transaction itself rather than
// broadcasting the one Jupiter already assembled.
func (s *solanaRPC) LatestBlockhash(ctx context.Context) (string, error) {
	if s.client == nil {
		return "", context.Canceled
	}
	out, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", err
	}
	return out.Value.Blockhash.String(), nil
}
