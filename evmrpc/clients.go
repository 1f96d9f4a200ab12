// Package evmrpc owns the pool of ethclient connections the rest of the
// gateway reads from, keyed by EVM chain ID.
package evmrpc

import (
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Pool is a chain-ID-keyed set of RPC clients, built once at startup from
// config and never mutated afterward.
type Pool struct {
	clients map[int64]*ethclient.Client
}

// Dial connects to every endpoint in urls (chainID -> RPC URL) and
// returns the resulting pool. It fails fast on the first bad endpoint
// rather than starting up in a degraded state.
func Dial(urls map[int64]string) (*Pool, error) {
	clients := make(map[int64]*ethclient.Client, len(urls))
	for chainID, url := range urls {
		c, err := ethclient.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("evmrpc: dialing chain %d (%s): %w", chainID, url, err)
		}
		clients[chainID] = c
	}
	return &Pool{clients: clients}, nil
}

// Client returns the RPC client for chainID, if one was configured.
func (p *Pool) Client(chainID int64) (*ethclient.Client, bool) {
	c, ok := p.clients[chainID]
	return c, ok
}

// Chains lists every chain ID the pool has a client for.
func (p *Pool) Chains() []int64 {
	out := make([]int64, 0, len(p.clients))
	for c := range p.clients {
		out = append(out, c)
	}
	return out
}
