// Package registry is the self-registration target for provider
// adapters: four name-keyed maps, one per ProviderCategory, populated at
// startup without any central knowledge of which adapters exist.
package registry

import (
	"context"
	"log"
	"sync"

	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/provider"
)

// Registry holds every registered adapter, keyed by category then name.
type Registry struct {
	mu sync.RWMutex

	evmAggregators  map[string]provider.OnChainAggregator
	metaAggregators map[string]provider.MetaAggregator
	solanaRouters   map[string]provider.SolanaRouter
	nativeRouters   map[string]provider.NativeRouter

	// legacy mirrors adapters named "0x"/"odos" for callers that still
	// key off AggregatorType instead of the category registry.
	legacy map[domain.AggregatorType]provider.OnChainAggregator

	complete     chan struct{}
	completeOnce sync.Once
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		evmAggregators:  make(map[string]provider.OnChainAggregator),
		metaAggregators: make(map[string]provider.MetaAggregator),
		solanaRouters:   make(map[string]provider.SolanaRouter),
		nativeRouters:   make(map[string]provider.NativeRouter),
		legacy:          make(map[domain.AggregatorType]provider.OnChainAggregator),
		complete:        make(chan struct{}),
	}
}

// RegisterEvmAggregator adds an evm-aggregator adapter. A second
// registration of the same name is ignored with a warning.
func (r *Registry) RegisterEvmAggregator(p provider.OnChainAggregator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.evmAggregators[name]; exists {
		log.Printf("registry: evm-aggregator %q already registered, ignoring duplicate", name)
		return
	}
	r.evmAggregators[name] = p
	if at, ok := domain.AggregatorNameFor(name); ok {
		r.legacy[at] = p
	}
}

// RegisterMetaAggregator adds a meta-aggregator adapter.
func (r *Registry) RegisterMetaAggregator(p provider.MetaAggregator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.metaAggregators[name]; exists {
		log.Printf("registry: meta-aggregator %q already registered, ignoring duplicate", name)
		return
	}
	r.metaAggregators[name] = p
}

// RegisterSolanaRouter adds a solana-router adapter.
func (r *Registry) RegisterSolanaRouter(p provider.SolanaRouter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.solanaRouters[name]; exists {
		log.Printf("registry: solana-router %q already registered, ignoring duplicate", name)
		return
	}
	r.solanaRouters[name] = p
}

// RegisterNativeRouter adds a native-router adapter.
func (r *Registry) RegisterNativeRouter(p provider.NativeRouter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.nativeRouters[name]; exists {
		log.Printf("registry: native-router %q already registered, ignoring duplicate", name)
		return
	}
	r.nativeRouters[name] = p
}

// Register dispatches to the correctly-typed RegisterXxx method based on
// category. It panics if p does not actually implement the interface
// category names, which would be a wiring bug in the composition root.
func (r *Registry) Register(p provider.Provider, category domain.ProviderCategory) {
	switch category {
	case domain.CategoryEvmAggregator:
		r.RegisterEvmAggregator(p.(provider.OnChainAggregator))
	case domain.CategoryMetaAggregator:
		r.RegisterMetaAggregator(p.(provider.MetaAggregator))
	case domain.CategorySolanaRouter:
		r.RegisterSolanaRouter(p.(provider.SolanaRouter))
	case domain.CategoryNativeRouter:
		r.RegisterNativeRouter(p.(provider.NativeRouter))
	default:
		log.Printf("registry: unknown category %q for provider %q, not registered", category, p.Name())
	}
}

// EvmAggregators returns a snapshot slice of every registered
// evm-aggregator adapter.
func (r *Registry) EvmAggregators() []provider.OnChainAggregator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]provider.OnChainAggregator, 0, len(r.evmAggregators))
	for _, p := range r.evmAggregators {
		out = append(out, p)
	}
	return out
}

// MetaAggregators returns a snapshot slice of every registered
// meta-aggregator adapter.
func (r *Registry) MetaAggregators() []provider.MetaAggregator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]provider.MetaAggregator, 0, len(r.metaAggregators))
	for _, p := range r.metaAggregators {
		out = append(out, p)
	}
	return out
}

// SolanaRouters returns a snapshot slice of every registered
// solana-router adapter.
func (r *Registry) SolanaRouters() []provider.SolanaRouter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]provider.SolanaRouter, 0, len(r.solanaRouters))
	for _, p := range r.solanaRouters {
		out = append(out, p)
	}
	return out
}

// NativeRouters returns a snapshot slice of every registered
// native-router adapter.
func (r *Registry) NativeRouters() []provider.NativeRouter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]provider.NativeRouter, 0, len(r.nativeRouters))
	for _, p := range r.nativeRouters {
		out = append(out, p)
	}
	return out
}

// EvmAggregatorByName looks up an evm-aggregator by its exact registered
// name, e.g. "0x" or "odos".
func (r *Registry) EvmAggregatorByName(name string) (provider.OnChainAggregator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.evmAggregators[name]
	return p, ok
}

// EvmAggregatorByLegacyType looks up an evm-aggregator by its legacy
// AggregatorType mirror.
func (r *Registry) EvmAggregatorByLegacyType(t domain.AggregatorType) (provider.OnChainAggregator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.legacy[t]
	return p, ok
}

// IsEmpty reports whether the registry has zero adapters registered in
// any category, used by classify's bootstrap chain-support check.
func (r *Registry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.evmAggregators) == 0 &&
		len(r.metaAggregators) == 0 &&
		len(r.solanaRouters) == 0 &&
		len(r.nativeRouters) == 0
}

// MarkRegistrationComplete closes the completion latch exactly once.
// Registrations arriving afterward remain valid but are not announced to
// anything already waiting on WaitForRegistration.
func (r *Registry) MarkRegistrationComplete() {
	r.completeOnce.Do(func() {
		close(r.complete)
	})
}

// WaitForRegistration blocks until MarkRegistrationComplete has been
// called, or ctx is done.
func (r *Registry) WaitForRegistration(ctx context.Context) error {
	select {
	case <-r.complete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
