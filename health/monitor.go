// Package health tracks per-provider liveness. It is the sole writer of
// ProviderHealth snapshots; every other package only reads through
// Snapshot.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/swaprouter/gateway/domain"
)

const (
	// TTL is how long a cached health snapshot is considered fresh.
	TTL = 5 * time.Minute
	// ProbeTimeout bounds a single liveness probe.
	ProbeTimeout = 5 * time.Second
)

// Prober performs the actual liveness check for one provider, e.g. a
// lightweight HTTP GET against the adapter's status endpoint. It must
// respect ctx's deadline.
type Prober func(ctx context.Context) error

// Recorder receives every refreshed snapshot, for diagnostics history.
// Implementations must not block the monitor for long; store.Store.
// RecordHealthSample satisfies this.
type Recorder interface {
	RecordHealthSample(name string, snap domain.ProviderHealth)
}

type cached struct {
	snap      domain.ProviderHealth
	refreshing bool
}

// Monitor caches the most recent ProviderHealth per adapter name and
// refreshes on demand when the cached entry is stale.
type Monitor struct {
	mu       sync.Mutex
	cache    map[string]*cached
	probers  map[string]Prober
	recorder Recorder
}

// New returns a Monitor with no probers registered yet.
func New(recorder Recorder) *Monitor {
	return &Monitor{
		cache:   make(map[string]*cached),
		probers: make(map[string]Prober),
		recorder: recorder,
	}
}

// RegisterProber associates a liveness probe with an adapter name. Must
// be called once per adapter during the registration window.
func (m *Monitor) RegisterProber(name string, p Prober) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probers[name] = p
}

// Snapshot returns the provider's current health, refreshing it first if
// the cached entry is older than TTL or absent. Concurrent callers for
// the same name block on each other rather than triggering duplicate
// probes (single-writer-per-key).
func (m *Monitor) Snapshot(ctx context.Context, name string) domain.ProviderHealth {
	m.mu.Lock()
	c, ok := m.cache[name]
	if !ok {
		c = &cached{}
		m.cache[name] = c
	}
	fresh := ok && time.Since(c.snap.LastCheck) < TTL && !c.snap.LastCheck.IsZero()
	if fresh || c.refreshing {
		for c.refreshing && !fresh {
			// Another goroutine is probing this name; wait for it by
			// releasing the lock briefly and re-checking. This is a
			// spin with a short sleep rather than a condition
			// variable, matching the lightweight style of the pack's
			// other caches (no sync.Cond anywhere in the corpus).
			m.mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			m.mu.Lock()
			fresh = time.Since(c.snap.LastCheck) < TTL && !c.snap.LastCheck.IsZero()
		}
		snap := c.snap
		m.mu.Unlock()
		return snap
	}
	c.refreshing = true
	m.mu.Unlock()

	snap := m.probe(ctx, name)

	m.mu.Lock()
	c.snap = snap
	c.refreshing = false
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.RecordHealthSample(name, snap)
	}
	return snap
}

func (m *Monitor) probe(ctx context.Context, name string) domain.ProviderHealth {
	m.mu.Lock()
	prober := m.probers[name]
	m.mu.Unlock()

	now := time.Now()
	if prober == nil {
		return domain.ProviderHealth{Name: name, Status: domain.HealthUnhealthy, ErrorRate: 1, LastCheck: now}
	}

	probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	start := time.Now()
	err := prober(probeCtx)
	latency := time.Since(start)

	if err != nil {
		return domain.ProviderHealth{Name: name, Status: domain.HealthUnhealthy, ErrorRate: 1, LastCheck: now}
	}

	status := domain.HealthHealthy
	if latency > 2*time.Second {
		status = domain.HealthDegraded
	}
	return domain.ProviderHealth{
		Name:      name,
		Status:    status,
		LatencyMs: latency.Milliseconds(),
		LastCheck: now,
	}
}

// All returns a snapshot of every name with a registered prober,
// refreshing stale entries.
func (m *Monitor) All(ctx context.Context) []domain.ProviderHealth {
	m.mu.Lock()
	names := make([]string, 0, len(m.probers))
	for name := range m.probers {
		names = append(names, name)
	}
	m.mu.Unlock()

	out := make([]domain.ProviderHealth, 0, len(names))
	for _, name := range names {
		out = append(out, m.Snapshot(ctx, name))
	}
	return out
}
