// Package httpapi exposes the gateway's universal-swap and
// swap-analysis endpoints over a plain net/http.ServeMux, in the
// teacher's composition style: handlers are plain functions registered
// with mux.HandleFunc and wrapped with small middleware closures rather
// than a routing framework.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/swaprouter/gateway/approval"
	"github.com/swaprouter/gateway/cache"
	"github.com/swaprouter/gateway/chainlist"
	"github.com/swaprouter/gateway/evmrpc"
	"github.com/swaprouter/gateway/execution"
	"github.com/swaprouter/gateway/health"
	"github.com/swaprouter/gateway/notify"
	"github.com/swaprouter/gateway/precheck"
	"github.com/swaprouter/gateway/quote"
	"github.com/swaprouter/gateway/registry"
	"github.com/swaprouter/gateway/store"
)

// Server wires every gateway component into HTTP handlers.
type Server struct {
	corsOrigin string
	limiter    *rateLimiter

	registry   *registry.Registry
	monitor    *health.Monitor
	orch       *quote.Orchestrator
	qc         *cache.QuoteCache
	precheck   *precheck.Checker
	approval   *approval.Workflow
	spenders   *approval.SpenderResolver
	coordinator *execution.Coordinator
	rpc        *evmrpc.Pool
	store      *store.Store
	chains     *chainlist.Client
	notifier   *notify.Notifier

	httpServer *http.Server
}

// Deps collects every component New needs; it exists purely to keep
// New's signature from growing an unreadable number of positional
// parameters as the gateway's dependency count increases.
type Deps struct {
	CORSOrigin string
	Registry   *registry.Registry
	Monitor    *health.Monitor
	Orchestrator *quote.Orchestrator
	QuoteCache *cache.QuoteCache
	Precheck   *precheck.Checker
	Approval   *approval.Workflow
	Spenders   *approval.SpenderResolver
	Coordinator *execution.Coordinator
	RPC        *evmrpc.Pool
	Store      *store.Store
	Chains     *chainlist.Client
	Notifier   *notify.Notifier
}

// New builds a Server. It does not start listening; call Start for that.
func New(d Deps) *Server {
	return &Server{
		corsOrigin:  d.CORSOrigin,
		limiter:     newRateLimiter(),
		registry:    d.Registry,
		monitor:     d.Monitor,
		orch:        d.Orchestrator,
		qc:          d.QuoteCache,
		precheck:    d.Precheck,
		approval:    d.Approval,
		spenders:    d.Spenders,
		coordinator: d.Coordinator,
		rpc:         d.RPC,
		store:       d.Store,
		chains:      d.Chains,
		notifier:    d.Notifier,
	}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /universal-swap/quote", s.wrap(s.handleQuote))
	mux.HandleFunc("POST /universal-swap/pre-check", s.wrap(s.handlePreCheck))
	mux.HandleFunc("POST /universal-swap/execute", s.wrap(s.handleExecute))
	mux.HandleFunc("POST /universal-swap/status", s.wrap(s.handleStatus))
	mux.HandleFunc("POST /universal-swap/approval/status", s.wrap(s.handleApprovalStatus))
	mux.HandleFunc("POST /universal-swap/approval/execute", s.wrap(s.handleApprovalExecute))
	mux.HandleFunc("GET /universal-swap/supported-chains", s.wrap(s.handleSupportedChains))
	mux.HandleFunc("GET /universal-swap/aggregators", s.wrap(s.handleAggregators))
	mux.HandleFunc("GET /universal-swap/health", s.wrap(s.handleHealth))
	mux.HandleFunc("GET /swap-analysis/analyze", s.wrap(s.handleAnalyze))
	mux.HandleFunc("GET /swap-analysis/ecosystems", s.wrap(s.handleEcosystems))

	return mux
}

// Start listens and serves on addr, blocking until ctx is cancelled or
// ListenAndServe returns a non-shutdown error.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
