package main

import (
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/swaprouter/gateway/adapters/jupiter"
	"github.com/swaprouter/gateway/adapters/nearintents"
	"github.com/swaprouter/gateway/adapters/odos"
	"github.com/swaprouter/gateway/adapters/thorrouter"
	"github.com/swaprouter/gateway/adapters/zerox"
	"github.com/swaprouter/gateway/approval"
	"github.com/swaprouter/gateway/cache"
	"github.com/swaprouter/gateway/config"
	"github.com/swaprouter/gateway/evmrpc"
	"github.com/swaprouter/gateway/execution"
	"github.com/swaprouter/gateway/health"
	"github.com/swaprouter/gateway/precheck"
	"github.com/swaprouter/gateway/quote"
	"github.com/swaprouter/gateway/registry"
	"github.com/swaprouter/gateway/store"
)

// gateway holds every composed component, so serve and the diagnostic
// subcommands can share one wiring routine rather than duplicating it.
type gateway struct {
	cfg          *config.Config
	store        *store.Store
	rpc          *evmrpc.Pool
	registry     *registry.Registry
	monitor      *health.Monitor
	orchestrator *quote.Orchestrator
	quoteCache   *cache.QuoteCache
	precheck     *precheck.Checker
	approvals    *approval.Workflow
	spenders     *approval.SpenderResolver
	coordinator  *execution.Coordinator
}

// evmClientMap flattens the RPC pool into the plain chain-ID-keyed map
// the thorrouter adapter dials its own transactions with, since it
// can't depend on evmrpc.Pool's type without an import cycle concern
// between adapters and the package that composes them.
func evmClientMap(pool *evmrpc.Pool) map[int64]*ethclient.Client {
	out := make(map[int64]*ethclient.Client)
	for _, chainID := range pool.Chains() {
		if c, ok := pool.Client(chainID); ok {
			out[chainID] = c
		}
	}
	return out
}

func wireGateway(cfg *config.Config) (*gateway, error) {
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	rpcPool, err := evmrpc.Dial(cfg.RPCEndpoints)
	if err != nil {
		db.Close()
		return nil, err
	}
	evmChains := rpcPool.Chains()

	reg := registry.New()
	mon := health.New(db)

	zeroXAdapter := zerox.New(cfg.ZeroXAPIKey, evmChains)
	reg.RegisterEvmAggregator(zeroXAdapter)
	mon.RegisterProber(zeroXAdapter.Name(), zeroXAdapter.Probe)

	odosAdapter := odos.New(cfg.OdosReferralCode, evmChains)
	reg.RegisterEvmAggregator(odosAdapter)
	mon.RegisterProber(odosAdapter.Name(), odosAdapter.Probe)

	nearAdapter := nearintents.New(cfg.NearIntentsAPIKey)
	reg.RegisterMetaAggregator(nearAdapter)
	mon.RegisterProber(nearAdapter.Name(), nearAdapter.Probe)

	thorAdapter := thorrouter.New(evmClientMap(rpcPool))
	reg.RegisterNativeRouter(thorAdapter)
	mon.RegisterProber(thorAdapter.Name(), thorAdapter.Probe)

	jupiterAdapter := jupiter.New(cfg.SolanaRPCURL)
	reg.RegisterSolanaRouter(jupiterAdapter)
	mon.RegisterProber(jupiterAdapter.Name(), jupiterAdapter.Probe)

	reg.MarkRegistrationComplete()

	qc := cache.NewQuoteCache()
	orch := quote.New(reg, mon, qc)

	spenders := approval.NewSpenderResolver(zeroXAdapter)
	// No per-token Permit2 allow-list exists anywhere in this gateway;
	// Permit2 eligibility is decided purely at the chain level.
	apprWorkflow := approval.New(rpcPool, spenders, func(chainID int64, _ string) bool {
		return approval.IsPermit2SupportedChain(chainID)
	})

	pc := precheck.New(reg, mon, orch, qc, apprWorkflow, spenders, rpcPool)
	coordinator := execution.New(orch, pc, apprWorkflow, spenders, rpcPool, db)

	return &gateway{
		cfg:          cfg,
		store:        db,
		rpc:          rpcPool,
		registry:     reg,
		monitor:      mon,
		orchestrator: orch,
		quoteCache:   qc,
		precheck:     pc,
		approvals:    apprWorkflow,
		spenders:     spenders,
		coordinator:  coordinator,
	}, nil
}

func (g *gateway) Close() {
	g.store.Close()
}
