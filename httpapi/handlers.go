package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/swaprouter/gateway/classify"
	"github.com/swaprouter/gateway/domain"
	"github.com/swaprouter/gateway/quote"
	"github.com/swaprouter/gateway/signer"
)

// executeRequest is the POST body accepted by /universal-swap/execute
// and /universal-swap/approval/execute: the universal swap request plus
// the caller's signing secret, never persisted past the call.
type executeRequest struct {
	domain.UniversalSwapRequest
	Secret signer.Secret `json:"secret"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.UniversalSwapRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	swapType, err := classify.DetermineSwapType(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	category, err := classify.CategoryFor(swapType, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var (
		views    []RouteView
		warnings []string
	)

	switch category {
	case domain.CategoryEvmAggregator:
		results, err := s.orch.GetMultipleQuotes(r.Context(), req.ToLegacy())
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error(), nil)
			return
		}
		best, bestErr := quote.BestQuote(results)
		for _, res := range results {
			if res.Err != nil {
				warnings = append(warnings, res.Provider+": "+res.Err.Error())
				continue
			}
			views = append(views, routeViewFromSwapQuote(res.Provider, res.Quote))
		}
		resp := quoteResponse{SwapType: swapType, Routes: views, Warnings: warnings}
		if bestErr == nil && best != nil {
			rv := routeViewFromSwapQuote(best.Provider, best.Quote)
			resp.RecommendedRoute = &rv
			resp.TransactionData = best.Quote
		}
		if diff := quote.PriceDifference(results); diff != "" {
			resp.Warnings = append(resp.Warnings, "price spread across quotes: "+diff)
		}
		writeJSON(w, http.StatusOK, resp)
		return

	case domain.CategoryMetaAggregator:
		for _, agg := range s.registry.MetaAggregators() {
			routes, err := agg.GetRoutes(r.Context(), req)
			if err != nil {
				warnings = append(warnings, agg.Name()+": "+err.Error())
				continue
			}
			for _, rt := range routes {
				views = append(views, routeViewFromRouteQuote(category, rt))
			}
		}

	case domain.CategorySolanaRouter:
		for _, rt := range s.registry.SolanaRouters() {
			if !rt.SupportsTokenPair(req.SellToken, req.BuyToken) {
				continue
			}
			q, err := rt.Quote(r.Context(), req)
			if err != nil {
				warnings = append(warnings, rt.Name()+": "+err.Error())
				continue
			}
			views = append(views, routeViewFromRouteQuote(category, q))
		}

	case domain.CategoryNativeRouter:
		for _, nr := range s.registry.NativeRouters() {
			q, err := nr.QuoteBTC(r.Context(), req)
			if err != nil {
				warnings = append(warnings, nr.Name()+": "+err.Error())
				continue
			}
			views = append(views, routeViewFromRouteQuote(category, q))
		}
	}

	resp := quoteResponse{SwapType: swapType, Routes: views, Warnings: warnings}
	if len(views) > 0 {
		recommended := views[0]
		resp.RecommendedRoute = &recommended
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreCheck(w http.ResponseWriter, r *http.Request) {
	var body struct {
		domain.UniversalSwapRequest
		Owner string `json:"owner"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	result := s.precheck.Run(r.Context(), body.UniversalSwapRequest, body.Owner)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var body executeRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	result, err := s.coordinator.Execute(r.Context(), body.UniversalSwapRequest, body.Secret)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if s.notifier != nil {
		if result.Status == domain.StatusSuccess {
			s.notifier.ExecutionSucceeded(result.Provider, result.TxHash)
		} else if result.Status == domain.StatusFailed {
			category := "unknown"
			if len(result.Errors) > 0 {
				category = result.Errors[0]
			}
			s.notifier.ExecutionFailed(result.Provider, body.SellToken, body.BuyToken, category)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExecutionID int64 `json:"executionId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	record, err := s.store.GetExecutionRecord(r.Context(), body.ExecutionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "execution record not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleApprovalStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		domain.UniversalSwapRequest
		Owner string `json:"owner"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	spender, err := s.spenders.Resolve(r.Context(), body.Source.ChainID, body.Strategy)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), nil)
		return
	}
	needed, err := s.approval.IsApprovalNeeded(r.Context(), body.Source.ChainID, body.SellToken, body.Owner, spender, body.SellAmount)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"approvalNeeded": needed,
		"spender":        spender,
	})
}

func (s *Server) handleApprovalExecute(w http.ResponseWriter, r *http.Request) {
	var body executeRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	key, err := signer.Resolve(body.Secret)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid signing secret", nil)
		return
	}
	owner := signer.AddressOf(key).Hex()
	spender, err := s.spenders.Resolve(r.Context(), body.Source.ChainID, body.Strategy)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), nil)
		return
	}
	needed, err := s.approval.IsApprovalNeeded(r.Context(), body.Source.ChainID, body.SellToken, owner, spender, body.SellAmount)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"approvalNeeded": needed,
		"spender":        spender,
		"owner":          owner,
	})
}

func (s *Server) handleSupportedChains(w http.ResponseWriter, r *http.Request) {
	seen := make(map[int64]bool)
	var chainIDs []int64
	addAll := func(ids []int64) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				chainIDs = append(chainIDs, id)
			}
		}
	}
	for _, agg := range s.registry.EvmAggregators() {
		addAll(agg.GetSupportedChains())
	}
	for _, agg := range s.registry.MetaAggregators() {
		from, to := agg.GetSupportedChains()
		addAll(from)
		addAll(to)
	}
	for _, nr := range s.registry.NativeRouters() {
		addAll(nr.GetSupportedDestinations())
	}

	type chainOut struct {
		ChainID  int64  `json:"chainId"`
		Name     string `json:"name,omitempty"`
		Currency string `json:"currency,omitempty"`
	}
	out := make([]chainOut, 0, len(chainIDs))
	for _, id := range chainIDs {
		c := chainOut{ChainID: id}
		if s.chains != nil {
			if info, ok := s.chains.Lookup(r.Context(), id); ok {
				c.Name = info.Name
				c.Currency = info.Currency.Symbol
			}
		}
		out = append(out, c)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chains": out})
}

func (s *Server) handleAggregators(w http.ResponseWriter, r *http.Request) {
	chainIDStr := r.URL.Query().Get("chainId")
	chainID, err := strconv.ParseInt(chainIDStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "chainId query parameter is required", nil)
		return
	}
	var names []string
	for _, agg := range s.registry.EvmAggregators() {
		if agg.SupportsChain(chainID) {
			names = append(names, agg.Name())
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"aggregators": names})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req domain.UniversalSwapRequest
	q := r.URL.Query()
	req.Source.ChainID, _ = strconv.ParseInt(q.Get("sourceChainId"), 10, 64)
	req.Destination.ChainID, _ = strconv.ParseInt(q.Get("destinationChainId"), 10, 64)
	req.Source.Ecosystem = domain.Ecosystem(q.Get("sourceEcosystem"))
	req.Destination.Ecosystem = domain.Ecosystem(q.Get("destinationEcosystem"))

	swapType, err := classify.DetermineSwapType(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	category, err := classify.CategoryFor(swapType, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	compatible := classify.IsChainCompatible(req, s.registry.IsEmpty(), s.orch, s.qc)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"swapType":        swapType,
		"providerCategory": category,
		"chainCompatible": compatible,
	})
}

func (s *Server) handleEcosystems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ecosystems": []domain.Ecosystem{
			domain.EcosystemEVM,
			domain.EcosystemSolana,
			domain.EcosystemCosmos,
			domain.EcosystemBitcoin,
			domain.EcosystemSubstrate,
			domain.EcosystemNear,
			domain.EcosystemTerra,
			domain.EcosystemAvalanche,
			domain.EcosystemThorchain,
			domain.EcosystemMaya,
		},
	})
}
