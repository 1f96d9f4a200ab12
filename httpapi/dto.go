package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/swaprouter/gateway/domain"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	body := map[string]interface{}{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// RouteView is the uniform shape the gateway renders a route in,
// regardless of whether it came from a same-chain SwapQuote or a
// multi-step RouteQuote.
type RouteView struct {
	Provider    string           `json:"provider"`
	Category    domain.ProviderCategory `json:"category"`
	BuyAmount   domain.Amount    `json:"buyAmount"`
	PriceImpact string           `json:"priceImpact,omitempty"`
	EtaSeconds  int64            `json:"etaSeconds,omitempty"`
	Confidence  float64          `json:"confidence,omitempty"`
	Quote       *domain.SwapQuote  `json:"quote,omitempty"`
	Route       *domain.RouteQuote `json:"route,omitempty"`
	Error       string           `json:"error,omitempty"`
}

func routeViewFromSwapQuote(provider string, q domain.SwapQuote) RouteView {
	return RouteView{
		Provider:    provider,
		Category:    domain.CategoryEvmAggregator,
		BuyAmount:   q.BuyAmount,
		PriceImpact: q.PriceImpact,
		Quote:       &q,
	}
}

func routeViewFromRouteQuote(category domain.ProviderCategory, rq domain.RouteQuote) RouteView {
	return RouteView{
		Provider:    rq.Provider,
		Category:    category,
		BuyAmount:   rq.TotalEstimatedOut,
		PriceImpact: rq.PriceImpact,
		EtaSeconds:  rq.EtaSeconds,
		Confidence:  rq.Confidence,
		Route:       &rq,
	}
}

// quoteResponse is the body of a successful POST /universal-swap/quote.
type quoteResponse struct {
	SwapType          domain.SwapType `json:"swapType"`
	Routes            []RouteView     `json:"routes"`
	RecommendedRoute  *RouteView      `json:"recommendedRoute,omitempty"`
	TransactionData    interface{}    `json:"transactionData,omitempty"`
	Warnings          []string        `json:"warnings,omitempty"`
}
