package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers groups every HTTP handler the server exposes
type Handlers struct {
	Pricing   *PricingHandler
	Portfolio *PortfolioHandler
	Curve     *CurveHandler
	SP500     *SP500Handler
}

// NewRouter registers the API routes
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/price", h.Pricing.PriceHandler).Methods(http.MethodGet, http.MethodPost)

	api.HandleFunc("/portfolio", h.Portfolio.RunHandler).Methods(http.MethodPost)
	api.HandleFunc("/test-connection", h.Portfolio.TestConnectionHandler).Methods(http.MethodGet)
	api.HandleFunc("/performance", h.Portfolio.PerformanceHandler).Methods(http.MethodGet)

	api.HandleFunc("/curve", h.Curve.CurveHandler).Methods(http.MethodGet)
	api.HandleFunc("/chart", h.Curve.ChartHandler).Methods(http.MethodPost)

	api.HandleFunc("/symbols", h.SP500.GetSymbolsHandler).Methods(http.MethodGet)
	api.HandleFunc("/symbols/update", h.SP500.UpdateSymbolsHandler).Methods(http.MethodPost)
	api.HandleFunc("/symbols/info", h.SP500.GetSymbolsInfoHandler).Methods(http.MethodGet)
	api.HandleFunc("/symbols/analysis", h.SP500.GetAnalysisSymbolsHandler).Methods(http.MethodGet)

	// preflight requests for any API path
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}
