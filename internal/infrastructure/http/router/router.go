package router

import (
	"net/http"

	"bnpl-risk-core/internal/interfaces/http/handler"
)

// Router holds all HTTP handlers
type Router struct {
	mux             *http.ServeMux
	creditHandler   *handler.CreditHandler
	checkoutHandler *handler.CheckoutHandler
	fraudHandler    *handler.FraudHandler
	planHandler     *handler.PlanHandler
	kycHandler      *handler.KYCHandler
	healthHandler   *handler.HealthHandler
	metricsEnabled  bool
	metricsPath     string
}

// NewRouter creates a new router with all routes configured
func NewRouter(
	creditHandler *handler.CreditHandler,
	checkoutHandler *handler.CheckoutHandler,
	fraudHandler *handler.FraudHandler,
	planHandler *handler.PlanHandler,
	kycHandler *handler.KYCHandler,
	healthHandler *handler.HealthHandler,
	metricsEnabled bool,
	metricsPath string,
) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		creditHandler:   creditHandler,
		checkoutHandler: checkoutHandler,
		fraudHandler:    fraudHandler,
		planHandler:     planHandler,
		kycHandler:      kycHandler,
		healthHandler:   healthHandler,
		metricsEnabled:  metricsEnabled,
		metricsPath:     metricsPath,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	// Credit decisioning
	r.mux.HandleFunc("POST /api/v1/credit/assess", r.creditHandler.Assess)
	r.mux.HandleFunc("POST /api/v1/credit/users/{id}/reassess", r.creditHandler.Reassess)
	r.mux.HandleFunc("GET /api/v1/credit/users/{id}/account", r.creditHandler.GetAccount)
	r.mux.HandleFunc("GET /api/v1/credit/users/{id}/history", r.creditHandler.GetLimitHistory)

	// Checkout
	r.mux.HandleFunc("POST /api/v1/checkout", r.checkoutHandler.Checkout)

	// Fraud evaluation
	r.mux.HandleFunc("POST /api/v1/fraud/check", r.fraudHandler.Check)
	r.mux.HandleFunc("GET /api/v1/fraud/transactions/{id}/check", r.fraudHandler.GetCheckByTransaction)

	// Plan lifecycle
	r.mux.HandleFunc("GET /api/v1/plans/{id}", r.planHandler.Get)
	r.mux.HandleFunc("POST /api/v1/plans/sweep", r.planHandler.Sweep)
	r.mux.HandleFunc("POST /api/v1/plans/{id}/reschedule", r.planHandler.Reschedule)
	r.mux.HandleFunc("GET /api/v1/plans/{id}/reschedules", r.planHandler.RescheduleHistory)
	r.mux.HandleFunc("POST /api/v1/plans/{id}/payments", r.planHandler.RecordPayment)

	// Identity verification
	r.mux.HandleFunc("POST /api/v1/kyc/verify", r.kycHandler.Submit)

	// Metrics
	if r.metricsEnabled {
		r.mux.Handle("GET "+r.metricsPath, handler.MetricsHandler())
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
