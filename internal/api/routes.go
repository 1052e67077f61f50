package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Dashboard view routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/signals", handler.ListSignals).Methods("GET")
	api.HandleFunc("/orders", handler.ListOrders).Methods("GET")
	api.HandleFunc("/trades", handler.ListTrades).Methods("GET")
	api.HandleFunc("/account", handler.GetAccount).Methods("GET")

	// User actions, proxied to the backend
	api.HandleFunc("/signals/{id}/approve", handler.ApproveSignal).Methods("POST")
	api.HandleFunc("/signals/{id}/reject", handler.RejectSignal).Methods("POST")
	api.HandleFunc("/orders/{id}/cancel", handler.CancelOrder).Methods("POST")

	return r
}
