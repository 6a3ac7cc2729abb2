package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const apiPrefix = "/api/v1"

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Registered on the root router so a wrong method gets 405.
	r.HandleFunc(apiPrefix+"/symbols/{symbol}/frame", handler.GetFrame).Methods("GET")
	r.HandleFunc(apiPrefix+"/symbols/{symbol}/signals", handler.GetSignals).Methods("GET")
	r.HandleFunc(apiPrefix+"/symbols/{symbol}/analysis", handler.GetAnalysis).Methods("GET")
	r.HandleFunc(apiPrefix+"/scan", handler.RunScan).Methods("POST")
	r.HandleFunc(apiPrefix+"/scans", handler.GetScans).Methods("GET")
	r.HandleFunc(apiPrefix+"/presets", handler.GetPresets).Methods("GET")
	r.HandleFunc(apiPrefix+"/watchlists", handler.GetWatchlists).Methods("GET")
	r.HandleFunc(apiPrefix+"/overview", handler.GetOverview).Methods("GET")

	return r
}

// WithCORS wraps router for browser clients on origins.
func WithCORS(router http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         3600,
	})
	return c.Handler(router)
}
