package server

import (
	"net/http"

	"sa-match-gateway/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// SetupRouter registers every route on a fresh router
func SetupRouter(handler *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	router.HandleFunc("/matches", handler.GetMatches).Methods(http.MethodGet)

	matchRouter := router.PathPrefix("/matches").Subrouter()
	matchRouter.HandleFunc("/history", handler.GetHistory).Methods(http.MethodGet)
	matchRouter.HandleFunc("/{matchId}/detail", handler.GetMatchDetail).Methods(http.MethodGet)

	metricsRouter := router.PathPrefix("/metrics").Subrouter()
	metricsRouter.HandleFunc("/api", handler.GetAPIMetrics).Methods(http.MethodGet)
	metricsRouter.HandleFunc("/api/windows", handler.GetAPIMetricWindows).Methods(http.MethodGet)
	metricsRouter.HandleFunc("/cache", handler.GetCacheStats).Methods(http.MethodGet)
	metricsRouter.HandleFunc("/cache/{name}", handler.GetCacheStatsByName).Methods(http.MethodGet)

	return router
}

// NewHTTPHandler wraps the router with CORS and request-scoped logging.
func NewHTTPHandler(handler *Handler, logger zerolog.Logger) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
	})

	return middleware.RequestID(logger)(c.Handler(SetupRouter(handler)))
}
