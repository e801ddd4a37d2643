package server

import (
	"context"
	"net/http"
	"strconv"

	"sa-match-gateway/internal/domain"
	apierrors "sa-match-gateway/internal/errors"
	"sa-match-gateway/internal/metrics"
	"sa-match-gateway/internal/repository"
	"sa-match-gateway/internal/service"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultWindowLimit = 24

type MatchPager interface {
	FetchPage(ctx context.Context, req service.PageRequest) (*domain.Page, error)
}

type DetailFetcher interface {
	FetchDetail(ctx context.Context, matchID string, useKST bool) (*domain.MatchDetailSummary, error)
}

type HistoryFetcher interface {
	FetchPlayerHistory(ctx context.Context, ouid string, useKST bool) (*domain.History, error)
}

type MetricsReader interface {
	Snapshot() metrics.Snapshot
}

type WindowReader interface {
	Recent(ctx context.Context, limit int) ([]repository.MetricWindow, error)
}

type CacheReader interface {
	All() []service.CacheStats
	ByName(name string) (service.CacheStats, bool)
}

// Handler serves the match gateway HTTP routes
type Handler struct {
	matches MatchPager
	details DetailFetcher
	history HistoryFetcher
	metrics MetricsReader
	windows WindowReader
	caches  CacheReader
}

func NewHandler(matches MatchPager, details DetailFetcher, history HistoryFetcher, metrics MetricsReader, windows WindowReader, caches CacheReader) *Handler {
	return &Handler{
		matches: matches,
		details: details,
		history: history,
		metrics: metrics,
		windows: windows,
		caches:  caches,
	}
}

// HealthCheck handles GET /health
func (handler *Handler) HealthCheck(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sa-match-gateway",
	})
}

// GetMatches handles GET /matches
func (handler *Handler) GetMatches(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	useKST, err := parseUseKST(query.Get("useKst"))
	if err != nil {
		apierrors.WriteError(writer, err)
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			apierrors.WriteError(writer, apierrors.Validation("limit", "invalid limit %q", raw))
			return
		}
	}

	page, err := handler.matches.FetchPage(request.Context(), service.PageRequest{
		OUID:   query.Get("ouid"),
		Mode:   query.Get("mode"),
		Type:   query.Get("type"),
		Cursor: query.Get("cursor"),
		Limit:  limit,
		UseKST: useKST,
	})
	if err != nil {
		apierrors.WriteError(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, page)
}

// GetMatchDetail handles GET /matches/{matchId}/detail
func (handler *Handler) GetMatchDetail(writer http.ResponseWriter, request *http.Request) {
	useKST, err := parseUseKST(request.URL.Query().Get("useKst"))
	if err != nil {
		apierrors.WriteError(writer, err)
		return
	}

	detail, err := handler.details.FetchDetail(request.Context(), mux.Vars(request)["matchId"], useKST)
	if err != nil {
		apierrors.WriteError(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, detail)
}

// GetHistory handles GET /matches/history
func (handler *Handler) GetHistory(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	useKST, err := parseUseKST(query.Get("useKst"))
	if err != nil {
		apierrors.WriteError(writer, err)
		return
	}

	history, err := handler.history.FetchPlayerHistory(request.Context(), query.Get("ouid"), useKST)
	if err != nil {
		apierrors.WriteError(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, history)
}

// GetAPIMetrics handles GET /metrics/api
func (handler *Handler) GetAPIMetrics(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, handler.metrics.Snapshot())
}

// GetAPIMetricWindows handles GET /metrics/api/windows
func (handler *Handler) GetAPIMetricWindows(writer http.ResponseWriter, request *http.Request) {
	limit := defaultWindowLimit
	if raw := request.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			apierrors.WriteError(writer, apierrors.Validation("limit", "invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	windows, err := handler.windows.Recent(request.Context(), limit)
	if err != nil {
		apierrors.WriteError(writer, apierrors.Internal("failed to load metric windows", err))
		return
	}

	writeJSON(writer, http.StatusOK, map[string]any{"windows": windows})
}

// GetCacheStats handles GET /metrics/cache
func (handler *Handler) GetCacheStats(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, map[string]any{"caches": handler.caches.All()})
}

// GetCacheStatsByName handles GET /metrics/cache/{name}
func (handler *Handler) GetCacheStatsByName(writer http.ResponseWriter, request *http.Request) {
	name := mux.Vars(request)["name"]

	stats, ok := handler.caches.ByName(name)
	if !ok {
		apierrors.WriteError(writer, apierrors.NotFound("cache "+strconv.Quote(name)+" not found"))
		return
	}

	writeJSON(writer, http.StatusOK, stats)
}

func parseUseKST(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	useKST, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apierrors.Validation("useKst", "invalid useKst %q", raw)
	}
	return useKST, nil
}

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(body)
}
