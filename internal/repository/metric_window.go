package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sa-match-gateway/internal/constants"
	"sa-match-gateway/internal/metrics"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type MetricWindowRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMetricWindowRepository(sqlDB *sql.DB, logger zerolog.Logger) *MetricWindowRepository {
	return &MetricWindowRepository{
		db:     sqlDB,
		logger: logger,
	}
}

type MetricWindow struct {
	metrics.Snapshot
	WindowEnd time.Time `json:"window_end"`
}

func (r *MetricWindowRepository) Insert(ctx context.Context, snapshot metrics.Snapshot, end time.Time) error {
	id := snapshot.WindowID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_metric_windows (
			id, window_start, window_end, total_requests, success_count, failure_count,
			rate_limited_count, avg_response_time_ms, min_response_time_ms, max_response_time_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		id,
		snapshot.WindowStart.UTC(),
		end.UTC(),
		snapshot.TotalRequests,
		snapshot.SuccessCount,
		snapshot.FailureCount,
		snapshot.RateLimitedCount,
		snapshot.AvgResponseTimeMs,
		snapshot.MinResponseTimeMs,
		snapshot.MaxResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert metric window %s: %w", id, err)
	}
	return nil
}

// Recent returns up to limit closed windows, newest first.
func (r *MetricWindowRepository) Recent(ctx context.Context, limit int) ([]MetricWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, window_start, window_end, total_requests, success_count, failure_count,
			rate_limited_count, avg_response_time_ms, min_response_time_ms, max_response_time_ms
		FROM api_metric_windows
		ORDER BY window_start DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric windows: %w", err)
	}
	defer rows.Close()

	windows := []MetricWindow{}
	for rows.Next() {
		var w MetricWindow
		err := rows.Scan(
			&w.WindowID,
			&w.WindowStart,
			&w.WindowEnd,
			&w.TotalRequests,
			&w.SuccessCount,
			&w.FailureCount,
			&w.RateLimitedCount,
			&w.AvgResponseTimeMs,
			&w.MinResponseTimeMs,
			&w.MaxResponseTimeMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric window: %w", err)
		}
		w.SuccessRate, w.FailureRate, w.RateLimitRate = rates(w.Snapshot)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Sink adapts the repository to a metrics.WindowSink. Writes happen off the
// recording goroutine and failures are only logged.
func (r *MetricWindowRepository) Sink() metrics.WindowSink {
	return func(snapshot metrics.Snapshot) {
		end := time.Now()
		go func() {
			if err := r.Insert(context.Background(), snapshot, end); err != nil {
				r.logger.Warn().Err(err).Str("window_id", snapshot.WindowID).Msg("failed to persist metric window")
			}
		}()
	}
}

func rates(s metrics.Snapshot) (success, failure, rateLimited float64) {
	if s.TotalRequests == 0 {
		return 0, 0, 0
	}
	total := float64(s.TotalRequests)
	return float64(s.SuccessCount) / total * 100,
		float64(s.FailureCount) / total * 100,
		float64(s.RateLimitedCount) / total * 100
}
