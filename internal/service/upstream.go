package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/constants"
	apierrors "sa-match-gateway/internal/errors"
	"sa-match-gateway/internal/metrics"
	"sa-match-gateway/internal/retry"

	"github.com/rs/zerolog"
)

// Gateway runs upstream calls through the retry executor and records every
// attempt in the metrics collector.
type Gateway struct {
	upstream api.Upstream
	executor *retry.Executor
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

func NewGateway(upstream api.Upstream, executor *retry.Executor, collector *metrics.Collector, logger zerolog.Logger) *Gateway {
	return &Gateway{upstream: upstream, executor: executor, metrics: collector, logger: logger}
}

// GetMetadata loads one image table with the same retry and metrics treatment as every other call.
func (g *Gateway) GetMetadata(ctx context.Context, kind api.MetaKind) ([]api.MetaEntry, error) {
	return invoke(ctx, g, "metadata "+string(kind), func(ctx context.Context, upstream api.Upstream) ([]api.MetaEntry, error) {
		return upstream.GetMetadata(ctx, kind)
	})
}

func invoke[T any](ctx context.Context, g *Gateway, what string, fn func(ctx context.Context, upstream api.Upstream) (T, error)) (T, error) {
	var result T
	err := g.executor.Do(ctx, func(ctx context.Context) error {
		g.metrics.RecordStart()
		start := time.Now()

		value, err := fn(ctx, g.upstream)
		latency := time.Since(start)
		if err != nil {
			g.metrics.RecordFailure(latency)
			if isRateLimited(err) {
				g.metrics.RecordRateLimited()
			}
			return err
		}

		g.metrics.RecordSuccess(latency)
		result = value
		return nil
	})
	if err != nil {
		var zero T
		g.logger.Debug().Err(err).Str("call", what).Msg("upstream call failed")
		return zero, upstreamError(what, err)
	}
	return result, nil
}

func isRateLimited(err error) bool {
	var statusErr *api.StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusTooManyRequests
}

// upstreamError converts executor and client failures into typed errors.
func upstreamError(what string, err error) error {
	var canceled *retry.CanceledError
	if errors.As(err, &canceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apierrors.Canceled(err)
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		if isRateLimited(exhausted.Last) {
			hint := retry.RetryAfterHint(exhausted.Last)
			if hint <= 0 {
				hint = constants.DefaultRetryAfter
			}
			return apierrors.RateLimited(hint, err)
		}
		return apierrors.Unavailable(err)
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Status == http.StatusNotFound:
			return apierrors.NotFound(what + " not found")
		case statusErr.Status >= 400 && statusErr.Status < 500:
			return apierrors.UpstreamPermanent(statusErr.Status, err)
		default:
			return apierrors.Unavailable(err)
		}
	}

	return apierrors.Internal(what+" failed", err)
}
