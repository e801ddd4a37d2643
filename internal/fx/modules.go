package fx

import (
	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/config"
	"sa-match-gateway/internal/database"
	"sa-match-gateway/internal/logger"
	"sa-match-gateway/internal/metadata"
	"sa-match-gateway/internal/metrics"
	"sa-match-gateway/internal/repository"
	"sa-match-gateway/internal/retry"
	"sa-match-gateway/internal/server"
	"sa-match-gateway/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideUpstream(client *api.NexonClient) api.Upstream {
	return client
}

// ProvideMetadataSource loads image tables through the retrying gateway.
func ProvideMetadataSource(gateway *service.Gateway) metadata.Source {
	return gateway
}

func ProvideImageCatalog(catalog *metadata.Catalog) service.ImageCatalog {
	return catalog
}

func ProvideExecutor(cfg *config.Config, logger zerolog.Logger) *retry.Executor {
	return retry.NewExecutor(cfg.RetryMaxRetries, cfg.RetryInitialDelay, logger)
}

// ProvideCollector persists every closed metrics window and reports the upstream quota.
func ProvideCollector(cfg *config.Config, windows *repository.MetricWindowRepository, client *api.NexonClient) *metrics.Collector {
	collector := metrics.NewCollector(cfg.MetricsWindow)
	collector.SetSink(windows.Sink())
	collector.SetRateLimitSource(func() (metrics.RateLimitStatus, bool) {
		info := client.GetRateLimitInfo()
		if info.UpdatedAt.IsZero() {
			return metrics.RateLimitStatus{}, false
		}
		return metrics.RateLimitStatus{
			Limit:        info.Limit,
			Remaining:    info.Remaining,
			ResetSeconds: info.Reset,
			UpdatedAt:    info.UpdatedAt.UTC(),
		}, true
	})
	return collector
}

func ProvideDetailStore(repo *repository.MatchDetailRepository) service.DetailStore {
	return repo
}

func ProvideHandler(
	matches *service.MatchService,
	details *service.MatchDetailService,
	players *service.PlayerService,
	collector *metrics.Collector,
	windows *repository.MetricWindowRepository,
	caches *service.CacheService,
) *server.Handler {
	return server.NewHandler(matches, details, players, collector, windows, caches)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	database.Module,
	// repos
	repository.Module,
	// api client
	fx.Provide(api.NewNexonClient),
	fx.Provide(ProvideUpstream),
	metadata.Module,
	fx.Provide(ProvideMetadataSource),
	fx.Provide(ProvideImageCatalog),
	// resilience
	fx.Provide(ProvideExecutor),
	fx.Provide(ProvideCollector),
	// svc
	fx.Provide(ProvideDetailStore),
	fx.Provide(service.NewGateway),
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewMatchDetailService),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewCacheService),
	// server
	fx.Provide(ProvideHandler),
	fx.Provide(server.NewHTTPServer),
)
