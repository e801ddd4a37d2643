package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	NexonAPIKey  string `env:"NEXON_API_KEY"`
	NexonBaseURL string `env:"NEXON_BASE_URL" envDefault:"https://open.api.nexon.com"`
	DBPath       string `env:"DB_PATH" envDefault:"sa-match.db"`
	ServerPort   string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	RetryMaxRetries   int           `env:"RETRY_MAX_RETRIES" envDefault:"3"`
	RetryInitialDelay time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"500ms"`

	MetricsWindow   time.Duration `env:"METRICS_WINDOW" envDefault:"1h"`
	HistoryMatchCap int           `env:"HISTORY_MATCH_CAP" envDefault:"200"`

	// Ranked season stats only count matches at or after this instant.
	StatsSeasonStart time.Time `env:"STATS_SEASON_START" envDefault:"2025-01-01T00:00:00+09:00"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("nexon_base_url", cfg.NexonBaseURL).
		Int("retry_max_retries", cfg.RetryMaxRetries).
		Dur("retry_initial_delay", cfg.RetryInitialDelay).
		Dur("metrics_window", cfg.MetricsWindow).
		Time("stats_season_start", cfg.StatsSeasonStart).
		Msg("configuration loaded")

	return cfg, nil
}

// Parse reads the environment only; it does not touch .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.NexonAPIKey == "" {
		return nil, fmt.Errorf("NEXON_API_KEY is required")
	}
	if cfg.RetryMaxRetries < 0 {
		return nil, fmt.Errorf("RETRY_MAX_RETRIES must not be negative")
	}
	if cfg.RetryInitialDelay <= 0 {
		return nil, fmt.Errorf("RETRY_INITIAL_DELAY must be positive")
	}
	if cfg.MetricsWindow <= 0 {
		return nil, fmt.Errorf("METRICS_WINDOW must be positive")
	}
	if cfg.HistoryMatchCap <= 0 {
		return nil, fmt.Errorf("HISTORY_MATCH_CAP must be positive")
	}
	cfg.StatsSeasonStart = cfg.StatsSeasonStart.UTC()

	return cfg, nil
}

var Module = fx.Provide(Load)
