package main

import (
	"net/http"

	"sa-match-gateway/internal/config"
	fxmodules "sa-match-gateway/internal/fx"
	"sa-match-gateway/internal/logger"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(run),
	).Run()
}

// run forces construction of the HTTP server and applies the configured log level.
func run(_ *http.Server, cfg *config.Config, log zerolog.Logger) {
	level := logger.ApplyLevel(log, cfg.LogLevel)
	log.Info().Str("level", level.String()).Msg("log level applied")
}
