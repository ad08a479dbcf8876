// Headless scanner: sweeps the watchlist on a timer and writes accepted
// signals to the structured log. Pair it with METRICS_ADDR for Prometheus
// scraping.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/config"
	"github.com/Alias1177/Signaler/internal/app"
	"github.com/Alias1177/Signaler/internal/emitter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	app.SetupLogger(cfg.LogLevel)

	comps, err := app.BuildScanner(cfg, emitter.NewLogEmitter())
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	if comps.DB != nil {
		defer comps.DB.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: comps.Metrics.Handler()}
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics endpoint up")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	comps.Scanner.Run(ctx, cfg.ScanInterval())
}
