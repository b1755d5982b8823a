// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"taskhive/internal/config"
	httptransport "taskhive/internal/http"
	"taskhive/internal/http/handlers"
	"taskhive/internal/infra"
	"taskhive/internal/logging"
	"taskhive/internal/maps"
	"taskhive/internal/metrics"
	"taskhive/internal/modules/doer"
	"taskhive/internal/modules/matching"
	"taskhive/internal/modules/notify"
	"taskhive/internal/modules/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres init")
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		log.Fatal().Err(err).Msg("redis init")
	}

	registry := prometheus.NewRegistry()
	matchingMetrics := metrics.NewMatching(registry)

	doerStore := doer.NewStore(dbPool, redisClient)
	doerSvc := doer.NewService(doerStore, log)

	taskStore := task.NewStore(dbPool)
	notifier := notify.NewLogNotifier(log)
	taskSvc := task.NewService(taskStore, doerSvc, notifier, log)

	matchingSvc := matching.NewService(doerStore, taskStore, cfg.Matching, log, matchingMetrics)

	var geocoder handlers.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("maps init")
		}
		geocoder = g
	}

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Task:     taskSvc,
		Doer:     doerSvc,
		Matching: matchingSvc,
		Geocoder: geocoder,
		Registry: registry,
		Log:      log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("taskhive api listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server")
	}
}
