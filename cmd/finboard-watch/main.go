package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finboard/internal/api"
	"finboard/internal/config"
	"finboard/internal/dashboard"
	"finboard/internal/events"
	applog "finboard/internal/log"
	"finboard/internal/metrics"
	"finboard/internal/session"
	"finboard/internal/store"
	"finboard/internal/worker"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	logger.Info("starting finboard-watch", applog.FieldOperation, applog.OpStartup)

	meter := metrics.New(prometheus.DefaultRegisterer)

	selStore, storeCleanup, err := store.New(
		store.Backend(cfg.SelectionBackend), cfg.SQLiteDBPath,
		logger.WithComponent(applog.ComponentStore))
	if err != nil {
		logger.Error("failed to initialize selection store", applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				logger.Warn("selection store close failed", applog.FieldError, err)
			}
		}
	}()

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  logger.WithComponent(applog.ComponentAPI),
	})
	if err != nil {
		logger.Error("failed to initialize api client", applog.FieldError, err)
		os.Exit(1)
	}

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("could not connect AMQP, continuing without session events", applog.FieldError, err)
			publisher = nil
		}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("event publisher close failed", applog.FieldError, err)
		}
	}()

	sess := session.NewManager(client, selStore, session.Options{
		Events: publisher,
		Meter:  meter,
		Logger: logger.WithComponent(applog.ComponentSession),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess.Initialize(ctx, nil)

	dash := dashboard.New(sess, client, dashboard.Options{
		Meter:  meter,
		Logger: logger.WithComponent(applog.ComponentFetch),
	})
	// Keeps the session error observable even though nothing renders it in
	// watch mode; the worker retries on the next tick.
	surface := dashboard.NewErrorSurface(sess)

	if err := sess.RefreshRoster(ctx); err != nil {
		logger.Warn("initial roster refresh failed, will retry",
			applog.FieldError, err, "surface", surface.Message())
	} else if err := dash.RefreshAll(ctx); err != nil {
		logger.Warn("initial view refresh failed", applog.FieldError, err)
	}

	// Prometheus exposition, optional
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics endpoint failed", applog.FieldError, err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	refreshWorker := worker.NewRefreshWorker(sess, dash, cfg.RefreshInterval,
		logger.WithComponent(applog.ComponentWorker))
	go func() {
		if err := refreshWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh worker failed", applog.FieldError, err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", applog.FieldOperation, applog.OpShutdown, "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled", applog.FieldOperation, applog.OpShutdown)
	}
	cancel()
}
