package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adsimport/internal/app"
	"adsimport/internal/delivery"
	"adsimport/pkg/config"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	services, err := app.New(ctx, cfg, log, m)
	if err != nil {
		log.WithError(err).Error("Failed to initialize services")
		os.Exit(1)
	}
	defer services.Close()

	handlers := delivery.NewHTTPHandlers(services.Imports, services.Reports, log, m, cfg.Import.MaxUploadBytes)
	router := delivery.NewHTTPRouter(handlers, log, m, cfg.Server.RequestTimeout).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("HTTP server failed")
		os.Exit(1)
	}

	log.Info("Server stopped")
}
