package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fincontrol/internal/amqp"
	"fincontrol/internal/auth"
	"fincontrol/internal/cli"
	"fincontrol/internal/core"
	apphttp "fincontrol/internal/http"
	applog "fincontrol/internal/log"
	"fincontrol/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	logger.Info("Starting fincontrol API")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The API stays up without the broker; the reconcile loop in the worker
	// catches up on mirroring once AMQP returns.
	var publisher services.MirrorPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, activity mirroring deferred to reconcile", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	catalog := core.DefaultCatalog()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenLifespan)

	srv := apphttp.NewServer(
		":"+cfg.Port,
		services.NewUserService(repo, tokens, cfg.BcryptCost),
		services.NewActivityService(catalog, repo, publisher),
		services.NewDashboardService(catalog, repo, repo),
		services.NewExportService(repo, repo),
		tokens,
		catalog,
		cfg.RateLimitPerMinute,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
