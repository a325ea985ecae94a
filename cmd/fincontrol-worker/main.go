package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fincontrol/internal/amqp"
	"fincontrol/internal/cli"
	applog "fincontrol/internal/log"
	"fincontrol/internal/sheets"
	"fincontrol/internal/sheets/google"
	"fincontrol/internal/sheets/memory"
	"fincontrol/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting fincontrol-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mirror sheets.ActivityMirror
	if cfg.SheetsConfigured() {
		client, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		// Dev fallback: activities still flow through the pipeline but the
		// mirror lives only in process memory.
		mirror = memory.New()
		logger.Warn("Google Sheets not configured, using in-memory mirror")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(repo, mirror, cfg.MirrorBatchSize)

	// Recover anything that went pending while the worker was down
	if err := mirrorWorker.StartupMirrorCheck(ctx); err != nil {
		logger.Error("Startup mirror check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeActivityMirror(gctx, func(msg *amqp.ActivityMirrorMessage) error {
			return mirrorWorker.HandleMirrorMessage(gctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := mirrorWorker.ProcessPendingActivities(gctx); err != nil {
					logger.Error("Periodic mirror reconcile failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
