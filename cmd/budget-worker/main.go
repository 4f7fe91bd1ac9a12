package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent("worker")
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting budget-worker")

	store := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer store.Close()

	var mirror sheets.TransactionMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.SheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirroring enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.SheetName)
	} else {
		logger.Info("Google Sheets mirroring disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	mirrorWorker := worker.NewMirrorWorker(store, mirror, cfg.BackupKeep)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err, "url", cfg.AMQPURL)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeLedgerChanged(ctx, func(msg *amqp.LedgerChangedMessage) error {
				return mirrorWorker.HandleChangeEvent(ctx, msg)
			})
		})
	} else {
		logger.Info("AMQP consumption disabled - running backups only")
	}

	g.Go(func() error {
		return mirrorWorker.RunBackups(ctx, cfg.BackupInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
