package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"

	"aguin/internal/amqp"
	"aguin/internal/cli"
	"aguin/internal/config"
	"aguin/internal/log"
	"aguin/internal/metrics"
	"aguin/internal/sheets"
	gsheet "aguin/internal/sheets/google"
	ledgermem "aguin/internal/sheets/memory"
	"aguin/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	ctx := context.Background()

	logger.Info("Starting aguin-worker", log.FieldBackend, cfg.DataBackend)
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; the worker will only see its own empty store")
	}

	st, closeStore := cli.OpenStore(ctx, cfg, logger)
	ledger := openLedger(ctx, cfg, logger)

	exporter := worker.NewExportWorker(st, ledger, metrics.New(prometheus.NewRegistry()), logger, cfg.SyncInterval)
	if err := exporter.Start(ctx); err != nil {
		logger.Fail(ctx, "Failed to start re-export loop", log.OpStartup, err)
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		_ = exporter.Stop(ctx)
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := closeStore(); err != nil {
			logger.Fail(ctx, "Store close error", log.OpShutdown, err)
		}
	})

	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, relying on periodic re-export only", "interval", cfg.SyncInterval)
		cli.WaitForShutdown(shutdownCtx, done)
		return
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Fail(ctx, "Failed to initialize AMQP client", log.OpStartup, err)
		os.Exit(1)
	}
	amqpClient = client

	if err := client.Consume(shutdownCtx, exporter.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fail(ctx, "Event consumption failed", log.OpExport, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(shutdownCtx, done)
}

// openLedger returns the Google Sheets ledger, or an in-memory one when no
// spreadsheet is configured.
func openLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) sheets.Ledger {
	if !cfg.SheetsEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to an in-memory ledger")
		return ledgermem.New()
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.LedgerSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Fail(ctx, "Failed to initialize Google Sheets client", log.OpStartup, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets ledger ready", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.LedgerSheetName)
	return client
}
