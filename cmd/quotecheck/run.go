package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quoteScope/internal/config"
	"quoteScope/internal/harness"
	"quoteScope/internal/metrics"
	"quoteScope/internal/quoteclient"
	"quoteScope/internal/storage"
	"quoteScope/internal/storage/postgres"
)

func runChecks(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot, scenarios, err := prepare(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := quoteclient.NewClient(cfg.ServiceURL, quoteclient.Options{RPS: cfg.RPS, Logger: logger})
	if err != nil {
		return err
	}

	var sinks storage.Multi
	var jsonl *storage.JsonlStorage
	if cfg.Out != "" {
		jsonl = storage.NewJsonlStorage(cfg.Out)
		sinks = append(sinks, jsonl)
	}
	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	recorder := metrics.NewRecorder()
	runID := uuid.NewString()

	logger.Info("quotecheck start",
		zap.String("run_id", runID),
		zap.String("service", cfg.ServiceURL),
		zap.String("reference", cfg.Reference),
		zap.Int("scenarios", len(scenarios)),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("tolerance", cfg.Tolerance.String()),
		zap.String("out", cfg.Out),
	)

	runner := harness.NewRunner(cfg.RunConfig(runID), snapshot, client, sinks, recorder, logger)
	_, summary, runErr := runner.Run(ctx, scenarios)
	if summary.FinishedAt.IsZero() {
		summary.FinishedAt = time.Now().UTC()
	}

	// Reporting uses a fresh context so an interrupted run still records what it finished.
	reportCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if jsonl != nil {
		if err := jsonl.PutSummary(summary); err != nil {
			logger.Warn("write summary failed", zap.Error(err))
		}
	}
	if store != nil {
		if err := store.SaveRun(reportCtx, summary); err != nil {
			logger.Warn("save run failed", zap.Error(err))
		}
	}
	recorder.ObserveSummary(summary)
	if err := recorder.Push(reportCtx, cfg.PushgatewayURL, cfg.PushJob, runID); err != nil {
		logger.Warn("push metrics failed", zap.Error(err))
	}

	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", summary.Failed, summary.Total)
	}
	return nil
}
