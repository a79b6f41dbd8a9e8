package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-evaluator/internal/jobs"
)

var workerCommand = &cobra.Command{
	Use:   "worker",
	Short: "Continuously evaluate new candidates",
	Long: `Polls the database for candidates in stage "new" and evaluates them on the worker pool until
interrupted. Each poll waits for the previous batch to finish.`,
	RunE: runWorker,
}

var (
	workerJob      string
	workerInterval time.Duration
	workerNoAudit  bool
	workerOnce     bool
)

func init() {
	workerCommand.Flags().StringVar(&workerJob, "job", "", "Only evaluate candidates of this job position ID")
	workerCommand.Flags().DurationVar(&workerInterval, "interval", 30*time.Second, "Poll interval")
	workerCommand.Flags().BoolVar(&workerNoAudit, "no-audit", false, "Skip the bias audit")
	workerCommand.Flags().BoolVar(&workerOnce, "once", false, "Process one batch and exit")

	rootCmd.AddCommand(workerCommand)
}

func runWorker(_ *cobra.Command, _ []string) error {
	jobID := uuid.Nil
	if workerJob != "" {
		id, err := parseID("job", workerJob)
		if err != nil {
			return err
		}
		jobID = id
	}

	ctx, cancel := signalContext()
	defer cancel()

	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	orch, client, err := newOrchestrator(ctx, database, "")
	if err != nil {
		return err
	}
	defer client.Close()

	biasAudit := cfg.Pipeline.BiasAudit && !workerNoAudit
	log := logger.Named("worker")
	log.Info("worker started",
		zap.Duration("interval", workerInterval),
		zap.Int("workers", cfg.Jobs.Workers),
		zap.Bool("bias_audit", biasAudit))

	ticker := time.NewTicker(workerInterval)
	defer ticker.Stop()

	for {
		runner := jobs.NewRunner(orch, database, jobOptions(), logger)
		handles, err := runner.RunForAllNew(ctx, jobID, biasAudit)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("failed to queue candidates", zap.Error(err))
		}

		failed := 0
		for _, o := range runner.Wait() {
			if o.Err != nil || (o.Result != nil && !o.Result.Succeeded()) {
				failed++
			}
		}
		if len(handles) > 0 {
			log.Info("batch finished", zap.Int("evaluated", len(handles)), zap.Int("failed", failed))
		}

		if workerOnce {
			return nil
		}
		select {
		case <-ctx.Done():
			log.Info("worker stopping")
			return nil
		case <-ticker.C:
		}
	}
}
