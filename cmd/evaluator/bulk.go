package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-evaluator/internal/db"
	"github.com/jonathan/candidate-evaluator/internal/jobs"
)

var bulkCommand = &cobra.Command{
	Use:   "bulk",
	Short: "Evaluate every new candidate of a job position",
	Long: `Queues a pipeline run for each candidate of the job still in stage "new" and runs them on the
worker pool. Runs that fail on transient LLM or network faults are retried with exponential backoff.`,
	RunE: runBulk,
}

var (
	bulkJob     string
	bulkNoAudit bool
	bulkJSON    bool
)

func init() {
	bulkCommand.Flags().StringVar(&bulkJob, "job", "", "Job position ID (required)")
	bulkCommand.Flags().BoolVar(&bulkNoAudit, "no-audit", false, "Skip the bias audit")
	bulkCommand.Flags().BoolVar(&bulkJSON, "json", false, "Print outcomes as JSON")

	_ = bulkCommand.MarkFlagRequired("job")

	rootCmd.AddCommand(bulkCommand)
}

// bulkResult is the JSON shape of a bulk run.
type bulkResult struct {
	Queued   int           `json:"queued"`
	Handles  []jobs.Handle `json:"handles"`
	Outcomes []bulkOutcome `json:"outcomes"`
}

type bulkOutcome struct {
	jobs.Outcome
	Error string `json:"error,omitempty"`
}

func runBulk(_ *cobra.Command, _ []string) error {
	jobID, err := parseID("job", bulkJob)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if _, err := database.GetJob(ctx, jobID); err != nil {
		return err
	}

	runner, closeFn, err := newRunner(ctx, database)
	if err != nil {
		return err
	}
	defer closeFn()

	handles, err := runner.RunForAllNew(ctx, jobID, cfg.Pipeline.BiasAudit && !bulkNoAudit)
	if err != nil {
		return err
	}
	outcomes := runner.Wait()

	failed := 0
	res := bulkResult{Queued: len(handles), Handles: handles, Outcomes: make([]bulkOutcome, 0, len(outcomes))}
	for _, o := range outcomes {
		bo := bulkOutcome{Outcome: o}
		if o.Err != nil {
			bo.Error = o.Err.Error()
			failed++
		} else if o.Result != nil && !o.Result.Succeeded() {
			failed++
		}
		res.Outcomes = append(res.Outcomes, bo)
	}

	if bulkJSON {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(stdout, "Queued %d candidates\n", res.Queued)
		for _, o := range res.Outcomes {
			status := "ok"
			if o.Error != "" {
				status = "error: " + o.Error
			} else if o.Result != nil && !o.Result.Succeeded() {
				status = fmt.Sprintf("%d stage error(s)", len(o.Result.Errors))
			}
			stage := "-"
			if o.Result != nil {
				stage = string(o.Result.FinalStage)
			}
			fmt.Fprintf(stdout, "  %s  %-12s attempts=%d  %s\n", o.Handle.CandidateID, stage, o.Attempts, status)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d evaluations failed", failed, len(outcomes))
	}
	return nil
}

// newRunner builds a job runner over the database-backed orchestrator.
func newRunner(ctx context.Context, database *db.DB) (*jobs.Runner, func(), error) {
	orch, client, err := newOrchestrator(ctx, database, "")
	if err != nil {
		return nil, nil, err
	}
	runner := jobs.NewRunner(orch, database, jobOptions(), logger)
	return runner, func() { _ = client.Close() }, nil
}

func jobOptions() jobs.Options {
	return jobs.Options{
		Workers:        cfg.Jobs.Workers,
		MaxRetries:     cfg.Jobs.MaxRetries,
		InitialBackoff: cfg.Jobs.InitialBackoff,
		MaxBackoff:     cfg.Jobs.MaxBackoff,
	}
}
