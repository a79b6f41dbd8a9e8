package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the full evaluation pipeline for one candidate",
	Long: `Runs parsing -> PII redaction -> guardrails -> scoring -> summary -> bias audit for a candidate.

With --candidate the candidate is loaded from and saved to the database. With --resume the
resume file is evaluated ad hoc against the job described by --title/--requirements/--min-years
and nothing is persisted.`,
	RunE: runEvaluate,
}

var (
	evalCandidate    string
	evalResume       string
	evalTitle        string
	evalRequirements string
	evalMinYears     int
	evalRubric       string
	evalNoAudit      bool
	evalJSON         bool
)

func init() {
	evaluateCommand.Flags().StringVar(&evalCandidate, "candidate", "", "Candidate ID to evaluate from the database")
	evaluateCommand.Flags().StringVarP(&evalResume, "resume", "r", "", "Path to a plain-text resume to evaluate without a database")
	evaluateCommand.Flags().StringVar(&evalTitle, "title", "", "Job title (with --resume)")
	evaluateCommand.Flags().StringVar(&evalRequirements, "requirements", "", "Comma-separated job requirements (with --resume)")
	evaluateCommand.Flags().IntVar(&evalMinYears, "min-years", 0, "Minimum years of experience (with --resume)")
	evaluateCommand.Flags().StringVar(&evalRubric, "rubric", "", "Rubric file overriding the configured default")
	evaluateCommand.Flags().BoolVar(&evalNoAudit, "no-audit", false, "Skip the bias audit")
	evaluateCommand.Flags().BoolVar(&evalJSON, "json", false, "Print the run result and candidate as JSON")

	evaluateCommand.MarkFlagsMutuallyExclusive("candidate", "resume")
	evaluateCommand.MarkFlagsOneRequired("candidate", "resume")

	rootCmd.AddCommand(evaluateCommand)
}

func runEvaluate(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	var (
		store       pipeline.Store
		candidateID uuid.UUID
	)
	if evalCandidate != "" {
		id, err := parseID("candidate", evalCandidate)
		if err != nil {
			return err
		}
		database, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer database.Close()
		store, candidateID = database, id
	} else {
		mem, id, err := adHocCandidate(ctx, evalResume, &types.Job{
			Title:              evalTitle,
			Requirements:       evalRequirements,
			MinExperienceYears: evalMinYears,
		})
		if err != nil {
			return err
		}
		store, candidateID = mem, id
	}

	orch, client, err := newOrchestrator(ctx, store, evalRubric)
	if err != nil {
		return err
	}
	defer client.Close()

	opts := pipeline.RunOptions{BiasAudit: cfg.Pipeline.BiasAudit && !evalNoAudit}
	if verbose && !evalJSON {
		opts.OnProgress = printer().PrintProgress
	}

	result, runErr := orch.RunFullPipeline(ctx, candidateID, opts)
	if result == nil {
		return runErr
	}

	candidate, err := store.GetCandidate(context.WithoutCancel(ctx), candidateID)
	if err != nil {
		return err
	}
	if err := reportEvaluation(result, candidate); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if !result.Succeeded() {
		return fmt.Errorf("%d stage(s) failed: %w", len(result.Errors), errors.Join(stageErrors(result)...))
	}
	return nil
}

// adHocCandidate stores the resume and job in a fresh in-memory store.
func adHocCandidate(ctx context.Context, resumePath string, job *types.Job) (*pipeline.MemoryStore, uuid.UUID, error) {
	text, err := readText(resumePath)
	if err != nil {
		return nil, uuid.Nil, err
	}

	mem := pipeline.NewMemoryStore()
	if err := mem.CreateJob(ctx, job); err != nil {
		return nil, uuid.Nil, err
	}
	c := &types.Candidate{JobID: job.ID, ResumeText: text}
	if err := mem.CreateCandidate(ctx, c); err != nil {
		return nil, uuid.Nil, err
	}
	return mem, c.ID, nil
}

func reportEvaluation(result *pipeline.RunResult, c *types.Candidate) error {
	if evalJSON {
		return printJSON(map[string]any{"run": result, "candidate": c})
	}

	p := printer()
	p.PrintRunResult(result)
	if verbose {
		p.PrintParsedResume(c.ParsedData)
		p.PrintGuardrail(c.GuardrailResult)
		p.PrintScoring(c.ScoringResult)
	}
	p.PrintSummary(c.SummaryResult)
	p.PrintAudit(c.BiasAuditResult)
	return nil
}

func stageErrors(result *pipeline.RunResult) []error {
	errs := make([]error, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e)
	}
	return errs
}
