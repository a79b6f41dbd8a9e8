package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/probe"
	"github.com/jonathan/candidate-evaluator/internal/scoring"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

var auditCommand = &cobra.Command{
	Use:   "audit",
	Short: "Run the counterfactual bias audit",
	Long: `Scores the resume, then re-scores name-swapped, proxy-flipped and prompt-injected variants and
flags any variant whose score moves by more than 0.15.

With --candidate the stored candidate is audited and the probe records are appended to the
database. With --resume the file is audited ad hoc and nothing is persisted.`,
	RunE: runAudit,
}

var (
	auditCandidate    string
	auditResume       string
	auditRequirements string
	auditRubric       string
	auditJSON         bool
)

func init() {
	auditCommand.Flags().StringVar(&auditCandidate, "candidate", "", "Candidate ID to audit from the database")
	auditCommand.Flags().StringVarP(&auditResume, "resume", "r", "", "Path to a plain-text resume to audit without a database")
	auditCommand.Flags().StringVar(&auditRequirements, "requirements", "", "Comma-separated job requirements (with --resume)")
	auditCommand.Flags().StringVar(&auditRubric, "rubric", "", "Rubric file (with --resume)")
	auditCommand.Flags().BoolVar(&auditJSON, "json", false, "Print the audit result as JSON")

	auditCommand.MarkFlagsMutuallyExclusive("candidate", "resume")
	auditCommand.MarkFlagsOneRequired("candidate", "resume")

	rootCmd.AddCommand(auditCommand)
}

func runAudit(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	var result *types.AuditResult
	if auditCandidate != "" {
		id, err := parseID("candidate", auditCandidate)
		if err != nil {
			return err
		}
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

		step, err := orch.RunSingleAgent(ctx, id, pipeline.AgentBiasAuditor)
		if err != nil {
			return err
		}
		result, _ = step.Output.(*types.AuditResult)
	} else {
		text, err := readText(auditResume)
		if err != nil {
			return err
		}
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		rubric, err := loadRubric(auditRubric)
		if err != nil {
			return err
		}
		client, err := newLLMClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		scorer := scoring.NewScorer(client, logger).WithTemperature(cfg.LLM.Temperature)
		engine := probe.NewEngine(scorer, catalog, logger).WithConcurrency(cfg.Pipeline.ProbeConcurrency)
		report, err := engine.Audit(ctx, probe.AuditInput{
			CandidateID:     uuid.New(),
			ResumeText:      text,
			JobRequirements: auditRequirements,
			Rubric:          scoring.RubricFor(&types.Job{Rubric: rubric}),
		})
		if err != nil {
			return err
		}
		result = report.Result
	}

	if auditJSON {
		return printJSON(result)
	}
	printer().PrintAudit(result)
	return nil
}
