package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

var runAgentCommand = &cobra.Command{
	Use:   "run-agent",
	Short: "Run a single agent for a stored candidate",
	Long: `Runs one component (parser, guardrail, scorer, summarizer, bias_auditor) against a candidate
in the database. Earlier stages are not re-run; the agent reads whatever is already saved.`,
	RunE: runAgentCmd,
}

var (
	agentCandidate string
	agentName      string
	agentJSON      bool
)

func init() {
	runAgentCommand.Flags().StringVar(&agentCandidate, "candidate", "", "Candidate ID (required)")
	runAgentCommand.Flags().StringVarP(&agentName, "agent", "a", "", "Agent: parser, guardrail, scorer, summarizer or bias_auditor (required)")
	runAgentCommand.Flags().BoolVar(&agentJSON, "json", false, "Print the step result as JSON")

	_ = runAgentCommand.MarkFlagRequired("candidate")
	_ = runAgentCommand.MarkFlagRequired("agent")

	rootCmd.AddCommand(runAgentCommand)
}

func runAgentCmd(_ *cobra.Command, _ []string) error {
	kind, err := pipeline.ParseAgentKind(agentName)
	if err != nil {
		return err
	}
	id, err := parseID("candidate", agentCandidate)
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

	orch, client, err := newOrchestrator(ctx, database, "")
	if err != nil {
		return err
	}
	defer client.Close()

	step, runErr := orch.RunSingleAgent(ctx, id, kind)
	if step != nil {
		if agentJSON {
			if err := printJSON(step); err != nil {
				return err
			}
		} else {
			printStepOutput(step)
		}
	}
	return runErr
}

// printStepOutput prints a box for the agent outputs the printer knows.
func printStepOutput(step *pipeline.StepResult) {
	p := printer()
	switch out := step.Output.(type) {
	case *types.ParsedResume:
		p.PrintParsedResume(out)
	case types.GuardrailResult:
		p.PrintGuardrail(&out)
	case *types.ScoringResult:
		p.PrintScoring(out)
	case *types.SummaryResult:
		p.PrintSummary(out)
	case *types.AuditResult:
		p.PrintAudit(out)
	}
	p.PrintProgress(pipeline.ProgressEvent{Step: step.Name, Status: step.Status, Message: step.Error})
}
