package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-evaluator/internal/analytics"
)

var fairnessCommand = &cobra.Command{
	Use:   "fairness",
	Short: "Show the fairness dashboard and agent performance",
	Long:  "Aggregates stored probe records, candidate scores and the agent execution log.",
	RunE:  runFairness,
}

var (
	fairnessJob    string
	fairnessAgents bool
	fairnessJSON   bool
)

func init() {
	fairnessCommand.Flags().StringVar(&fairnessJob, "job", "", "Restrict to one job position ID")
	fairnessCommand.Flags().BoolVar(&fairnessAgents, "agents", false, "Also show per-agent performance")
	fairnessCommand.Flags().BoolVar(&fairnessJSON, "json", false, "Print as JSON")

	rootCmd.AddCommand(fairnessCommand)
}

func runFairness(_ *cobra.Command, _ []string) error {
	jobID := uuid.Nil
	if fairnessJob != "" {
		id, err := parseID("job", fairnessJob)
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

	dashboard, err := analytics.FairnessDashboard(ctx, database, jobID)
	if err != nil {
		return err
	}

	var agents []analytics.AgentStats
	if fairnessAgents {
		if agents, err = analytics.AgentPerformance(ctx, database); err != nil {
			return err
		}
	}

	if fairnessJSON {
		out := map[string]any{"fairness": dashboard}
		if fairnessAgents {
			out["agents"] = agents
		}
		return printJSON(out)
	}

	p := printer()
	p.PrintDashboard(dashboard)
	if fairnessAgents {
		p.PrintAgentStats(agents)
	}
	return nil
}
