// Package main provides the entry point for the candidate evaluator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-evaluator/internal/config"
	"github.com/jonathan/candidate-evaluator/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "evaluator",
	Short: "Candidate evaluation pipeline with bias auditing",
	Long: `Evaluates candidates for a job position: parses resumes, applies deterministic guardrails,
scores against a weighted rubric, summarises a recommendation and audits the score for bias
with counterfactual probes. Results persist to PostgreSQL.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

var (
	configPath string
	verbose    bool
	jsonLogs   bool
	dbURL      string

	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (yaml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed output and debug logs")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit JSON-encoded logs")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
}

func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(viper.New(), configPath)
	if err != nil {
		return err
	}
	if dbURL != "" {
		loaded.Database.URL = dbURL
	}
	cfg = loaded

	logger, err = logging.New(cfg.Logging.JSON || jsonLogs, cfg.Logging.Debug || verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) {
	if logger != nil {
		_ = logger.Sync()
	}
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
