package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-evaluator/internal/config"
	"github.com/jonathan/candidate-evaluator/internal/db"
	"github.com/jonathan/candidate-evaluator/internal/llm"
	"github.com/jonathan/candidate-evaluator/internal/observability"
	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/probe"
	"github.com/jonathan/candidate-evaluator/internal/scoring"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// Replaced in tests.
var (
	newLLMClient = func(ctx context.Context, c *config.Config) (llm.Client, error) {
		if err := c.RequireAPIKey(); err != nil {
			return nil, err
		}
		return llm.NewClient(ctx, c.LLMClientConfig(), c.LLM.APIKey)
	}
	stdout io.Writer = os.Stdout
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openDB(ctx context.Context) (*db.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	return db.Connect(ctx, cfg.Database.URL)
}

func loadCatalog() (*probe.Catalog, error) {
	if cfg.CatalogPath == "" {
		return probe.DefaultCatalog(), nil
	}
	return probe.LoadCatalog(cfg.CatalogPath)
}

// loadRubric reads path, falling back to the configured rubric file. A nil
// rubric means the built-in default.
func loadRubric(path string) (*types.Rubric, error) {
	if path == "" {
		path = cfg.RubricPath
	}
	if path == "" {
		return nil, nil
	}
	return scoring.LoadRubric(path)
}

// newOrchestrator wires every agent onto one LLM client. The caller closes
// the returned client.
func newOrchestrator(ctx context.Context, store pipeline.Store, rubricPath string) (*pipeline.Orchestrator, llm.Client, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return nil, nil, err
	}
	rubric, err := loadRubric(rubricPath)
	if err != nil {
		return nil, nil, err
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	agents := pipeline.NewAgents(client, pipeline.AgentOptions{
		Catalog:            catalog,
		ScoringTemperature: cfg.LLM.Temperature,
		ProbeConcurrency:   cfg.Pipeline.ProbeConcurrency,
	}, logger)

	orch := pipeline.NewOrchestrator(store, agents, logger)
	if rubric != nil {
		orch.WithDefaultRubric(rubric)
	}
	return orch, client, nil
}

func printer() *observability.Printer {
	return observability.NewPrinter(stdout)
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(flag, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return id, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
