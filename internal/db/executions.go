package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// -----------------------------------------------------------------------------
// Agent Execution Log
// -----------------------------------------------------------------------------

// StartExecution inserts a running execution row, filling ID and StartedAt.
func (db *DB) StartExecution(ctx context.Context, exec *types.AgentExecution) error {
	if exec.ID == uuid.Nil {
		exec.ID = uuid.New()
	}
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now().UTC()
	}
	if exec.Status == "" {
		exec.Status = types.ExecutionRunning
	}

	inputJSON, err := toJSONB(exec.InputData)
	if err != nil {
		return fmt.Errorf("failed to marshal input data: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO agent_executions (id, candidate_id, agent_type, status, input_data, llm_model, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		exec.ID, exec.CandidateID, exec.AgentType, string(exec.Status), inputJSON, exec.Model, exec.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to start execution: %w", err)
	}
	return nil
}

// FinishExecution records the final status, output, error and duration.
func (db *DB) FinishExecution(ctx context.Context, exec *types.AgentExecution) error {
	outputJSON, err := toJSONB(exec.OutputData)
	if err != nil {
		return fmt.Errorf("failed to marshal output data: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE agent_executions
		 SET status = $2, output_data = $3, error_message = $4, duration_seconds = $5,
		     llm_model = $6, completed_at = $7
		 WHERE id = $1`,
		exec.ID, string(exec.Status), outputJSON, exec.ErrorMessage, exec.DurationSeconds,
		exec.Model, exec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finish execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("execution %s: %w", exec.ID, pipeline.ErrNotFound)
	}
	return nil
}

// ListExecutions returns matching rows in start order.
func (db *DB) ListExecutions(ctx context.Context, filter pipeline.ExecutionFilter) ([]types.AgentExecution, error) {
	query := `SELECT id, candidate_id, agent_type, status, input_data, output_data, error_message,
	                 duration_seconds, llm_model, started_at, completed_at
	          FROM agent_executions`
	var conds []string
	var args []any
	if filter.CandidateID != uuid.Nil {
		args = append(args, filter.CandidateID)
		conds = append(conds, fmt.Sprintf("candidate_id = $%d", len(args)))
	}
	if filter.AgentType != "" {
		args = append(args, filter.AgentType)
		conds = append(conds, fmt.Sprintf("agent_type = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY started_at, id"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var out []types.AgentExecution
	for rows.Next() {
		var e types.AgentExecution
		var status string
		var inputJSON, outputJSON []byte
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.AgentType, &status, &inputJSON, &outputJSON,
			&e.ErrorMessage, &e.DurationSeconds, &e.Model, &e.StartedAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		e.Status = types.ExecutionStatus(status)
		if err := fromJSONB(inputJSON, &e.InputData); err != nil {
			return nil, fmt.Errorf("failed to decode input data: %w", err)
		}
		if err := fromJSONB(outputJSON, &e.OutputData); err != nil {
			return nil, fmt.Errorf("failed to decode output data: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
