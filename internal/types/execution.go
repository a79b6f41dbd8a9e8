package types

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the lifecycle status of one agent invocation.
type ExecutionStatus string

// Execution statuses.
const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// AgentExecution is the execution-log row written for every component invocation.
type AgentExecution struct {
	ID              uuid.UUID       `json:"id"`
	CandidateID     uuid.UUID       `json:"candidate_id"`
	AgentType       string          `json:"agent_type"`
	Status          ExecutionStatus `json:"status"`
	InputData       map[string]any  `json:"input_data,omitempty"`
	OutputData      any             `json:"output_data,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	DurationSeconds float64         `json:"duration_seconds"`
	Model           string          `json:"llm_model,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}
