package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-evaluator/internal/types"
)

var (
	// ErrNotFound is returned when a candidate or job does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input problems that retrying cannot fix.
	ErrValidation = errors.New("validation failed")
)

// Field names a group of candidate columns written together by one stage.
type Field string

// Candidate field groups.
const (
	FieldStage     Field = "stage"
	FieldIdentity  Field = "identity"   // first/last name, email, phone
	FieldParsed    Field = "parsed"     // parsed_data, skills, experience_years, education, age
	FieldRedacted  Field = "redacted"   // resume_redacted
	FieldGuardrail Field = "guardrail"  // guardrail_result, guardrail_passed
	FieldScoring   Field = "scoring"    // scoring_result, overall_score, confidence
	FieldSummary   Field = "summary"    // summary_result, suggested_action
	FieldAudit     Field = "bias_audit" // bias_audit_result, bias_flags
)

// CandidateFilter selects candidates. Zero values match everything.
type CandidateFilter struct {
	JobID uuid.UUID
	Stage types.Stage
}

// ProbeFilter selects probe records. Zero values match everything.
type ProbeFilter struct {
	CandidateID uuid.UUID
	AuditRunID  uuid.UUID
}

// ExecutionFilter selects execution-log rows. Zero values match everything.
type ExecutionFilter struct {
	CandidateID uuid.UUID
	AgentType   string
}

// Store persists candidates, jobs, probe records and the execution log.
// Implementations must return errors wrapping ErrNotFound for unknown ids.
type Store interface {
	CreateJob(ctx context.Context, job *types.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)

	CreateCandidate(ctx context.Context, c *types.Candidate) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error)
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*types.Candidate, error)
	// SaveCandidate writes only the named field groups of c.
	SaveCandidate(ctx context.Context, c *types.Candidate, fields ...Field) error
	// UpdateStage sets the pipeline stage. Callers are responsible for monotonic advance.
	UpdateStage(ctx context.Context, id uuid.UUID, stage types.Stage) error
	// OverrideStage is the human path and may move a candidate backwards.
	OverrideStage(ctx context.Context, id uuid.UUID, stage types.Stage) error

	// AppendProbes inserts probe records. Existing records are never modified.
	AppendProbes(ctx context.Context, probes []types.ProbeRecord) error
	ListProbes(ctx context.Context, filter ProbeFilter) ([]types.ProbeRecord, error)

	StartExecution(ctx context.Context, exec *types.AgentExecution) error
	FinishExecution(ctx context.Context, exec *types.AgentExecution) error
	ListExecutions(ctx context.Context, filter ExecutionFilter) ([]types.AgentExecution, error)
}
