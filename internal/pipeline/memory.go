package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-evaluator/internal/types"
)

// MemoryStore is an in-process Store used by tests and database-less CLI runs.
type MemoryStore struct {
	mu         sync.RWMutex
	jobs       map[uuid.UUID]types.Job
	candidates map[uuid.UUID]types.Candidate
	probes     []types.ProbeRecord
	executions []types.AgentExecution
	now        func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:       make(map[uuid.UUID]types.Job),
		candidates: make(map[uuid.UUID]types.Candidate),
		now:        time.Now,
	}
}

// CreateJob stores job, assigning an ID when it has none.
func (s *MemoryStore) CreateJob(_ context.Context, job *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	s.jobs[job.ID] = *job
	return nil
}

// GetJob returns a copy of the job.
func (s *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return &job, nil
}

// CreateCandidate stores c with stage new unless a stage is set.
func (s *MemoryStore) CreateCandidate(_ context.Context, c *types.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Stage == "" {
		c.Stage = types.StageNew
	}
	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.candidates[c.ID] = *c
	return nil
}

// GetCandidate returns a copy of the candidate.
func (s *MemoryStore) GetCandidate(_ context.Context, id uuid.UUID) (*types.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	return &c, nil
}

// ListCandidates returns matching candidates ordered by creation time.
func (s *MemoryStore) ListCandidates(_ context.Context, filter CandidateFilter) ([]*types.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Candidate
	for _, c := range s.candidates {
		if filter.JobID != uuid.Nil && c.JobID != filter.JobID {
			continue
		}
		if filter.Stage != "" && c.Stage != filter.Stage {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SaveCandidate copies the named field groups from c onto the stored record.
func (s *MemoryStore) SaveCandidate(_ context.Context, c *types.Candidate, fields ...Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.candidates[c.ID]
	if !ok {
		return fmt.Errorf("candidate %s: %w", c.ID, ErrNotFound)
	}
	for _, f := range fields {
		switch f {
		case FieldStage:
			stored.Stage = c.Stage
		case FieldIdentity:
			stored.FirstName, stored.LastName = c.FirstName, c.LastName
			stored.Email, stored.Phone = c.Email, c.Phone
		case FieldParsed:
			stored.ParsedData = c.ParsedData
			stored.Skills = c.Skills
			stored.ExperienceYears = c.ExperienceYears
			stored.Education = c.Education
			stored.Age = c.Age
		case FieldRedacted:
			stored.ResumeRedacted = c.ResumeRedacted
		case FieldGuardrail:
			stored.GuardrailResult = c.GuardrailResult
			stored.GuardrailPassed = c.GuardrailPassed
		case FieldScoring:
			stored.ScoringResult = c.ScoringResult
			stored.OverallScore = c.OverallScore
			stored.Confidence = c.Confidence
		case FieldSummary:
			stored.SummaryResult = c.SummaryResult
			stored.SuggestedAction = c.SuggestedAction
		case FieldAudit:
			stored.BiasAuditResult = c.BiasAuditResult
			stored.BiasFlags = c.BiasFlags
		default:
			return fmt.Errorf("unknown candidate field %q", f)
		}
	}
	stored.UpdatedAt = s.now().UTC()
	s.candidates[c.ID] = stored
	return nil
}

// UpdateStage sets the candidate's stage.
func (s *MemoryStore) UpdateStage(_ context.Context, id uuid.UUID, stage types.Stage) error {
	return s.setStage(id, stage)
}

// OverrideStage sets the candidate's stage unconditionally.
func (s *MemoryStore) OverrideStage(_ context.Context, id uuid.UUID, stage types.Stage) error {
	return s.setStage(id, stage)
}

func (s *MemoryStore) setStage(id uuid.UUID, stage types.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrValidation, stage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	c.Stage = stage
	c.UpdatedAt = s.now().UTC()
	s.candidates[id] = c
	return nil
}

// AppendProbes appends records, rejecting ids already stored or repeated
// within the batch. A rejected batch stores nothing.
func (s *MemoryStore) AppendProbes(_ context.Context, probes []types.ProbeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(s.probes)+len(probes))
	for _, p := range s.probes {
		seen[p.ID] = true
	}
	for _, p := range probes {
		if seen[p.ID] {
			return fmt.Errorf("probe %s already recorded", p.ID)
		}
		seen[p.ID] = true
	}
	s.probes = append(s.probes, probes...)
	return nil
}

// ListProbes returns matching probes in insertion order.
func (s *MemoryStore) ListProbes(_ context.Context, filter ProbeFilter) ([]types.ProbeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.ProbeRecord
	for _, p := range s.probes {
		if filter.CandidateID != uuid.Nil && p.CandidateID != filter.CandidateID {
			continue
		}
		if filter.AuditRunID != uuid.Nil && p.AuditRunID != filter.AuditRunID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// StartExecution records a running execution, filling ID and StartedAt.
func (s *MemoryStore) StartExecution(_ context.Context, exec *types.AgentExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exec.ID == uuid.Nil {
		exec.ID = uuid.New()
	}
	if exec.StartedAt.IsZero() {
		exec.StartedAt = s.now().UTC()
	}
	if exec.Status == "" {
		exec.Status = types.ExecutionRunning
	}
	s.executions = append(s.executions, *exec)
	return nil
}

// FinishExecution replaces the stored execution with exec.
func (s *MemoryStore) FinishExecution(_ context.Context, exec *types.AgentExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.executions {
		if s.executions[i].ID == exec.ID {
			s.executions[i] = *exec
			return nil
		}
	}
	return fmt.Errorf("execution %s: %w", exec.ID, ErrNotFound)
}

// ListExecutions returns matching executions in start order.
func (s *MemoryStore) ListExecutions(_ context.Context, filter ExecutionFilter) ([]types.AgentExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.AgentExecution
	for _, e := range s.executions {
		if filter.CandidateID != uuid.Nil && e.CandidateID != filter.CandidateID {
			continue
		}
		if filter.AgentType != "" && e.AgentType != filter.AgentType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
