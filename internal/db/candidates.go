package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// -----------------------------------------------------------------------------
// Job Positions
// -----------------------------------------------------------------------------

// CreateJob inserts a job position, assigning an ID when it has none.
func (db *DB) CreateJob(ctx context.Context, job *types.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	rubricJSON, err := toJSONB(job.Rubric)
	if err != nil {
		return fmt.Errorf("failed to marshal rubric: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO job_positions (id, title, requirements, min_experience_years, rubric)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.Title, job.Requirements, job.MinExperienceYears, rubricJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job position by ID.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	var job types.Job
	var rubricJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, requirements, min_experience_years, rubric
		 FROM job_positions WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.Title, &job.Requirements, &job.MinExperienceYears, &rubricJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, pipeline.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if len(rubricJSON) > 0 {
		job.Rubric = &types.Rubric{}
		if err := fromJSONB(rubricJSON, job.Rubric); err != nil {
			return nil, fmt.Errorf("failed to decode rubric: %w", err)
		}
	}
	return &job, nil
}

// -----------------------------------------------------------------------------
// Candidates
// -----------------------------------------------------------------------------

const candidateColumns = `id, job_id, first_name, last_name, email, phone, stage,
	resume_text, resume_redacted, parsed_data, skills, experience_years, education, age,
	guardrail_result, guardrail_passed, scoring_result, overall_score, confidence,
	summary_result, suggested_action, bias_audit_result, bias_flags, created_at, updated_at`

// CreateCandidate inserts a candidate in stage new unless a stage is set.
func (db *DB) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Stage == "" {
		c.Stage = types.StageNew
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (id, job_id, first_name, last_name, email, phone, stage, resume_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		c.ID, c.JobID, c.FirstName, c.LastName, c.Email, c.Phone, string(c.Stage), c.ResumeText,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// GetCandidate retrieves a candidate by ID.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("candidate %s: %w", id, pipeline.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns candidates matching filter, oldest first.
func (db *DB) ListCandidates(ctx context.Context, filter pipeline.CandidateFilter) ([]*types.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates`
	var conds []string
	var args []any
	if filter.JobID != uuid.Nil {
		args = append(args, filter.JobID)
		conds = append(conds, fmt.Sprintf("job_id = $%d", len(args)))
	}
	if filter.Stage != "" {
		args = append(args, string(filter.Stage))
		conds = append(conds, fmt.Sprintf("stage = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var out []*types.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCandidate updates only the columns of the named field groups.
func (db *DB) SaveCandidate(ctx context.Context, c *types.Candidate, fields ...pipeline.Field) error {
	sets, args, err := updateColumns(c, fields)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, c.ID)
	query := fmt.Sprintf(`UPDATE candidates SET %s, updated_at = NOW() WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", c.ID, pipeline.ErrNotFound)
	}
	return nil
}

// UpdateStage sets the candidate's pipeline stage.
func (db *DB) UpdateStage(ctx context.Context, id uuid.UUID, stage types.Stage) error {
	return db.setStage(ctx, id, stage)
}

// OverrideStage sets the stage on behalf of a human reviewer.
func (db *DB) OverrideStage(ctx context.Context, id uuid.UUID, stage types.Stage) error {
	return db.setStage(ctx, id, stage)
}

func (db *DB) setStage(ctx context.Context, id uuid.UUID, stage types.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", pipeline.ErrValidation, stage)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE candidates SET stage = $2, updated_at = NOW() WHERE id = $1`,
		id, string(stage),
	)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", id, pipeline.ErrNotFound)
	}
	return nil
}

// updateColumns maps field groups to "column = $n" fragments and their args.
func updateColumns(c *types.Candidate, fields []pipeline.Field) ([]string, []any, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addJSON := func(column string, value any) error {
		data, err := toJSONB(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", column, err)
		}
		add(column, data)
		return nil
	}

	for _, f := range fields {
		var err error
		switch f {
		case pipeline.FieldStage:
			add("stage", string(c.Stage))
		case pipeline.FieldIdentity:
			add("first_name", c.FirstName)
			add("last_name", c.LastName)
			add("email", c.Email)
			add("phone", c.Phone)
		case pipeline.FieldParsed:
			if err = addJSON("parsed_data", c.ParsedData); err == nil {
				err = addJSON("skills", nonNil(c.Skills))
			}
			add("experience_years", c.ExperienceYears)
			if err == nil {
				err = addJSON("education", nonNilEducation(c.Education))
			}
			add("age", c.Age)
		case pipeline.FieldRedacted:
			add("resume_redacted", c.ResumeRedacted)
		case pipeline.FieldGuardrail:
			err = addJSON("guardrail_result", c.GuardrailResult)
			add("guardrail_passed", c.GuardrailPassed)
		case pipeline.FieldScoring:
			err = addJSON("scoring_result", c.ScoringResult)
			add("overall_score", c.OverallScore)
			add("confidence", c.Confidence)
		case pipeline.FieldSummary:
			err = addJSON("summary_result", c.SummaryResult)
			add("suggested_action", c.SuggestedAction)
		case pipeline.FieldAudit:
			if err = addJSON("bias_audit_result", c.BiasAuditResult); err == nil {
				err = addJSON("bias_flags", nonNil(c.BiasFlags))
			}
		default:
			err = fmt.Errorf("unknown candidate field %q", f)
		}
		if err != nil {
			return nil, nil, err
		}
	}
	return sets, args, nil
}

func scanCandidate(row pgx.Row) (*types.Candidate, error) {
	var c types.Candidate
	var stage string
	var parsedJSON, skillsJSON, educationJSON, guardrailJSON, scoringJSON, summaryJSON, auditJSON, flagsJSON []byte

	err := row.Scan(
		&c.ID, &c.JobID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &stage,
		&c.ResumeText, &c.ResumeRedacted, &parsedJSON, &skillsJSON, &c.ExperienceYears, &educationJSON, &c.Age,
		&guardrailJSON, &c.GuardrailPassed, &scoringJSON, &c.OverallScore, &c.Confidence,
		&summaryJSON, &c.SuggestedAction, &auditJSON, &flagsJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Stage = types.Stage(stage)

	decoders := []struct {
		data []byte
		dst  any
	}{
		{skillsJSON, &c.Skills},
		{educationJSON, &c.Education},
		{flagsJSON, &c.BiasFlags},
	}
	for _, d := range decoders {
		if err := fromJSONB(d.data, d.dst); err != nil {
			return nil, fmt.Errorf("failed to decode candidate %s: %w", c.ID, err)
		}
	}

	if len(parsedJSON) > 0 {
		c.ParsedData = &types.ParsedResume{}
		if err := fromJSONB(parsedJSON, c.ParsedData); err != nil {
			return nil, fmt.Errorf("failed to decode parsed_data: %w", err)
		}
	}
	if len(guardrailJSON) > 0 {
		c.GuardrailResult = &types.GuardrailResult{}
		if err := fromJSONB(guardrailJSON, c.GuardrailResult); err != nil {
			return nil, fmt.Errorf("failed to decode guardrail_result: %w", err)
		}
	}
	if len(scoringJSON) > 0 {
		c.ScoringResult = &types.ScoringResult{}
		if err := fromJSONB(scoringJSON, c.ScoringResult); err != nil {
			return nil, fmt.Errorf("failed to decode scoring_result: %w", err)
		}
	}
	if len(summaryJSON) > 0 {
		c.SummaryResult = &types.SummaryResult{}
		if err := fromJSONB(summaryJSON, c.SummaryResult); err != nil {
			return nil, fmt.Errorf("failed to decode summary_result: %w", err)
		}
	}
	if len(auditJSON) > 0 {
		c.BiasAuditResult = &types.AuditResult{}
		if err := fromJSONB(auditJSON, c.BiasAuditResult); err != nil {
			return nil, fmt.Errorf("failed to decode bias_audit_result: %w", err)
		}
	}
	return &c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilEducation(e []types.Education) []types.Education {
	if e == nil {
		return []types.Education{}
	}
	return e
}
