package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Candidate is the evaluation record for one applicant to one job.
// Each field group is written by exactly one pipeline stage.
type Candidate struct {
	ID    uuid.UUID `json:"id"`
	JobID uuid.UUID `json:"job_id"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Stage     Stage  `json:"stage"`

	ResumeText     string `json:"resume_text"`
	ResumeRedacted string `json:"resume_redacted"`

	ParsedData      *ParsedResume `json:"parsed_data,omitempty"`
	Skills          []string      `json:"skills"`
	ExperienceYears *float64      `json:"experience_years,omitempty"`
	Education       []Education   `json:"education"`
	Age             *int          `json:"age,omitempty"`

	GuardrailResult *GuardrailResult `json:"guardrail_result,omitempty"`
	GuardrailPassed *bool            `json:"guardrail_passed,omitempty"`

	ScoringResult *ScoringResult `json:"scoring_result,omitempty"`
	OverallScore  *float64       `json:"overall_score,omitempty"`
	Confidence    *float64       `json:"confidence,omitempty"`

	SummaryResult   *SummaryResult `json:"summary_result,omitempty"`
	SuggestedAction string         `json:"suggested_action,omitempty"`

	BiasAuditResult *AuditResult `json:"bias_audit_result,omitempty"`
	BiasFlags       []string     `json:"bias_flags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the display name, or "Unknown" when no name is known.
func (c *Candidate) FullName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return "Unknown"
	}
	return name
}

// Job is the subset of a job position the pipeline reads.
type Job struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Requirements       string    `json:"requirements"`
	MinExperienceYears int       `json:"min_experience_years"`
	Rubric             *Rubric   `json:"rubric,omitempty"`
}
