package types

// Guardrail check names.
const (
	CheckExperience = "experience_check"
	CheckAge        = "age_check"
	CheckSkills     = "skills_check"
	CheckEducation  = "education_check"
)

// CheckResult is the outcome of one deterministic guardrail check.
type CheckResult struct {
	Pass   bool   `json:"pass"`
	Reason string `json:"reason"`
}

// GuardrailOverall aggregates all checks.
type GuardrailOverall struct {
	Pass         bool `json:"pass"`
	ChecksPassed int  `json:"checks_passed"`
	TotalChecks  int  `json:"total_checks"`
}

// GuardrailResult holds every check keyed by name plus the aggregate.
type GuardrailResult struct {
	Checks  map[string]CheckResult `json:"checks"`
	Overall GuardrailOverall       `json:"overall"`
}
