// Package guardrail runs the deterministic policy checks applied to every
// parsed candidate. No check calls a model.
package guardrail

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/candidate-evaluator/internal/parsing"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// MinWorkingAge is the legal working age enforced by CheckAge.
const MinWorkingAge = 18

// MinSkillMatchRatio is the smallest passing share of required skills.
const MinSkillMatchRatio = 0.20

// Facts are the parsed candidate attributes the checks read.
type Facts struct {
	ExperienceYears *float64
	Age             *int
	Skills          []string
	Education       []types.Education
}

// FactsFrom extracts Facts from a candidate record.
func FactsFrom(c *types.Candidate) Facts {
	return Facts{
		ExperienceYears: c.ExperienceYears,
		Age:             c.Age,
		Skills:          c.Skills,
		Education:       c.Education,
	}
}

// CheckExperience fails when experience is unknown or below min years.
func CheckExperience(years *float64, min int) types.CheckResult {
	if years == nil {
		return types.CheckResult{Pass: false, Reason: "Experience years not available in resume"}
	}
	y := formatYears(*years)
	if *years < float64(min) {
		return types.CheckResult{
			Pass:   false,
			Reason: fmt.Sprintf("Candidate has %s years of experience, below minimum of %d years required", y, min),
		}
	}
	return types.CheckResult{
		Pass:   true,
		Reason: fmt.Sprintf("Candidate has %s years of experience, meets minimum of %d years", y, min),
	}
}

// CheckAge fails only when age is known and below MinWorkingAge.
func CheckAge(age *int) types.CheckResult {
	if age == nil {
		return types.CheckResult{Pass: true, Reason: "Age not specified, no age-based restriction applied"}
	}
	if *age < MinWorkingAge {
		return types.CheckResult{
			Pass:   false,
			Reason: fmt.Sprintf("Candidate age (%d) is below legal working age of %d", *age, MinWorkingAge),
		}
	}
	return types.CheckResult{
		Pass:   true,
		Reason: fmt.Sprintf("Candidate age (%d) meets legal working age requirement", *age),
	}
}

// CheckSkills compares skill sets after mapping both sides to canonical
// names, so "k8s" on a job matches "Kubernetes" on a parsed resume. It fails
// when fewer than MinSkillMatchRatio of the distinct required skills are
// present; an empty requirement list passes.
func CheckSkills(skills, required []string) types.CheckResult {
	req := skillSet(required)
	if len(req) == 0 {
		return types.CheckResult{Pass: true, Reason: "No specific skill requirements defined"}
	}

	have := skillSet(skills)
	var matched []string
	for s := range req {
		if have[s] {
			matched = append(matched, s)
		}
	}
	sort.Strings(matched)

	ratio := float64(len(matched)) / float64(len(req))
	list := "None"
	if len(matched) > 0 {
		list = strings.Join(matched, ", ")
	}
	summary := fmt.Sprintf("%d/%d required skills matched (%.0f%%). Matched: %s", len(matched), len(req), ratio*100, list)

	if ratio < MinSkillMatchRatio {
		return types.CheckResult{Pass: false, Reason: "Only " + summary}
	}
	return types.CheckResult{Pass: true, Reason: summary}
}

// CheckEducation is advisory: it records how many entries exist and never fails.
func CheckEducation(entries []types.Education) types.CheckResult {
	if len(entries) == 0 {
		return types.CheckResult{Pass: true, Reason: "No education data to validate"}
	}
	return types.CheckResult{Pass: true, Reason: fmt.Sprintf("%d education entries found", len(entries))}
}

// Evaluate runs all four checks against job. Overall passes only when every
// check passes.
func Evaluate(f Facts, job *types.Job) types.GuardrailResult {
	minYears := 0
	var requirements string
	if job != nil {
		minYears = job.MinExperienceYears
		requirements = job.Requirements
	}

	checks := map[string]types.CheckResult{
		types.CheckExperience: CheckExperience(f.ExperienceYears, minYears),
		types.CheckAge:        CheckAge(f.Age),
		types.CheckSkills:     CheckSkills(f.Skills, SplitRequirements(requirements)),
		types.CheckEducation:  CheckEducation(f.Education),
	}

	passed := 0
	for _, c := range checks {
		if c.Pass {
			passed++
		}
	}

	return types.GuardrailResult{
		Checks: checks,
		Overall: types.GuardrailOverall{
			Pass:         passed == len(checks),
			ChecksPassed: passed,
			TotalChecks:  len(checks),
		},
	}
}

// SplitRequirements splits comma-separated job requirements into trimmed,
// non-empty keywords.
func SplitRequirements(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// skillSet keys skills by their lower-cased canonical name.
func skillSet(in []string) map[string]bool {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		if s = strings.ToLower(parsing.NormalizeSkillName(s)); s != "" {
			set[s] = true
		}
	}
	return set
}

func formatYears(y float64) string {
	return strconv.FormatFloat(y, 'f', -1, 64)
}
