// Package summary synthesizes the parse, guardrail and scoring results into
// a hiring recommendation.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-evaluator/internal/llm"
	"github.com/jonathan/candidate-evaluator/internal/logging"
	"github.com/jonathan/candidate-evaluator/internal/prompts"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// OutputError reports a summary reply that could not be decoded.
type OutputError struct {
	Cause error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("summary output error: %v", e.Cause)
}

func (e *OutputError) Unwrap() error {
	return e.Cause
}

// Input is everything the generator reads. Job may be nil.
type Input struct {
	Candidate *types.Candidate
	Job       *types.Job
}

// Generator produces SummaryResults.
type Generator struct {
	client llm.Client
	logger *zap.Logger
}

// NewGenerator creates a generator backed by client.
func NewGenerator(client llm.Client, logger *zap.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logging.Component(logger, "summarizer"),
	}
}

// Model reports the model used for summaries.
func (g *Generator) Model() string {
	return g.client.Model(llm.TierStandard)
}

// Summarize makes one JSON call and decodes the reply. Only JSON
// well-formedness is checked; the suggested action is passed through as given.
func (g *Generator) Summarize(ctx context.Context, in Input) (*types.SummaryResult, error) {
	if in.Candidate == nil {
		return nil, errors.New("summary requires a candidate")
	}

	messages, err := BuildMessages(in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := g.client.SendJSON(ctx, llm.Request{Messages: messages, Tier: llm.TierStandard})
	if err != nil {
		return nil, fmt.Errorf("summary LLM call: %w", err)
	}
	g.logger.Debug("summary response",
		logging.Preview("response_preview", raw),
		zap.Duration("llm_duration", time.Since(start)))

	var out types.SummaryResult
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &OutputError{Cause: err}
	}
	normalize(&out)
	return &out, nil
}

// Apply stores the summary on c.
func Apply(c *types.Candidate, s *types.SummaryResult) {
	if s == nil {
		return
	}
	c.SummaryResult = s
	c.SuggestedAction = s.SuggestedAction
}

// BuildMessages renders the system and user prompts for in.
func BuildMessages(in Input) ([]llm.Message, error) {
	system, err := prompts.Get("summary.json", "system-summary")
	if err != nil {
		return nil, err
	}

	var title, requirements string
	if in.Job != nil {
		title = in.Job.Title
		requirements = in.Job.Requirements
	}

	user, err := prompts.Render("summary.json", "user-summary", map[string]string{
		"Candidate":       FormatCandidate(in.Candidate),
		"Guardrail":       toJSON(in.Candidate.GuardrailResult),
		"Scoring":         toJSON(in.Candidate.ScoringResult),
		"JobTitle":        orDefault(title, "Unknown"),
		"JobRequirements": orDefault(requirements, "Not specified"),
	})
	if err != nil {
		return nil, err
	}
	return []llm.Message{llm.System(system), llm.User(user)}, nil
}

// FormatCandidate renders the candidate facts the summary prompt shows.
func FormatCandidate(c *types.Candidate) string {
	parsed := c.ParsedData
	if parsed == nil {
		parsed = &types.ParsedResume{}
	}

	experience := "Unknown"
	if c.ExperienceYears != nil {
		experience = strconv.FormatFloat(*c.ExperienceYears, 'f', -1, 64)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.FullName())
	fmt.Fprintf(&b, "Experience: %s years\n", experience)
	fmt.Fprintf(&b, "Skills: %s\n", joinOr(c.Skills, "Not specified"))
	fmt.Fprintf(&b, "Education: %s\n", formatEducation(c.Education))
	fmt.Fprintf(&b, "Current Title: %s\n", orDefault(parsed.CurrentTitle, "Unknown"))
	fmt.Fprintf(&b, "Certifications: %s\n", joinOr(parsed.Certifications, "None"))
	fmt.Fprintf(&b, "Notable Achievements: %s\n", joinOr(parsed.NotableAchievements, "None"))
	fmt.Fprintf(&b, "Management Experience: %t\n", parsed.ManagementExperience)
	fmt.Fprintf(&b, "Career Gaps: %s", joinOr(parsed.CareerGaps, "None"))
	return b.String()
}

func formatEducation(edu []types.Education) string {
	if len(edu) == 0 {
		return "Not specified"
	}
	parts := make([]string, 0, len(edu))
	for _, e := range edu {
		s := strings.TrimSpace(e.Degree + " " + e.Field)
		if e.Institution != "" {
			s += ", " + e.Institution
		}
		if e.Year != nil {
			s += " (" + *e.Year + ")"
		}
		parts = append(parts, strings.TrimSpace(s))
	}
	return strings.Join(parts, "; ")
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func normalize(s *types.SummaryResult) {
	s.SuggestedAction = strings.TrimSpace(s.SuggestedAction)
	for _, list := range []*[]string{&s.Pros, &s.Cons, &s.RiskFactors, &s.InterviewRecommendations} {
		if *list == nil {
			*list = []string{}
		}
	}
}
