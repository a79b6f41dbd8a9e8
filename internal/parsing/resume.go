// Package parsing turns raw resume text into a structured ParsedResume with a
// single LLM extraction call.
package parsing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-evaluator/internal/llm"
	"github.com/jonathan/candidate-evaluator/internal/logging"
	"github.com/jonathan/candidate-evaluator/internal/prompts"
	"github.com/jonathan/candidate-evaluator/internal/schemas"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// Parser extracts structured candidate data from resumes.
type Parser struct {
	client llm.Client
	logger *zap.Logger
}

// NewParser creates a parser backed by client.
func NewParser(client llm.Client, logger *zap.Logger) *Parser {
	return &Parser{
		client: client,
		logger: logging.Component(logger, "parser"),
	}
}

// Parse extracts a ParsedResume from resumeText. Blank text is rejected with a
// *ValidationError before any LLM call. Output that is not a JSON object
// matching the resume schema yields an *ExtractionError.
func (p *Parser) Parse(ctx context.Context, resumeText string) (*types.ParsedResume, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, &ValidationError{Field: "resume_text", Message: "no resume text available for parsing"}
	}

	messages, err := buildMessages(resumeText)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := p.client.SendJSON(ctx, llm.Request{Messages: messages, Tier: llm.TierStandard})
	if err != nil {
		if errors.Is(err, llm.ErrNoJSONFound) {
			return nil, &ExtractionError{Message: "no JSON object in parser response", Cause: err}
		}
		return nil, fmt.Errorf("resume parser LLM call: %w", err)
	}
	p.logger.Debug("parser response",
		logging.Preview("response_preview", raw),
		zap.Duration("llm_duration", time.Since(start)))

	parsed, err := parseResumeJSON(raw)
	if err != nil {
		return nil, err
	}
	postProcess(parsed)

	return parsed, nil
}

// Model reports the model used for parsing.
func (p *Parser) Model() string {
	return p.client.Model(llm.TierStandard)
}

func buildMessages(resumeText string) ([]llm.Message, error) {
	user, err := prompts.Render("parsing.json", "user-parse-resume", map[string]string{
		"ResumeText": resumeText,
	})
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		llm.System(llm.BuildExtractionPrompt(llm.ResumeSchema())),
		llm.User(user),
	}, nil
}

// parseResumeJSON validates raw against the resume schema and decodes it.
func parseResumeJSON(raw string) (*types.ParsedResume, error) {
	if err := schemas.Validate(schemas.Resume, raw); err != nil {
		return nil, &ExtractionError{Message: "parser output does not match resume schema", Cause: err}
	}

	var parsed types.ParsedResume
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &ExtractionError{Message: "failed to decode parser output", Cause: err}
	}
	return &parsed, nil
}

func postProcess(p *types.ParsedResume) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.CurrentTitle = strings.TrimSpace(p.CurrentTitle)

	p.Skills = NormalizeSkills(p.Skills)
	p.Certifications = cleanList(p.Certifications)
	p.Languages = cleanList(p.Languages)
	p.CareerGaps = cleanList(p.CareerGaps)
	p.NotableAchievements = cleanList(p.NotableAchievements)

	if p.Education == nil {
		p.Education = []types.Education{}
	}
	if p.WorkExperience == nil {
		p.WorkExperience = []types.WorkExperience{}
	}
}

// ApplyIdentity copies name and contact fields from parsed onto c, but only
// where the parse produced a non-empty value.
func ApplyIdentity(c *types.Candidate, parsed *types.ParsedResume) {
	if parsed == nil {
		return
	}
	if parsed.FirstName != "" {
		c.FirstName = parsed.FirstName
	}
	if parsed.LastName != "" {
		c.LastName = parsed.LastName
	}
	if parsed.Email != "" {
		c.Email = parsed.Email
	}
	if parsed.Phone != "" {
		c.Phone = parsed.Phone
	}
}

// Apply stores the parse on c: identity via ApplyIdentity, plus the derived
// facts later stages read.
func Apply(c *types.Candidate, parsed *types.ParsedResume) {
	if parsed == nil {
		return
	}
	ApplyIdentity(c, parsed)
	c.ParsedData = parsed
	c.Skills = parsed.Skills
	c.ExperienceYears = parsed.ExperienceYears
	c.Education = parsed.Education
	c.Age = parsed.Age
}
