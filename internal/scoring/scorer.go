package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-evaluator/internal/llm"
	"github.com/jonathan/candidate-evaluator/internal/logging"
	"github.com/jonathan/candidate-evaluator/internal/prompts"
	"github.com/jonathan/candidate-evaluator/internal/schemas"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// outputSchema is the shape accepted from the model. Components may be
// numbers or numeric strings; absent components score 0.
const outputSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"components": {
			"type": "object",
			"additionalProperties": {"type": ["number", "string", "null"]}
		},
		"notes": {"type": ["object", "null"]}
	}
}`

// ErrEmptyText is returned when there is no text to score.
var ErrEmptyText = errors.New("no resume text available for scoring")

// OutputError reports a scorer reply that is JSON but not a usable score.
type OutputError struct {
	Message string
	Cause   error
}

func (e *OutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scorer output error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("scorer output error: %s", e.Message)
}

func (e *OutputError) Unwrap() error {
	return e.Cause
}

// Scorer scores texts against a rubric.
type Scorer struct {
	client      llm.Client
	logger      *zap.Logger
	temperature float32
}

// NewScorer creates a scorer using the JSON sampling temperature.
func NewScorer(client llm.Client, logger *zap.Logger) *Scorer {
	return &Scorer{
		client:      client,
		logger:      logging.Component(logger, "scorer"),
		temperature: llm.JSONTemperature,
	}
}

// WithTemperature overrides the sampling temperature. Non-positive values
// keep the current setting.
func (s *Scorer) WithTemperature(t float32) *Scorer {
	if t > 0 {
		s.temperature = t
	}
	return s
}

// Model reports the model used for scoring.
func (s *Scorer) Model() string {
	return s.client.Model(llm.TierStandard)
}

// Score asks the model for per-component evidence values and derives the
// composite score and confidence. text must already be sanitized.
func (s *Scorer) Score(ctx context.Context, text, jobRequirements string, rubric *types.Rubric) (*types.ScoringResult, error) {
	if rubric == nil {
		rubric = DefaultRubric()
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	messages, err := BuildMessages(text, jobRequirements, rubric)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.client.SendJSON(ctx, llm.Request{
		Messages:    messages,
		Temperature: s.temperature,
		Tier:        llm.TierStandard,
	})
	if err != nil {
		return nil, fmt.Errorf("scorer LLM call: %w", err)
	}
	s.logger.Debug("scorer response",
		logging.Preview("response_preview", raw),
		zap.Duration("llm_duration", time.Since(start)))

	result, err := ParseResponse(raw, rubric)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ParseResponse turns a scorer JSON object into a ScoringResult. Components
// outside the rubric are dropped; the rest are clamped to [0,1].
func ParseResponse(raw string, rubric *types.Rubric) (*types.ScoringResult, error) {
	if err := schemas.ValidateJSONString(outputSchema, raw); err != nil {
		return nil, &OutputError{Message: "reply does not match scorer output shape", Cause: err}
	}

	var out struct {
		Components map[string]any     `json:"components"`
		Notes      *types.ScoringNotes `json:"notes"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &OutputError{Message: "failed to decode scorer reply", Cause: err}
	}

	components := make(map[string]float64, len(rubric.Weights))
	for k := range rubric.Weights {
		v, ok := out.Components[k]
		if !ok || v == nil {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, &OutputError{Message: fmt.Sprintf("component %s", k), Cause: err}
		}
		components[k] = clamp01(f)
	}

	result := &types.ScoringResult{
		Score:      Combine(components, rubric.Weights),
		Confidence: Confidence(components),
		Components: components,
		ModelRaw:   raw,
	}
	if out.Notes != nil {
		result.Notes = *out.Notes
	}
	return result, nil
}

// BuildMessages renders the system and user messages for one scoring call.
// The rubric is sent with an embedded JSON Schema for the expected reply.
func BuildMessages(text, jobRequirements string, rubric *types.Rubric) ([]llm.Message, error) {
	rubricJSON, err := rubricWithSchema(rubric)
	if err != nil {
		return nil, err
	}

	user, err := prompts.Render("scoring.json", "user-scorer-task", map[string]string{
		"Rubric":          rubricJSON,
		"JobRequirements": jobRequirements,
		"ResumeText":      text,
	})
	if err != nil {
		return nil, err
	}

	return []llm.Message{
		llm.System(prompts.MustGet("scoring.json", "system-scorer")),
		llm.User(user),
	}, nil
}

// ResponseSchema is the JSON Schema the model is asked to follow.
func ResponseSchema(rubric *types.Rubric) map[string]any {
	names := rubric.ComponentNames()
	sort.Strings(names)

	props := make(map[string]any, len(names))
	for _, n := range names {
		props[n] = map[string]any{"type": "number", "minimum": 0, "maximum": 1}
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"components", "notes"},
		"properties": map[string]any{
			"components": map[string]any{
				"type":       "object",
				"required":   names,
				"properties": props,
			},
			"notes": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"found_gpa":             map[string]any{"type": "string"},
					"accommodation_present": map[string]any{"type": "boolean"},
					"visa_mention":          map[string]any{"type": "boolean"},
				},
			},
		},
	}
}

func rubricWithSchema(rubric *types.Rubric) (string, error) {
	doc := map[string]any{
		"weights":  rubric.Weights,
		"anchors":  rubric.Anchors,
		"policies": rubric.Policies,
		"schema":   ResponseSchema(rubric),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode rubric: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
