package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/candidate-evaluator/internal/analytics"
	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintParsedResume(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	years := 7.0
	p.PrintParsedResume(&types.ParsedResume{
		FirstName:       "Emily",
		LastName:        "Chen",
		CurrentTitle:    "Staff ML Engineer",
		ExperienceYears: &years,
		Skills:          []string{"Python", "Go"},
		Education:       []types.Education{{Degree: "B.S.", Institution: "Stanford University"}},
		CareerGaps:      []string{"2019 sabbatical"},
	})
	output := buf.String()

	assert.Contains(t, output, "PARSED RESUME")
	assert.Contains(t, output, "Emily Chen")
	assert.Contains(t, output, "7 years")
	assert.Contains(t, output, "Python, Go")
	assert.Contains(t, output, "B.S. Stanford University")
	assert.Contains(t, output, "2019 sabbatical")
}

func TestPrintParsedResume_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintParsedResume(nil)
	p.PrintGuardrail(nil)
	p.PrintScoring(nil)
	p.PrintSummary(nil)
	p.PrintAudit(nil)
	p.PrintRunResult(nil)
	p.PrintDashboard(nil)

	assert.Empty(t, buf.String())
}

func TestPrintGuardrail(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGuardrail(&types.GuardrailResult{
		Checks: map[string]types.CheckResult{
			types.CheckExperience: {Pass: false, Reason: "below minimum"},
			types.CheckAge:        {Pass: true, Reason: "Age not specified"},
		},
		Overall: types.GuardrailOverall{Pass: false, ChecksPassed: 1, TotalChecks: 2},
	})
	output := buf.String()

	assert.Contains(t, output, "GUARDRAIL CHECKS")
	assert.Contains(t, output, "✗ 1/2 checks passed")
	assert.Contains(t, output, "✓ age_check")
	assert.Contains(t, output, "✗ experience_check")
	assert.Less(t, strings.Index(output, "age_check"), strings.Index(output, "experience_check"))
}

func TestPrintScoring(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScoring(&types.ScoringResult{
		Score:      0.7125,
		Confidence: 0.8,
		Components: map[string]float64{"education_gpa": 0.4, "experience_ic": 0.9},
	})
	output := buf.String()

	assert.Contains(t, output, "RUBRIC SCORE")
	assert.Contains(t, output, "0.713")
	assert.Contains(t, output, "0.800")
	assert.Less(t, strings.Index(output, "experience_ic"), strings.Index(output, "education_gpa"), "highest component first")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSummary(&types.SummaryResult{
		SuggestedAction: types.ActionAccept,
		Pros:            []string{"a", "b", "c", "d"},
		Cons:            []string{"limited management"},
	})
	output := buf.String()

	assert.Contains(t, output, "SUMMARY")
	assert.Contains(t, output, "Action:   Accept")
	assert.Contains(t, output, "... and 1 more")
	assert.Contains(t, output, "limited management")
	assert.NotContains(t, output, "Risk factors")
}

func TestPrintAudit(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAudit(&types.AuditResult{
		PIIScan:       types.PIIScan{Count: 2},
		TotalProbes:   4,
		FlaggedProbes: 1,
		OverallRisk:   types.RiskMedium,
		Probes: []types.ProbeRecord{
			{Scenario: "baseline"},
			{Scenario: "nameSwap:John->Jamal", Delta: -0.2, Flagged: true, Explanation: "Score 0.500"},
			{Scenario: "adversarial", Delta: 0.01},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "BIAS AUDIT")
	assert.Contains(t, output, "MEDIUM")
	assert.Contains(t, output, "4 (1 flagged, 0 failed)")
	assert.Contains(t, output, "⚠ nameSwap:John->Jamal")
	assert.Contains(t, output, "-0.200")
	assert.NotContains(t, output, "⚠ adversarial")
}

func TestPrintRunResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunResult(&pipeline.RunResult{
		CandidateID: uuid.New(),
		FinalStage:  types.StageScreened,
		Steps: []pipeline.StepResult{
			{Name: pipeline.StepParsing, Status: pipeline.StatusCompleted, Duration: 1200 * time.Millisecond},
			{Name: pipeline.StepScoring, Status: pipeline.StatusFailed, Error: "scorer LLM call: overloaded"},
		},
		Errors:        []pipeline.StageError{{Stage: pipeline.StepScoring, Message: "overloaded"}},
		TotalDuration: 2 * time.Second,
	})
	output := buf.String()

	assert.Contains(t, output, "PIPELINE RUN (1 errors)")
	assert.Contains(t, output, "screened")
	assert.Contains(t, output, "✓ parsing")
	assert.Contains(t, output, "✗ scoring")
	assert.Contains(t, output, "overloaded")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var cb pipeline.ProgressCallback = p.PrintProgress
	cb(pipeline.ProgressEvent{Step: pipeline.StepParsing, Status: pipeline.StatusStarted})
	cb(pipeline.ProgressEvent{Step: pipeline.StepParsing, Status: pipeline.StatusFailed, Message: "no JSON"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "… parsing"))
	assert.True(t, strings.HasPrefix(lines[1], "✗ parsing"))
	assert.True(t, strings.HasSuffix(lines[1], ": no JSON"))
}

func TestPrintDashboard(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	d := analytics.BuildDashboard(nil, []types.ProbeRecord{
		{ProbeType: types.ProbeNameSwap, Scenario: "nameSwap:John->Jamal", Delta: 0.2, Flagged: true},
		{ProbeType: types.ProbeAdversarial, Scenario: "adversarial"},
	})
	p.PrintDashboard(d)
	output := buf.String()

	assert.Contains(t, output, "FAIRNESS DASHBOARD")
	assert.Contains(t, output, "2 (1 flagged, rate 0.500)")
	assert.Contains(t, output, "Injection pass rate: 1.000 (1/1)")
	assert.Contains(t, output, "0.8-1.0")
	assert.Contains(t, output, "1x nameSwap:John->Jamal")
}

func TestPrintAgentStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAgentStats(nil)
	assert.Contains(t, buf.String(), "NO AGENT EXECUTIONS RECORDED")

	buf.Reset()
	p.PrintAgentStats([]analytics.AgentStats{{AgentType: "scorer", Total: 3, Completed: 2, Failed: 1, AvgDuration: 2.167}})
	output := buf.String()
	assert.Contains(t, output, "AGENT PERFORMANCE")
	assert.Contains(t, output, "scorer")
	assert.Contains(t, output, "2.167")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
	assert.Contains(t, buf.String(), "...")
}
