// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/candidate-evaluator/internal/analytics"
	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func passMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// writeList writes up to limit items as bullets with an overflow line.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintProgress prints one line per pipeline progress event. It has the
// pipeline.ProgressCallback signature.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	mark := "…"
	switch event.Status {
	case pipeline.StatusCompleted:
		mark = "✓"
	case pipeline.StatusFailed:
		mark = "✗"
	}
	line := fmt.Sprintf("%s %-14s %s", mark, event.Step, event.Status)
	if event.Message != "" {
		line += ": " + event.Message
	}
	fmt.Fprintln(p.out, line)
}

// PrintParsedResume outputs a human-readable summary of the parsed resume.
func (p *Printer) PrintParsedResume(parsed *types.ParsedResume) {
	if parsed == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s %s\n", parsed.FirstName, parsed.LastName))
	if parsed.CurrentTitle != "" {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", parsed.CurrentTitle))
	}
	if parsed.ExperienceYears != nil {
		sb.WriteString(fmt.Sprintf("Exp:      %g years\n", *parsed.ExperienceYears))
	}
	sb.WriteString("\n")

	if len(parsed.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills:   %s\n", strings.Join(parsed.Skills, ", ")))
	}
	degrees := make([]string, 0, len(parsed.Education))
	for _, e := range parsed.Education {
		degrees = append(degrees, strings.TrimSpace(e.Degree+" "+e.Institution))
	}
	writeList(&sb, "Education", degrees, 3)
	writeList(&sb, "Career gaps", parsed.CareerGaps, 3)

	p.printBox("PARSED RESUME", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGuardrail outputs each check with its pass mark and reason.
func (p *Printer) PrintGuardrail(result *types.GuardrailResult) {
	if result == nil {
		return
	}

	names := make([]string, 0, len(result.Checks))
	for name := range result.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %d/%d checks passed\n\n",
		passMark(result.Overall.Pass), result.Overall.ChecksPassed, result.Overall.TotalChecks))
	for i, name := range names {
		c := result.Checks[name]
		sb.WriteString(fmt.Sprintf("%s %s\n", passMark(c.Pass), name))
		sb.WriteString(fmt.Sprintf("  %s", c.Reason))
		if i < len(names)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("GUARDRAIL CHECKS", sb.String())
}

// PrintScoring outputs the composite score and per-component values,
// highest component first.
func (p *Printer) PrintScoring(result *types.ScoringResult) {
	if result == nil {
		return
	}

	names := make([]string, 0, len(result.Components))
	for name := range result.Components {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := result.Components[names[i]], result.Components[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:      %.3f\n", result.Score))
	sb.WriteString(fmt.Sprintf("Confidence: %.3f\n\n", result.Confidence))
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  %-22s %.2f\n", name, result.Components[name]))
	}

	p.printBox("RUBRIC SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the recommendation with its pros and cons.
func (p *Printer) PrintSummary(summary *types.SummaryResult) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Action:   %s\n\n", summary.SuggestedAction))
	writeList(&sb, "Pros", summary.Pros, 3)
	writeList(&sb, "Cons", summary.Cons, 3)
	writeList(&sb, "Risk factors", summary.RiskFactors, 3)

	p.printBox("SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAudit outputs the bias-audit verdict and every flagged probe.
func (p *Printer) PrintAudit(audit *types.AuditResult) {
	if audit == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Risk:     %s\n", strings.ToUpper(string(audit.OverallRisk))))
	sb.WriteString(fmt.Sprintf("Probes:   %d (%d flagged, %d failed)\n", audit.TotalProbes, audit.FlaggedProbes, audit.FailedProbes))
	sb.WriteString(fmt.Sprintf("PII:      %d items redacted\n", audit.PIIScan.Count))

	shown := 0
	for _, pr := range audit.Probes {
		if !pr.Flagged {
			continue
		}
		if shown == 0 {
			sb.WriteString("\n")
		}
		if shown == maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more flagged\n", audit.FlaggedProbes-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", pr.Scenario))
		sb.WriteString(fmt.Sprintf("  %+.3f  %s\n", pr.Delta, pr.Explanation))
		shown++
	}

	p.printBox("BIAS AUDIT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunResult outputs every stage of a pipeline run.
func (p *Printer) PrintRunResult(result *pipeline.RunResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", result.CandidateID))
	sb.WriteString(fmt.Sprintf("Stage:     %s\n", result.FinalStage))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n\n", result.TotalDuration.Round(time.Millisecond)))

	for _, s := range result.Steps {
		sb.WriteString(fmt.Sprintf("%s %-14s %s\n",
			passMark(s.Status == pipeline.StatusCompleted), s.Name, s.Duration.Round(time.Millisecond)))
		if s.Error != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", s.Error))
		}
	}

	title := "PIPELINE RUN"
	if !result.Succeeded() {
		title = fmt.Sprintf("PIPELINE RUN (%d errors)", len(result.Errors))
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDashboard outputs the fairness dashboard.
func (p *Printer) PrintDashboard(d *analytics.Dashboard) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Audited:  %d candidates\n", d.TotalCandidatesAudited))
	sb.WriteString(fmt.Sprintf("Probes:   %d (%d flagged, rate %.3f)\n", d.TotalProbes, d.TotalFlags, d.FlagRate))
	sb.WriteString(fmt.Sprintf("PII:      %d candidates\n", d.PIIDetectedCount))
	sb.WriteString(fmt.Sprintf("Injection pass rate: %.3f (%d/%d)\n\n",
		d.Adversarial.PassRate, d.Adversarial.Total-d.Adversarial.Flagged, d.Adversarial.Total))

	if len(d.ProbeStats) > 0 {
		sb.WriteString("By probe type:\n")
		for _, s := range d.ProbeStats {
			sb.WriteString(fmt.Sprintf("  %-12s %4d  flagged %3d  avg Δ %+.4f\n", s.ProbeType, s.Total, s.Flagged, s.AvgDelta))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Score distribution:\n")
	for _, b := range d.ScoreDistribution {
		sb.WriteString(fmt.Sprintf("  %s  %s %d\n", b.Label, strings.Repeat("█", min(b.Count, 30)), b.Count))
	}

	if len(d.TopFlaggedScenarios) > 0 {
		sb.WriteString("\nMost flagged:\n")
		count := min(len(d.TopFlaggedScenarios), maxItemsToShow)
		for i := 0; i < count; i++ {
			s := d.TopFlaggedScenarios[i]
			sb.WriteString(fmt.Sprintf("  %dx %s\n", s.Count, s.Scenario))
		}
	}

	p.printBox("FAIRNESS DASHBOARD", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAgentStats outputs per-agent execution counts and timings.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAgentStats(stats []analytics.AgentStats) {
	if len(stats) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO AGENT EXECUTIONS RECORDED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-14s %5s %5s %5s %8s\n", "agent", "total", "ok", "fail", "avg s"))
	for _, s := range stats {
		sb.WriteString(fmt.Sprintf("%-14s %5d %5d %5d %8.3f\n", s.AgentType, s.Total, s.Completed, s.Failed, s.AvgDuration))
	}

	p.printBox("AGENT PERFORMANCE", strings.TrimSuffix(sb.String(), "\n"))
}
