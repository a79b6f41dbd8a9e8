// Package export writes evaluation and bias-audit results to Excel workbooks.
package export

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/jonathan/candidate-evaluator/internal/analytics"
	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// Sheet names.
const (
	SummarySheet    = "Summary"
	CandidatesSheet = "Candidates"
	ProbesSheet     = "Bias Probes"
)

// Source is what Collect reads from. pipeline.Store satisfies it.
type Source interface {
	analytics.Source
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
}

// Report is everything one workbook contains.
type Report struct {
	Job         *types.Job
	Candidates  []*types.Candidate
	Probes      []types.ProbeRecord
	Dashboard   *analytics.Dashboard
	GeneratedAt time.Time
}

// Collect loads the candidates, probe records and fairness dashboard of one
// job. uuid.Nil exports every job.
func Collect(ctx context.Context, src Source, jobID uuid.UUID) (*Report, error) {
	r := &Report{GeneratedAt: time.Now().UTC()}

	if jobID != uuid.Nil {
		job, err := src.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		r.Job = job
	}

	candidates, err := src.ListCandidates(ctx, pipeline.CandidateFilter{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	r.Candidates = candidates

	for _, c := range candidates {
		probes, err := src.ListProbes(ctx, pipeline.ProbeFilter{CandidateID: c.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to list probes for candidate %s: %w", c.ID, err)
		}
		r.Probes = append(r.Probes, probes...)
	}

	r.Dashboard = analytics.BuildDashboard(r.Candidates, r.Probes)
	r.Dashboard.JobID = jobID
	return r, nil
}

// WriteFile saves the report to path, appending .xlsx when missing, and
// returns the path written.
func WriteFile(r *Report, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := Build(r)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return path, nil
}

// Write streams the workbook to w.
func Write(r *Report, w io.Writer) error {
	f, err := Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build renders the workbook. The caller must Close it.
func Build(r *Report) (*excelize.File, error) {
	if r == nil {
		return nil, fmt.Errorf("report is nil")
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{CandidatesSheet, ProbesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{SummarySheet, func() error { return writeSummary(f, st, r) }},
		{CandidatesSheet, func() error { return writeCandidates(f, st, r.Candidates) }},
		{ProbesSheet, func() error { return writeProbes(f, st, r) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create %s sheet: %w", s.name, err)
		}
	}
	return f, nil
}

type styles struct {
	title, header, label, flagged, failed, wrap int
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (styles, error) {
	defs := []*excelize.Style{
		{
			Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		},
		{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    border(),
		},
		{Font: &excelize.Font{Bold: true}},
		{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
			Border: border(),
		},
		{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
			Border: border(),
		},
		{
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			Border:    border(),
		},
	}

	var st styles
	targets := []*int{&st.title, &st.header, &st.label, &st.flagged, &st.failed, &st.wrap}
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, err
		}
		*targets[i] = id
	}
	return st, nil
}

// cell returns the A1 reference for a 1-based column and row.
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// writeRow sets values left to right starting at column A.
func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		if err := f.SetCellValue(sheet, cell(i+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string, widths []float64) error {
	for i, h := range headers {
		ref := cell(i+1, 1)
		if err := f.SetCellValue(sheet, ref, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, ref, ref, style); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, st styles, r *Report) error {
	const sheet = SummarySheet
	if err := f.SetColWidth(sheet, "A", "A", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 50); err != nil {
		return err
	}

	row := 1
	section := func(title string) error {
		if err := f.SetCellValue(sheet, cell(1, row), title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(2, row), st.title); err != nil {
			return err
		}
		if err := f.MergeCell(sheet, cell(1, row), cell(2, row)); err != nil {
			return err
		}
		row++
		return nil
	}
	pair := func(label string, value any) error {
		if err := writeRow(f, sheet, row, label, value); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), st.label); err != nil {
			return err
		}
		row++
		return nil
	}

	jobTitle := "All jobs"
	if r.Job != nil {
		jobTitle = r.Job.Title
	}
	d := r.Dashboard
	if d == nil {
		d = analytics.BuildDashboard(r.Candidates, r.Probes)
	}

	if err := section("Candidate Evaluation & Bias Audit Report"); err != nil {
		return err
	}
	row++
	rows := []struct {
		label string
		value any
	}{
		{"Job:", jobTitle},
		{"Generated:", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Candidates:", len(r.Candidates)},
		{"Candidates audited:", d.TotalCandidatesAudited},
		{"Candidates with PII:", d.PIIDetectedCount},
	}
	for _, p := range rows {
		if err := pair(p.label, p.value); err != nil {
			return err
		}
	}
	row++

	if err := section("Bias Probes"); err != nil {
		return err
	}
	for _, p := range []struct {
		label string
		value any
	}{
		{"Total probes:", d.TotalProbes},
		{"Flagged probes:", d.TotalFlags},
		{"Flag rate:", d.FlagRate},
		{"Adversarial probes:", d.Adversarial.Total},
		{"Adversarial pass rate:", d.Adversarial.PassRate},
	} {
		if err := pair(p.label, p.value); err != nil {
			return err
		}
	}
	for _, s := range d.ProbeStats {
		label := fmt.Sprintf("%s (flagged / total, avg delta):", s.ProbeType)
		if err := pair(label, fmt.Sprintf("%d / %d, %+.4f", s.Flagged, s.Total, s.AvgDelta)); err != nil {
			return err
		}
	}
	row++

	if err := section("Score Distribution"); err != nil {
		return err
	}
	for _, b := range d.ScoreDistribution {
		if err := pair(b.Label, b.Count); err != nil {
			return err
		}
	}
	return nil
}

func writeCandidates(f *excelize.File, st styles, candidates []*types.Candidate) error {
	const sheet = CandidatesSheet
	headers := []string{"Candidate", "Stage", "Score", "Confidence", "Guardrails", "Suggested Action", "Bias Risk", "Flags", "Candidate ID"}
	widths := []float64{25, 14, 10, 12, 12, 26, 10, 40, 38}
	if err := writeHeader(f, sheet, st.header, headers, widths); err != nil {
		return err
	}

	for i, c := range candidates {
		row := i + 2
		guardrail := ""
		if c.GuardrailPassed != nil {
			guardrail = "fail"
			if *c.GuardrailPassed {
				guardrail = "pass"
			}
		}
		risk := ""
		if c.BiasAuditResult != nil {
			risk = string(c.BiasAuditResult.OverallRisk)
		}
		if err := writeRow(f, sheet, row,
			c.FullName(),
			string(c.Stage),
			optional(c.OverallScore),
			optional(c.Confidence),
			guardrail,
			c.SuggestedAction,
			risk,
			strings.Join(c.BiasFlags, ", "),
			c.ID.String(),
		); err != nil {
			return err
		}
		if len(c.BiasFlags) > 0 {
			if err := f.SetCellStyle(sheet, cell(1, row), cell(len(headers), row), st.flagged); err != nil {
				return err
			}
		}
	}

	if len(candidates) > 0 {
		ref := fmt.Sprintf("A1:%s", cell(len(headers), len(candidates)+1))
		if err := f.AutoFilter(sheet, ref, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func writeProbes(f *excelize.File, st styles, r *Report) error {
	const sheet = ProbesSheet
	headers := []string{"Candidate", "Audit Run", "Seq", "Scenario", "Type", "Baseline", "Probe Score", "Delta", "Flagged", "Explanation", "Error"}
	widths := []float64{25, 38, 6, 34, 12, 10, 12, 10, 9, 60, 30}
	if err := writeHeader(f, sheet, st.header, headers, widths); err != nil {
		return err
	}

	names := make(map[uuid.UUID]string, len(r.Candidates))
	for _, c := range r.Candidates {
		names[c.ID] = c.FullName()
	}

	for i, p := range r.Probes {
		row := i + 2
		name, ok := names[p.CandidateID]
		if !ok {
			name = p.CandidateID.String()
		}
		if err := writeRow(f, sheet, row,
			name,
			p.AuditRunID.String(),
			p.Seq,
			p.Scenario,
			string(p.ProbeType),
			p.BaselineScore,
			p.ProbeScore,
			p.Delta,
			p.Flagged,
			p.Explanation,
			p.Error,
		); err != nil {
			return err
		}

		style := st.wrap
		switch {
		case p.Failed():
			style = st.failed
		case p.Flagged:
			style = st.flagged
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(len(headers), row), style); err != nil {
			return err
		}
	}

	if len(r.Probes) > 0 {
		ref := fmt.Sprintf("A1:%s", cell(len(headers), len(r.Probes)+1))
		if err := f.AutoFilter(sheet, ref, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
