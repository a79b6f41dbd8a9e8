// Package analytics aggregates probe records, candidate scores and the
// execution log into fairness and agent-performance reports.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// TopScenarioLimit caps Dashboard.TopFlaggedScenarios.
const TopScenarioLimit = 10

// Source is the read side of pipeline.Store that reports need.
type Source interface {
	ListCandidates(ctx context.Context, filter pipeline.CandidateFilter) ([]*types.Candidate, error)
	ListProbes(ctx context.Context, filter pipeline.ProbeFilter) ([]types.ProbeRecord, error)
	ListExecutions(ctx context.Context, filter pipeline.ExecutionFilter) ([]types.AgentExecution, error)
}

// ProbeStats summarises one probe type.
type ProbeStats struct {
	ProbeType types.ProbeType `json:"probe_type"`
	Total     int             `json:"total"`
	Flagged   int             `json:"flagged"`
	AvgDelta  float64         `json:"avg_delta"`
}

// ScenarioCount is how often one scenario was flagged.
type ScenarioCount struct {
	Scenario string  `json:"scenario"`
	Count    int     `json:"count"`
	AvgDelta float64 `json:"avg_delta"`
}

// ScoreBucket counts candidates whose overall score falls in [Min, Max).
// The last bucket includes 1.0.
type ScoreBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// AdversarialResults reports how the scorer held up against injected
// instructions. PassRate is 1.0 when no adversarial probe ran.
type AdversarialResults struct {
	Total    int     `json:"total"`
	Flagged  int     `json:"flagged"`
	PassRate float64 `json:"pass_rate"`
}

// Dashboard is the fairness summary for one job, or all jobs when JobID is nil.
type Dashboard struct {
	JobID                  uuid.UUID          `json:"job_id"`
	TotalCandidatesAudited int                `json:"total_candidates_audited"`
	TotalProbes            int                `json:"total_probes"`
	TotalFlags             int                `json:"total_flags"`
	FlagRate               float64            `json:"flag_rate"`
	ProbeStats             []ProbeStats       `json:"probe_stats"`
	ScoreDistribution      []ScoreBucket      `json:"score_distribution"`
	TopFlaggedScenarios    []ScenarioCount    `json:"top_flagged_scenarios"`
	PIIDetectedCount       int                `json:"pii_detected_count"`
	Adversarial            AdversarialResults `json:"adversarial_test_results"`
}

// FairnessDashboard loads the records for jobID (uuid.Nil for every job)
// and aggregates them.
func FairnessDashboard(ctx context.Context, src Source, jobID uuid.UUID) (*Dashboard, error) {
	candidates, err := src.ListCandidates(ctx, pipeline.CandidateFilter{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	var probes []types.ProbeRecord
	if jobID == uuid.Nil {
		probes, err = src.ListProbes(ctx, pipeline.ProbeFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to list probes: %w", err)
		}
	} else {
		for _, c := range candidates {
			recs, err := src.ListProbes(ctx, pipeline.ProbeFilter{CandidateID: c.ID})
			if err != nil {
				return nil, fmt.Errorf("failed to list probes for candidate %s: %w", c.ID, err)
			}
			probes = append(probes, recs...)
		}
	}

	d := BuildDashboard(candidates, probes)
	d.JobID = jobID
	return d, nil
}

// BuildDashboard aggregates already-loaded records. Baseline rows are
// reference scores, not probes, and are left out of every probe count.
func BuildDashboard(candidates []*types.Candidate, probes []types.ProbeRecord) *Dashboard {
	d := &Dashboard{
		ProbeStats:          []ProbeStats{},
		ScoreDistribution:   scoreDistribution(candidates),
		TopFlaggedScenarios: []ScenarioCount{},
		Adversarial:         AdversarialResults{PassRate: 1.0},
	}

	for _, c := range candidates {
		if c.BiasAuditResult == nil {
			continue
		}
		d.TotalCandidatesAudited++
		if c.BiasAuditResult.PIIScan.Count > 0 {
			d.PIIDetectedCount++
		}
	}

	type acc struct {
		total, flagged int
		deltaSum       float64
	}
	byType := map[types.ProbeType]*acc{}
	byScenario := map[string]*acc{}

	for _, p := range probes {
		if p.ProbeType == types.ProbeBaseline {
			continue
		}
		d.TotalProbes++

		t := byType[p.ProbeType]
		if t == nil {
			t = &acc{}
			byType[p.ProbeType] = t
		}
		t.total++
		t.deltaSum += p.Delta

		if p.ProbeType == types.ProbeAdversarial {
			d.Adversarial.Total++
		}
		if !p.Flagged {
			continue
		}
		d.TotalFlags++
		t.flagged++
		if p.ProbeType == types.ProbeAdversarial {
			d.Adversarial.Flagged++
		}

		s := byScenario[p.Scenario]
		if s == nil {
			s = &acc{}
			byScenario[p.Scenario] = s
		}
		s.total++
		s.deltaSum += p.Delta
	}

	if d.TotalProbes > 0 {
		d.FlagRate = round(float64(d.TotalFlags)/float64(d.TotalProbes), 3)
	}
	if d.Adversarial.Total > 0 {
		d.Adversarial.PassRate = round(1-float64(d.Adversarial.Flagged)/float64(d.Adversarial.Total), 3)
	}

	for pt, a := range byType {
		d.ProbeStats = append(d.ProbeStats, ProbeStats{
			ProbeType: pt,
			Total:     a.total,
			Flagged:   a.flagged,
			AvgDelta:  round(a.deltaSum/float64(a.total), 4),
		})
	}
	sort.Slice(d.ProbeStats, func(i, j int) bool {
		return d.ProbeStats[i].ProbeType < d.ProbeStats[j].ProbeType
	})

	for sc, a := range byScenario {
		d.TopFlaggedScenarios = append(d.TopFlaggedScenarios, ScenarioCount{
			Scenario: sc,
			Count:    a.total,
			AvgDelta: round(a.deltaSum/float64(a.total), 4),
		})
	}
	sort.Slice(d.TopFlaggedScenarios, func(i, j int) bool {
		a, b := d.TopFlaggedScenarios[i], d.TopFlaggedScenarios[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Scenario < b.Scenario
	})
	if len(d.TopFlaggedScenarios) > TopScenarioLimit {
		d.TopFlaggedScenarios = d.TopFlaggedScenarios[:TopScenarioLimit]
	}

	return d
}

func scoreDistribution(candidates []*types.Candidate) []ScoreBucket {
	buckets := []ScoreBucket{
		{Label: "0.0-0.2", Min: 0.0, Max: 0.2},
		{Label: "0.2-0.4", Min: 0.2, Max: 0.4},
		{Label: "0.4-0.6", Min: 0.4, Max: 0.6},
		{Label: "0.6-0.8", Min: 0.6, Max: 0.8},
		{Label: "0.8-1.0", Min: 0.8, Max: 1.0},
	}
	last := len(buckets) - 1

	for _, c := range candidates {
		if c.OverallScore == nil {
			continue
		}
		s := *c.OverallScore
		for i := range buckets {
			b := &buckets[i]
			if s >= b.Min && (s < b.Max || (i == last && s <= b.Max)) {
				b.Count++
				break
			}
		}
	}
	return buckets
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
