package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// AgentStats summarises the execution log of one agent type. AvgDuration
// covers finished executions only.
type AgentStats struct {
	AgentType   string  `json:"agent_type"`
	Total       int     `json:"total"`
	Running     int     `json:"running"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	AvgDuration float64 `json:"avg_duration_seconds"`
}

// SuccessRate is Completed over finished executions, or 0 when none finished.
func (s AgentStats) SuccessRate() float64 {
	finished := s.Completed + s.Failed
	if finished == 0 {
		return 0
	}
	return float64(s.Completed) / float64(finished)
}

// AgentPerformance reports every agent type seen in the execution log.
func AgentPerformance(ctx context.Context, src Source) ([]AgentStats, error) {
	execs, err := src.ListExecutions(ctx, pipeline.ExecutionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return BuildAgentStats(execs), nil
}

// BuildAgentStats aggregates execution rows, sorted by agent type.
func BuildAgentStats(execs []types.AgentExecution) []AgentStats {
	type acc struct {
		stats       AgentStats
		durationSum float64
	}
	byAgent := map[string]*acc{}

	for _, e := range execs {
		a := byAgent[e.AgentType]
		if a == nil {
			a = &acc{stats: AgentStats{AgentType: e.AgentType}}
			byAgent[e.AgentType] = a
		}
		a.stats.Total++
		switch e.Status {
		case types.ExecutionCompleted:
			a.stats.Completed++
			a.durationSum += e.DurationSeconds
		case types.ExecutionFailed:
			a.stats.Failed++
			a.durationSum += e.DurationSeconds
		default:
			a.stats.Running++
		}
	}

	out := make([]AgentStats, 0, len(byAgent))
	for _, a := range byAgent {
		if finished := a.stats.Completed + a.stats.Failed; finished > 0 {
			a.stats.AvgDuration = round(a.durationSum/float64(finished), 3)
		}
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentType < out[j].AgentType })
	return out
}
