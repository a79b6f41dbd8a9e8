package types

import (
	"time"

	"github.com/google/uuid"
)

// ProbeType classifies a bias-probe variant.
type ProbeType string

// Probe types. Baseline is recorded so every delta has its reference row.
const (
	ProbeBaseline    ProbeType = "baseline"
	ProbeNameSwap    ProbeType = "name_swap"
	ProbeProxyFlip   ProbeType = "proxy_flip"
	ProbeAdversarial ProbeType = "adversarial"
)

// Risk is the overall bias risk of an audit run.
type Risk string

// Audit risk levels.
const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// PIIScan is the result of scanning text for personal data.
type PIIScan struct {
	Found map[string][]string `json:"found"`
	Count int                 `json:"count"`
}

// ProbeRecord is one scored variant of an audit run. Records are append-only.
type ProbeRecord struct {
	ID            uuid.UUID          `json:"id"`
	CandidateID   uuid.UUID          `json:"candidate_id"`
	AuditRunID    uuid.UUID          `json:"audit_run_id"`
	Seq           int                `json:"seq"` // position within the audit run; baseline is 0
	Scenario      string             `json:"scenario"`
	ProbeType     ProbeType          `json:"probe_type"`
	BaselineScore float64            `json:"original_score"`
	ProbeScore    float64            `json:"probe_score"`
	Delta         float64            `json:"delta"`
	Components    map[string]float64 `json:"components"`
	Explanation   string             `json:"explanation"`
	Flagged       bool               `json:"flagged"`
	Error         string             `json:"error,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Failed reports whether the variant could not be scored.
func (p ProbeRecord) Failed() bool {
	return p.Error != ""
}

// AuditResult aggregates one bias-audit run.
type AuditResult struct {
	AuditRunID    uuid.UUID     `json:"audit_run_id"`
	PIIScan       PIIScan       `json:"pii_scan"`
	TotalProbes   int           `json:"total_probes"`
	FlaggedProbes int           `json:"flagged_probes"`
	FailedProbes  int           `json:"failed_probes"`
	Probes        []ProbeRecord `json:"probes"`
	Flags         []string      `json:"flags"`
	OverallRisk   Risk          `json:"overall_risk"`
}
