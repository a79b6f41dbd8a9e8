package types

// Stage tracks how far a candidate has progressed through evaluation.
type Stage string

// Pipeline stages, in the order the orchestrator reaches them.
const (
	StageNew            Stage = "new"
	StageParsing        Stage = "parsing"
	StageParsed         Stage = "parsed"
	StageGuardrailCheck Stage = "guardrail_check"
	StageScreened       Stage = "screened"
	StageScoring        Stage = "scoring"
	StageScored         Stage = "scored"
	StageSummarizing    Stage = "summarizing"
	StageSummarized     Stage = "summarized"
	StageBiasAudit      Stage = "bias_audit"
	StageReviewed       Stage = "reviewed"
)

// Human-driven stages. The pipeline never moves a candidate into these.
const (
	StageShortlisted Stage = "shortlisted"
	StageInterview   Stage = "interview"
	StageOffer       Stage = "offer"
	StageHired       Stage = "hired"
	StageRejected    Stage = "rejected"
	StageWithdrawn   Stage = "withdrawn"
)

var stageRank = map[Stage]int{
	StageNew:            0,
	StageParsing:        1,
	StageParsed:         2,
	StageGuardrailCheck: 3,
	StageScreened:       4,
	StageScoring:        5,
	StageScored:         6,
	StageSummarizing:    7,
	StageSummarized:     8,
	StageBiasAudit:      9,
	StageReviewed:       10,
	StageShortlisted:    11,
	StageInterview:      12,
	StageOffer:          13,
	StageHired:          14,
	StageRejected:       15,
	StageWithdrawn:      16,
}

// Rank returns the position of the stage in the lifecycle, or -1 when unknown.
func (s Stage) Rank() int {
	if r, ok := stageRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Rank() >= 0
}

// Advance returns the later of s and next. Automatic transitions never regress.
func (s Stage) Advance(next Stage) Stage {
	if next.Rank() > s.Rank() {
		return next
	}
	return s
}
