package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/candidate-evaluator/internal/logging"
	"github.com/jonathan/candidate-evaluator/internal/sanitize"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// DefaultConcurrency bounds in-flight variant scorings.
const DefaultConcurrency = 4

// TextScorer scores one text against a rubric. *scoring.Scorer satisfies it.
type TextScorer interface {
	Score(ctx context.Context, text, jobRequirements string, rubric *types.Rubric) (*types.ScoringResult, error)
}

// AuditInput is what one audit run needs.
type AuditInput struct {
	CandidateID     uuid.UUID
	ResumeText      string
	JobRequirements string
	Rubric          *types.Rubric
}

// Report is an audit result plus the redacted text that was actually probed.
type Report struct {
	Result   *types.AuditResult
	Redacted string
}

// BaselineError means the unmodified text could not be scored, so no delta exists.
type BaselineError struct {
	Cause error
}

func (e *BaselineError) Error() string {
	return fmt.Sprintf("baseline scoring failed: %v", e.Cause)
}

func (e *BaselineError) Unwrap() error {
	return e.Cause
}

// Engine runs bias probes against a scorer.
type Engine struct {
	scorer      TextScorer
	catalog     *Catalog
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// NewEngine creates an engine. A nil catalog uses DefaultCatalog.
func NewEngine(scorer TextScorer, catalog *Catalog, logger *zap.Logger) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Engine{
		scorer:      scorer,
		catalog:     catalog,
		concurrency: DefaultConcurrency,
		logger:      logging.Component(logger, "probe"),
		now:         time.Now,
	}
}

// WithConcurrency sets how many variants are scored at once. Values below 1 are ignored.
func (e *Engine) WithConcurrency(n int) *Engine {
	if n >= 1 {
		e.concurrency = n
	}
	return e
}

// Catalog returns the catalog in use.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Audit scans and redacts the text, scores the baseline, then scores every
// other variant in parallel. A failed variant is recorded with its error; a
// failed baseline aborts the run.
func (e *Engine) Audit(ctx context.Context, in AuditInput) (*Report, error) {
	scan := sanitize.Scan(in.ResumeText)
	prepared := sanitize.PrepareForScoring(in.ResumeText)

	runID := uuid.New()
	log := e.logger.With(
		zap.String(logging.FieldCandidateID, in.CandidateID.String()),
		zap.String(logging.FieldAuditRunID, runID.String()),
	)

	variants := BuildVariants(prepared, e.catalog)
	log.Info("starting bias audit",
		zap.Int("variants", len(variants)),
		zap.Int("pii_found", scan.Count))

	base, err := e.scorer.Score(ctx, variants[0].Text, in.JobRequirements, in.Rubric)
	if err != nil {
		return nil, &BaselineError{Cause: err}
	}

	results := make([]*types.ScoringResult, len(variants))
	errs := make([]error, len(variants))
	results[0] = base

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for i := 1; i < len(variants); i++ {
		g.Go(func() error {
			results[i], errs[i] = e.scorer.Score(ctx, variants[i].Text, in.JobRequirements, in.Rubric)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	createdAt := e.now().UTC()
	out := &types.AuditResult{
		AuditRunID: runID,
		PIIScan:    scan,
		Probes:     make([]types.ProbeRecord, 0, len(variants)),
		Flags:      []string{},
	}

	for i, v := range variants {
		rec := types.ProbeRecord{
			ID:            uuid.New(),
			CandidateID:   in.CandidateID,
			AuditRunID:    runID,
			Seq:           i,
			Scenario:      v.Scenario,
			ProbeType:     v.Type,
			BaselineScore: base.Score,
			CreatedAt:     createdAt,
		}

		if errs[i] != nil {
			rec.Error = errs[i].Error()
			rec.Explanation = "Scoring failed: " + errs[i].Error()
			out.FailedProbes++
			log.Warn("probe variant failed",
				zap.String(logging.FieldScenario, v.Scenario),
				zap.Error(errs[i]))
		} else {
			rec.ProbeScore = results[i].Score
			rec.Components = results[i].Components
			rec.Delta = Delta(base.Score, rec.ProbeScore)
			rec.Flagged = Flagged(v, rec.Delta)
			rec.Explanation = Explain(v, base.Score, rec.ProbeScore)
		}

		if rec.Flagged {
			out.FlaggedProbes++
			out.Flags = append(out.Flags, v.Scenario)
		}
		out.Probes = append(out.Probes, rec)
	}

	out.TotalProbes = len(out.Probes)
	out.OverallRisk = OverallRisk(out.FlaggedProbes)

	log.Info("bias audit complete",
		zap.Int("total", out.TotalProbes),
		zap.Int("flagged", out.FlaggedProbes),
		zap.Int("failed", out.FailedProbes),
		zap.String("risk", string(out.OverallRisk)))

	return &Report{Result: out, Redacted: prepared}, nil
}

// IsBaselineError reports whether err came from a failed baseline scoring.
func IsBaselineError(err error) bool {
	var be *BaselineError
	return errors.As(err, &be)
}
