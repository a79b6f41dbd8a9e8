// Package pipeline sequences the evaluation agents for one candidate and
// records each stage's outcome as it happens.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-evaluator/internal/guardrail"
	"github.com/jonathan/candidate-evaluator/internal/llm"
	"github.com/jonathan/candidate-evaluator/internal/logging"
	"github.com/jonathan/candidate-evaluator/internal/parsing"
	"github.com/jonathan/candidate-evaluator/internal/probe"
	"github.com/jonathan/candidate-evaluator/internal/sanitize"
	"github.com/jonathan/candidate-evaluator/internal/scoring"
	"github.com/jonathan/candidate-evaluator/internal/summary"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// Step names as they appear in run results.
const (
	StepParsing      = "parsing"
	StepPIIRedaction = "pii_redaction"
	StepGuardrails   = "guardrails"
	StepScoring      = "scoring"
	StepSummary      = "summary"
	StepBiasAudit    = "bias_audit"
	StepFinalize     = "finalize"
)

// Step statuses.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	CandidateID uuid.UUID   `json:"candidate_id"`
	Step        string      `json:"step"`
	Status      string      `json:"status"`
	Stage       types.Stage `json:"stage"`
	Message     string      `json:"message,omitempty"`
	Content     any         `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	BiasAudit  bool
	OnProgress ProgressCallback
}

// DefaultRunOptions runs every stage including the bias audit.
func DefaultRunOptions() RunOptions {
	return RunOptions{BiasAudit: true}
}

// StageError is one failed stage of a run.
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e StageError) Error() string {
	return e.Stage + ": " + e.Message
}

func (e StageError) Unwrap() error {
	return e.Err
}

// StepResult is the outcome of one stage.
type StepResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Output   any           `json:"output,omitempty"`
}

// RunResult aggregates a full pipeline run. Errors is never nil.
type RunResult struct {
	CandidateID   uuid.UUID     `json:"candidate_id"`
	Steps         []StepResult  `json:"steps"`
	Errors        []StageError  `json:"errors"`
	TotalDuration time.Duration `json:"total_duration"`
	FinalStage    types.Stage   `json:"final_stage"`
}

// Succeeded reports whether every stage completed.
func (r *RunResult) Succeeded() bool {
	return len(r.Errors) == 0
}

// Step returns the named step, if it ran.
func (r *RunResult) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// HasTransientFailure reports whether any stage failed on an infrastructure
// fault that a later attempt might not hit.
func (r *RunResult) HasTransientFailure() bool {
	for _, e := range r.Errors {
		if llm.IsTransient(e.Err) {
			return true
		}
	}
	return false
}

// Evaluation accumulates one candidate's results as stages run. Each stage
// writes only its own candidate fields.
type Evaluation struct {
	Candidate *types.Candidate
	Job       *types.Job
	Rubric    *types.Rubric
	PIIScan   types.PIIScan
}

func (ev *Evaluation) requirements() string {
	if ev.Job == nil {
		return ""
	}
	return ev.Job.Requirements
}

// ResumeParser extracts structured data from resume text.
type ResumeParser interface {
	Parse(ctx context.Context, resumeText string) (*types.ParsedResume, error)
}

// Summarizer produces the recommendation summary.
type Summarizer interface {
	Summarize(ctx context.Context, in summary.Input) (*types.SummaryResult, error)
}

// Auditor runs bias probes.
type Auditor interface {
	Audit(ctx context.Context, in probe.AuditInput) (*probe.Report, error)
}

// Agents are the LLM-backed components the orchestrator drives.
type Agents struct {
	Parser     ResumeParser
	Scorer     probe.TextScorer
	Summarizer Summarizer
	Auditor    Auditor
}

// AgentOptions tunes NewAgents.
type AgentOptions struct {
	Catalog            *probe.Catalog
	ScoringTemperature float32
	ProbeConcurrency   int
}

// NewAgents builds all agents on one client. The bias auditor shares the scorer.
func NewAgents(client llm.Client, opts AgentOptions, logger *zap.Logger) Agents {
	scorer := scoring.NewScorer(client, logger).WithTemperature(opts.ScoringTemperature)
	return Agents{
		Parser:     parsing.NewParser(client, logger),
		Scorer:     scorer,
		Summarizer: summary.NewGenerator(client, logger),
		Auditor:    probe.NewEngine(scorer, opts.Catalog, logger).WithConcurrency(opts.ProbeConcurrency),
	}
}

type stage struct {
	step  string
	agent string
	entry types.Stage // set when the stage starts
	done  types.Stage // set when the stage succeeds
	model string
	input func(ev *Evaluation) map[string]any
	run   func(ctx context.Context, ev *Evaluation) (any, error)
}

// Orchestrator runs the evaluation stages for one candidate at a time.
type Orchestrator struct {
	store  Store
	agents Agents
	rubric *types.Rubric
	logger *zap.Logger
	now    func() time.Time
}

// NewOrchestrator creates an orchestrator persisting to store.
func NewOrchestrator(store Store, agents Agents, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		agents: agents,
		logger: logging.Component(logger, "orchestrator"),
		now:    time.Now,
	}
}

// WithDefaultRubric sets the rubric for jobs that define none.
func (o *Orchestrator) WithDefaultRubric(r *types.Rubric) *Orchestrator {
	o.rubric = r
	return o
}

// RunFullPipeline runs parse, redact, guardrail, score, summarize and
// optionally the bias audit. A failing stage is recorded and the remaining
// stages still run. The candidate reaches reviewed only when no stage failed.
// The returned error is non-nil only when the run could not start or was
// cancelled.
func (o *Orchestrator) RunFullPipeline(ctx context.Context, candidateID uuid.UUID, opts RunOptions) (*RunResult, error) {
	start := o.now()
	ev, err := o.load(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ev.Candidate.ResumeText) == "" {
		return nil, fmt.Errorf("%w: candidate %s has no resume text", ErrValidation, candidateID)
	}

	log := o.logger.With(zap.String(logging.FieldCandidateID, candidateID.String()))
	log.Info("pipeline started", zap.Bool("bias_audit", opts.BiasAudit))

	exec := o.startExecution(ctx, candidateID, AgentTypeOrchestrator, map[string]any{"bias_audit": opts.BiasAudit})
	result := &RunResult{CandidateID: candidateID, Steps: []StepResult{}, Errors: []StageError{}}

	var cancelErr error
	for _, st := range o.plan(opts) {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}
		step, err := o.runStage(ctx, ev, st, opts.OnProgress)
		result.Steps = append(result.Steps, step)
		if err != nil {
			result.Errors = append(result.Errors, StageError{Stage: st.step, Message: err.Error(), Err: err})
		}
	}

	if cancelErr == nil && len(result.Errors) == 0 {
		if err := o.advance(ctx, ev, types.StageReviewed); err != nil {
			result.Errors = append(result.Errors, StageError{Stage: StepFinalize, Message: err.Error(), Err: err})
		}
	}

	result.FinalStage = ev.Candidate.Stage
	result.TotalDuration = o.now().Sub(start)

	var execErr error
	if cancelErr != nil {
		execErr = fmt.Errorf("pipeline cancelled: %w", cancelErr)
	}
	o.finishExecution(ctx, exec, result, execErr, result.TotalDuration)

	log.Info("pipeline completed",
		zap.String(logging.FieldStage, string(result.FinalStage)),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.TotalDuration))

	return result, cancelErr
}

// RunSingleAgent runs one component. Unlike a full run, the stage's error is
// returned to the caller.
func (o *Orchestrator) RunSingleAgent(ctx context.Context, candidateID uuid.UUID, kind AgentKind) (*StepResult, error) {
	st, err := o.stageFor(kind)
	if err != nil {
		return nil, err
	}
	ev, err := o.load(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	step, err := o.runStage(ctx, ev, st, nil)
	if err != nil {
		return &step, fmt.Errorf("%s agent: %w", kind, err)
	}
	return &step, nil
}

func (o *Orchestrator) load(ctx context.Context, candidateID uuid.UUID) (*Evaluation, error) {
	c, err := o.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	var job *types.Job
	if c.JobID != uuid.Nil {
		job, err = o.store.GetJob(ctx, c.JobID)
		if err != nil {
			return nil, fmt.Errorf("load job for candidate %s: %w", candidateID, err)
		}
	}

	return &Evaluation{Candidate: c, Job: job, Rubric: o.rubricFor(job)}, nil
}

func (o *Orchestrator) rubricFor(job *types.Job) *types.Rubric {
	if job != nil && job.Rubric != nil && len(job.Rubric.Weights) > 0 {
		return job.Rubric
	}
	if o.rubric != nil {
		return o.rubric
	}
	return scoring.DefaultRubric()
}

func (o *Orchestrator) plan(opts RunOptions) []stage {
	stages := []stage{
		o.parseStage(),
		o.redactStage(),
		o.guardrailStage(),
		o.scoreStage(),
		o.summaryStage(),
	}
	if opts.BiasAudit {
		stages = append(stages, o.auditStage())
	}
	return stages
}

func (o *Orchestrator) stageFor(kind AgentKind) (stage, error) {
	switch kind {
	case AgentParser:
		return o.parseStage(), nil
	case AgentGuardrail:
		return o.guardrailStage(), nil
	case AgentScorer:
		return o.scoreStage(), nil
	case AgentSummarizer:
		return o.summaryStage(), nil
	case AgentBiasAuditor:
		return o.auditStage(), nil
	default:
		return stage{}, fmt.Errorf("%w: unknown agent %s", ErrValidation, kind)
	}
}

func (o *Orchestrator) runStage(ctx context.Context, ev *Evaluation, st stage, progress ProgressCallback) (StepResult, error) {
	start := o.now()
	c := ev.Candidate
	log := o.logger.With(
		zap.String(logging.FieldCandidateID, c.ID.String()),
		zap.String(logging.FieldAgent, st.agent))
	emit(progress, ProgressEvent{CandidateID: c.ID, Step: st.step, Status: StatusStarted, Stage: c.Stage})

	var (
		out  any
		err  error
		exec *types.AgentExecution
	)
	if st.entry != "" {
		err = o.advance(ctx, ev, st.entry)
	}
	if err == nil {
		var input map[string]any
		if st.input != nil {
			input = st.input(ev)
		}
		exec = o.startExecution(ctx, c.ID, st.agent, input)
		if exec != nil {
			exec.Model = st.model
		}
		out, err = st.run(ctx, ev)
		if err == nil && st.done != "" {
			err = o.advance(ctx, ev, st.done)
		}
	}

	elapsed := o.now().Sub(start)
	o.finishExecution(ctx, exec, out, err, elapsed)

	step := StepResult{Name: st.step, Status: StatusCompleted, Duration: elapsed, Output: out}
	if err != nil {
		step.Status = StatusFailed
		step.Error = err.Error()
		step.Output = nil
		log.Error("stage failed", zap.String("step", st.step), zap.Duration("duration", elapsed), zap.Error(err))
		emit(progress, ProgressEvent{CandidateID: c.ID, Step: st.step, Status: StatusFailed, Stage: c.Stage, Message: err.Error()})
		return step, err
	}

	log.Info("stage completed",
		zap.String("step", st.step),
		zap.String(logging.FieldStage, string(c.Stage)),
		zap.Duration("duration", elapsed))
	emit(progress, ProgressEvent{CandidateID: c.ID, Step: st.step, Status: StatusCompleted, Stage: c.Stage, Content: out})
	return step, nil
}

// advance moves the candidate forward to next. Earlier or equal stages are a no-op.
func (o *Orchestrator) advance(ctx context.Context, ev *Evaluation, next types.Stage) error {
	current := ev.Candidate.Stage
	target := current.Advance(next)
	if target == current {
		return nil
	}
	if err := o.store.UpdateStage(ctx, ev.Candidate.ID, target); err != nil {
		return fmt.Errorf("update stage to %s: %w", target, err)
	}
	ev.Candidate.Stage = target
	return nil
}

func (o *Orchestrator) startExecution(ctx context.Context, candidateID uuid.UUID, agent string, input map[string]any) *types.AgentExecution {
	exec := &types.AgentExecution{
		CandidateID: candidateID,
		AgentType:   agent,
		Status:      types.ExecutionRunning,
		InputData:   input,
		StartedAt:   o.now().UTC(),
	}
	if err := o.store.StartExecution(ctx, exec); err != nil {
		o.logger.Warn("failed to record execution start", zap.String(logging.FieldAgent, agent), zap.Error(err))
		return nil
	}
	return exec
}

func (o *Orchestrator) finishExecution(ctx context.Context, exec *types.AgentExecution, out any, runErr error, elapsed time.Duration) {
	if exec == nil {
		return
	}
	completed := o.now().UTC()
	exec.CompletedAt = &completed
	exec.DurationSeconds = math.Round(elapsed.Seconds()*100) / 100
	if runErr != nil {
		exec.Status = types.ExecutionFailed
		exec.ErrorMessage = runErr.Error()
	} else {
		exec.Status = types.ExecutionCompleted
		exec.OutputData = out
	}
	// The stage outcome must be recorded even when the run context is done.
	if err := o.store.FinishExecution(context.WithoutCancel(ctx), exec); err != nil {
		o.logger.Warn("failed to record execution finish", zap.String(logging.FieldAgent, exec.AgentType), zap.Error(err))
	}
}

func emit(cb ProgressCallback, event ProgressEvent) {
	if cb != nil {
		cb(event)
	}
}

func modelOf(agent any) string {
	if m, ok := agent.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

func (o *Orchestrator) parseStage() stage {
	return stage{
		step:  StepParsing,
		agent: AgentParser.String(),
		entry: types.StageParsing,
		done:  types.StageParsed,
		model: modelOf(o.agents.Parser),
		input: func(ev *Evaluation) map[string]any {
			return map[string]any{"resume_length": len(ev.Candidate.ResumeText)}
		},
		run: func(ctx context.Context, ev *Evaluation) (any, error) {
			parsed, err := o.agents.Parser.Parse(ctx, ev.Candidate.ResumeText)
			if err != nil {
				return nil, err
			}
			parsing.Apply(ev.Candidate, parsed)
			if err := o.store.SaveCandidate(ctx, ev.Candidate, FieldIdentity, FieldParsed); err != nil {
				return nil, fmt.Errorf("save parsed resume: %w", err)
			}
			return parsed, nil
		},
	}
}

func (o *Orchestrator) redactStage() stage {
	return stage{
		step:  StepPIIRedaction,
		agent: AgentTypeSanitizer,
		run: func(ctx context.Context, ev *Evaluation) (any, error) {
			c := ev.Candidate
			ev.PIIScan = sanitize.Scan(c.ResumeText)
			c.ResumeRedacted = sanitize.PrepareForScoring(c.ResumeText)
			if err := o.store.SaveCandidate(ctx, c, FieldRedacted); err != nil {
				return nil, fmt.Errorf("save redacted resume: %w", err)
			}
			return map[string]any{"pii_count": ev.PIIScan.Count}, nil
		},
	}
}

func (o *Orchestrator) guardrailStage() stage {
	return stage{
		step:  StepGuardrails,
		agent: AgentGuardrail.String(),
		entry: types.StageGuardrailCheck,
		done:  types.StageScreened,
		input: func(ev *Evaluation) map[string]any {
			return map[string]any{"skills": ev.Candidate.Skills, "experience_years": ev.Candidate.ExperienceYears}
		},
		run: func(ctx context.Context, ev *Evaluation) (any, error) {
			c := ev.Candidate
			res := guardrail.Evaluate(guardrail.FactsFrom(c), ev.Job)
			passed := res.Overall.Pass
			c.GuardrailResult = &res
			c.GuardrailPassed = &passed
			if err := o.store.SaveCandidate(ctx, c, FieldGuardrail); err != nil {
				return nil, fmt.Errorf("save guardrail result: %w", err)
			}
			return res, nil
		},
	}
}

func (o *Orchestrator) scoreStage() stage {
	return stage{
		step:  StepScoring,
		agent: AgentScorer.String(),
		entry: types.StageScoring,
		done:  types.StageScored,
		model: modelOf(o.agents.Scorer),
		input: func(ev *Evaluation) map[string]any {
			return map[string]any{"skills": ev.Candidate.Skills}
		},
		run: func(ctx context.Context, ev *Evaluation) (any, error) {
			c := ev.Candidate
			text := c.ResumeRedacted
			if strings.TrimSpace(text) == "" {
				text = sanitize.PrepareForScoring(c.ResumeText)
			}
			res, err := o.agents.Scorer.Score(ctx, text, ev.requirements(), ev.Rubric)
			if err != nil {
				return nil, err
			}
			score, confidence := res.Score, res.Confidence
			c.ScoringResult = res
			c.OverallScore = &score
			c.Confidence = &confidence
			if err := o.store.SaveCandidate(ctx, c, FieldScoring); err != nil {
				return nil, fmt.Errorf("save scoring result: %w", err)
			}
			return res, nil
		},
	}
}

func (o *Orchestrator) summaryStage() stage {
	return stage{
		step:  StepSummary,
		agent: AgentSummarizer.String(),
		entry: types.StageSummarizing,
		done:  types.StageSummarized,
		model: modelOf(o.agents.Summarizer),
		input: func(ev *Evaluation) map[string]any {
			c := ev.Candidate
			return map[string]any{
				"has_parsed_data":       c.ParsedData != nil,
				"has_guardrail_results": c.GuardrailResult != nil,
				"has_scoring_results":   c.ScoringResult != nil,
			}
		},
		run: func(ctx context.Context, ev *Evaluation) (any, error) {
			res, err := o.agents.Summarizer.Summarize(ctx, summary.Input{Candidate: ev.Candidate, Job: ev.Job})
			if err != nil {
				return nil, err
			}
			summary.Apply(ev.Candidate, res)
			if err := o.store.SaveCandidate(ctx, ev.Candidate, FieldSummary); err != nil {
				return nil, fmt.Errorf("save summary: %w", err)
			}
			return res, nil
		},
	}
}

func (o *Orchestrator) auditStage() stage {
	return stage{
		step:  StepBiasAudit,
		agent: AgentBiasAuditor.String(),
		entry: types.StageBiasAudit,
		model: modelOf(o.agents.Scorer),
		run: func(ctx context.Context, ev *Evaluation) (any, error) {
			c := ev.Candidate
			report, err := o.agents.Auditor.Audit(ctx, probe.AuditInput{
				CandidateID:     c.ID,
				ResumeText:      c.ResumeText,
				JobRequirements: ev.requirements(),
				Rubric:          ev.Rubric,
			})
			if err != nil {
				return nil, err
			}
			if err := o.store.AppendProbes(ctx, report.Result.Probes); err != nil {
				return nil, fmt.Errorf("append probe records: %w", err)
			}
			c.ResumeRedacted = report.Redacted
			c.BiasAuditResult = report.Result
			c.BiasFlags = report.Result.Flags
			if err := o.store.SaveCandidate(ctx, c, FieldAudit, FieldRedacted); err != nil {
				return nil, fmt.Errorf("save bias audit: %w", err)
			}
			return report.Result, nil
		},
	}
}

// IsRetryable reports whether a run error is an infrastructure fault.
// Validation and not-found errors are never retryable.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		return false
	}
	var pv *parsing.ValidationError
	if errors.As(err, &pv) {
		return false
	}
	return llm.IsTransient(err)
}
