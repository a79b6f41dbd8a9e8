// Package jobs runs candidate pipelines on a bounded worker pool and retries
// runs that failed on infrastructure faults.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/candidate-evaluator/internal/logging"
	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

// Pipeline runs one candidate end to end. *pipeline.Orchestrator satisfies it.
type Pipeline interface {
	RunFullPipeline(ctx context.Context, candidateID uuid.UUID, opts pipeline.RunOptions) (*pipeline.RunResult, error)
}

// CandidateLister finds candidates to queue. pipeline.Store satisfies it.
type CandidateLister interface {
	ListCandidates(ctx context.Context, filter pipeline.CandidateFilter) ([]*types.Candidate, error)
}

// Options bounds concurrency and retries.
type Options struct {
	Workers        int
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Workers:        4,
		MaxRetries:     2,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     5 * time.Minute,
	}
}

// Handle identifies one queued run.
type Handle struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
}

// Outcome is the final state of a run after any retries.
type Outcome struct {
	Handle   Handle              `json:"handle"`
	Result   *pipeline.RunResult `json:"result,omitempty"`
	Err      error               `json:"-"`
	Attempts int                 `json:"attempts"`
}

// Runner executes pipeline runs with bounded concurrency.
type Runner struct {
	pipeline Pipeline
	lister   CandidateLister
	opts     Options
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	group *errgroup.Group
	wg    sync.WaitGroup

	mu       sync.Mutex
	order    []uuid.UUID
	outcomes map[uuid.UUID]Outcome
}

// NewRunner creates a runner. Non-positive Workers falls back to 1.
func NewRunner(p Pipeline, lister CandidateLister, opts Options, logger *zap.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)
	return &Runner{
		pipeline: p,
		lister:   lister,
		opts:     opts,
		logger:   logging.Component(logger, "jobs"),
		sleep:    sleepContext,
		group:    g,
		outcomes: make(map[uuid.UUID]Outcome),
	}
}

// Run executes one candidate synchronously, retrying transient failures
// with exponential backoff. Validation and not-found errors are never retried.
func (r *Runner) Run(ctx context.Context, candidateID uuid.UUID, biasAudit bool) Outcome {
	return r.run(ctx, Handle{ID: uuid.New(), CandidateID: candidateID}, biasAudit)
}

// Submit queues one run and returns immediately.
func (r *Runner) Submit(ctx context.Context, candidateID uuid.UUID, biasAudit bool) Handle {
	h := Handle{ID: uuid.New(), CandidateID: candidateID}

	r.mu.Lock()
	r.order = append(r.order, h.ID)
	r.mu.Unlock()

	r.wg.Add(1)
	// group.Go blocks while Workers runs are in flight, so it is called from
	// a dispatch goroutine to keep Submit non-blocking.
	go func() {
		r.group.Go(func() error {
			defer r.wg.Done()
			out := r.run(ctx, h, biasAudit)
			r.mu.Lock()
			r.outcomes[h.ID] = out
			r.mu.Unlock()
			return nil
		})
	}()
	return h
}

// RunForAllNew queues a run for every candidate of jobID still in stage new.
func (r *Runner) RunForAllNew(ctx context.Context, jobID uuid.UUID, biasAudit bool) ([]Handle, error) {
	candidates, err := r.lister.ListCandidates(ctx, pipeline.CandidateFilter{JobID: jobID, Stage: types.StageNew})
	if err != nil {
		return nil, err
	}

	handles := make([]Handle, 0, len(candidates))
	for _, c := range candidates {
		handles = append(handles, r.Submit(ctx, c.ID, biasAudit))
	}
	r.logger.Info("queued bulk evaluation",
		zap.String("job_id", jobID.String()),
		zap.Int("queued", len(handles)))
	return handles, nil
}

// Wait blocks until every submitted run has finished and returns their
// outcomes in submission order.
func (r *Runner) Wait() []Outcome {
	r.wg.Wait()
	_ = r.group.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.outcomes[id])
	}
	return out
}

// Outcome returns the outcome of a finished run.
func (r *Runner) Outcome(h Handle) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.outcomes[h.ID]
	return out, ok
}

func (r *Runner) run(ctx context.Context, h Handle, biasAudit bool) Outcome {
	log := r.logger.With(zap.String(logging.FieldCandidateID, h.CandidateID.String()))
	opts := pipeline.RunOptions{BiasAudit: biasAudit}

	for attempt := 1; ; attempt++ {
		res, err := r.pipeline.RunFullPipeline(ctx, h.CandidateID, opts)
		out := Outcome{Handle: h, Result: res, Err: err, Attempts: attempt}

		if !shouldRetry(res, err) || attempt > r.opts.MaxRetries {
			if err != nil {
				log.Error("pipeline run failed", zap.Int("attempts", attempt), zap.Error(err))
			}
			return out
		}

		delay := r.backoff(attempt)
		log.Warn("retrying pipeline run after transient failure",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(retryCause(res, err)))
		if err := r.sleep(ctx, delay); err != nil {
			out.Err = err
			return out
		}
	}
}

// backoff returns InitialBackoff doubled per prior attempt, capped at MaxBackoff.
func (r *Runner) backoff(attempt int) time.Duration {
	d := r.opts.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if r.opts.MaxBackoff > 0 && d >= r.opts.MaxBackoff {
			return r.opts.MaxBackoff
		}
	}
	if r.opts.MaxBackoff > 0 && d > r.opts.MaxBackoff {
		return r.opts.MaxBackoff
	}
	return d
}

func shouldRetry(res *pipeline.RunResult, err error) bool {
	if err != nil {
		return pipeline.IsRetryable(err)
	}
	return res != nil && res.HasTransientFailure()
}

func retryCause(res *pipeline.RunResult, err error) error {
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		if e.Err != nil {
			return e
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
