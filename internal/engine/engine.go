package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/leadscout/internal/aggregate"
	"github.com/hyperifyio/leadscout/internal/metrics"
	"github.com/hyperifyio/leadscout/internal/normalize"
	"github.com/hyperifyio/leadscout/internal/platform"
	"github.com/hyperifyio/leadscout/internal/rank"
	"github.com/hyperifyio/leadscout/internal/search"
)

const (
	DefaultPerAdapterTimeout = 10 * time.Second
	DefaultRunDeadline       = 25 * time.Second
	DefaultRetryBackoff      = 250 * time.Millisecond
	maxRetryBackoff          = time.Second
)

// Options configures an Engine. The zero value is usable; DefaultOptions
// additionally enables the noise floor.
type Options struct {
	// PerAdapterTimeout bounds each adapter attempt.
	PerAdapterTimeout time.Duration
	// PlatformTimeouts overrides PerAdapterTimeout per platform.
	PlatformTimeouts map[search.PlatformID]time.Duration
	// RunDeadline bounds the whole fetch phase. Calls still pending when it
	// expires are abandoned and count as transient failures.
	RunDeadline time.Duration
	// RetryBackoff is the delay before the single retry of a transient
	// failure. Capped at one second.
	RetryBackoff time.Duration
	// MaxParallel bounds concurrent adapter calls. Zero means one per platform.
	MaxParallel int

	Priority search.Priority
	Scorer   rank.Scorer
	// MinScore drops results scoring below it. Zero keeps everything.
	MinScore float64
	// ResultCap bounds the result count regardless of the query.
	ResultCap int

	Logger   zerolog.Logger
	Clock    func() time.Time
	Metrics  *metrics.Recorder
	Observer Observer
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		PerAdapterTimeout: DefaultPerAdapterTimeout,
		RunDeadline:       DefaultRunDeadline,
		RetryBackoff:      DefaultRetryBackoff,
		MinScore:          rank.DefaultMinScore,
		ResultCap:         rank.DefaultCap,
		Logger:            zerolog.Nop(),
	}
}

// Engine runs aggregation queries against a fixed adapter registry. It holds
// no per-run state and is safe for concurrent use.
type Engine struct {
	reg  *platform.Registry
	opts Options
}

// New returns an Engine over reg. Unset durations and limits take defaults.
func New(reg *platform.Registry, opts Options) *Engine {
	if reg == nil {
		reg = platform.NewRegistry()
	}
	if opts.PerAdapterTimeout <= 0 {
		opts.PerAdapterTimeout = DefaultPerAdapterTimeout
	}
	if opts.RunDeadline <= 0 {
		opts.RunDeadline = DefaultRunDeadline
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.RetryBackoff > maxRetryBackoff {
		opts.RetryBackoff = maxRetryBackoff
	}
	if opts.ResultCap <= 0 {
		opts.ResultCap = rank.DefaultCap
	}
	if opts.Scorer == nil {
		opts.Scorer = rank.NewScorer()
	}
	if opts.Priority.IsZero() {
		opts.Priority = search.NewPriority(nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{reg: reg, opts: opts}
}

type task struct {
	index   int
	adapter platform.Adapter
}

// report is sent by a platform task to the accumulator. Retry notices carry
// only index and state.
type report struct {
	index    int
	state    search.PlatformState
	outcome  search.PlatformOutcome
	postings []platform.RawPosting
}

// Run executes one aggregation for q.
func (e *Engine) Run(ctx context.Context, q search.Query) (search.AggregationResult, error) {
	if err := q.Validate(); err != nil {
		return search.AggregationResult{}, err
	}
	runID := uuid.New().String()
	logger := e.opts.Logger.With().Str("run_id", runID).Logger()
	e.transition(logger, Event{RunID: runID, State: StatePending})

	outcomes := make([]search.PlatformOutcome, len(q.Platforms))
	tasks := make([]task, 0, len(q.Platforms))
	for i, p := range q.Platforms {
		a, ok := e.reg.Lookup(p)
		if !ok {
			outcomes[i] = search.PlatformOutcome{
				Platform: p,
				State:    search.PlatformUnsupported,
				Kind:     search.FailureUnsupported,
				Message:  "unsupported platform",
			}
			logger.Warn().Str("platform", string(p)).Msg("platform not registered")
			continue
		}
		outcomes[i] = search.PlatformOutcome{Platform: p, State: search.PlatformPending}
		tasks = append(tasks, task{index: i, adapter: a})
	}
	if len(tasks) == 0 {
		return search.AggregationResult{}, e.allFailed(logger, runID, outcomes)
	}

	e.transition(logger, Event{RunID: runID, State: StateFetching})
	collected := e.fetchAll(ctx, runID, q, tasks, outcomes, logger)

	queried := make([]search.PlatformID, 0, len(tasks))
	for _, o := range outcomes {
		if o.State == search.PlatformSucceeded {
			queried = append(queried, o.Platform)
		}
	}
	if len(queried) == 0 {
		return search.AggregationResult{}, e.allFailed(logger, runID, outcomes)
	}

	e.transition(logger, Event{RunID: runID, State: StateMerging})
	var merged []search.Result
	for i, raws := range collected {
		if len(raws) == 0 {
			continue
		}
		merged = append(merged, normalize.NormalizeAll(raws, logger.With().Str("platform", string(q.Platforms[i])).Logger())...)
	}

	e.transition(logger, Event{RunID: runID, State: StateScoring})
	scored := rank.ScoreAll(merged, q, e.opts.Scorer)
	results := aggregate.Deduplicate(scored, e.opts.Priority)
	results = rank.FilterFloor(results, e.opts.MinScore)

	rank.Sort(results, e.opts.Priority)
	results = rank.Truncate(results, q.Limit(e.opts.ResultCap))
	e.transition(logger, Event{RunID: runID, State: StateRanked})

	requested := make([]search.PlatformID, len(q.Platforms))
	copy(requested, q.Platforms)
	res := search.AggregationResult{
		RunID:              runID,
		Results:            results,
		PlatformsRequested: requested,
		PlatformsQueried:   queried,
		Outcomes:           outcomes,
		GeneratedAt:        e.opts.Clock().UTC(),
	}
	e.transition(logger, Event{RunID: runID, State: StateDone})
	e.opts.Metrics.RecordRun(string(StateDone))
	logger.Info().
		Int("merged", len(merged)).
		Int("results", len(results)).
		Int("platforms_ok", len(queried)).
		Int("platforms_failed", len(res.Failed())).
		Msg("run complete")
	return res, nil
}

// fetchAll fans out one task per supported platform and collects their
// reports through a single accumulator goroutine. Postings are stored by
// request index, so completion order never affects the output.
func (e *Engine) fetchAll(ctx context.Context, runID string, q search.Query, tasks []task, outcomes []search.PlatformOutcome, logger zerolog.Logger) [][]platform.RawPosting {
	runCtx, cancel := context.WithTimeout(ctx, e.opts.RunDeadline)
	defer cancel()

	collected := make([][]platform.RawPosting, len(q.Platforms))
	reports := make(chan report)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range reports {
			p := q.Platforms[r.index]
			if r.state == search.PlatformRetrying {
				outcomes[r.index].State = search.PlatformRetrying
				e.transition(logger, Event{RunID: runID, Platform: p, PlatformState: r.state})
				continue
			}
			outcomes[r.index] = r.outcome
			collected[r.index] = r.postings
			e.transition(logger, Event{RunID: runID, Platform: p, PlatformState: r.outcome.State})
		}
	}()

	limit := e.opts.MaxParallel
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, t := range tasks {
		g.Go(func() error {
			e.fetch(runCtx, t, q, reports, logger)
			return nil
		})
	}
	_ = g.Wait()
	close(reports)
	<-done
	return collected
}

// fetch calls one adapter, retrying a transient failure once, and sends the
// final report.
func (e *Engine) fetch(ctx context.Context, t task, q search.Query, reports chan<- report, logger zerolog.Logger) {
	p := t.adapter.Platform()
	plog := logger.With().Str("platform", string(p)).Logger()
	timeout := e.opts.PerAdapterTimeout
	if d, ok := e.opts.PlatformTimeouts[p]; ok && d > 0 {
		timeout = d
	}

	builder := retrypolicy.NewBuilder[[]platform.RawPosting]().
		HandleIf(func(_ []platform.RawPosting, err error) bool {
			return err != nil && platform.IsTransient(err) && ctx.Err() == nil
		}).
		WithMaxRetries(1).
		WithJitterFactor(0.1).
		ReturnLastFailure()
	if e.opts.RetryBackoff < maxRetryBackoff {
		builder = builder.WithBackoff(e.opts.RetryBackoff, maxRetryBackoff)
	} else {
		builder = builder.WithDelay(maxRetryBackoff)
	}
	policy := builder.Build()

	attempts := 0
	start := time.Now()
	postings, err := failsafe.With(policy).WithContext(ctx).Get(func() ([]platform.RawPosting, error) {
		attempts++
		if attempts > 1 {
			plog.Debug().Int("attempt", attempts).Msg("retrying platform")
			reports <- report{index: t.index, state: search.PlatformRetrying}
		}
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		raws, err := callAdapter(actx, t.adapter, q)
		if err != nil {
			return nil, platform.Classify(p, err)
		}
		return raws, nil
	})
	elapsed := time.Since(start)

	out := search.PlatformOutcome{Platform: p, Attempts: attempts}
	if err != nil {
		pe := failure(ctx, p, err)
		out.State = search.PlatformFailed
		out.Kind = search.FailurePermanent
		if pe.Kind == platform.Transient {
			out.Kind = search.FailureTransient
		}
		out.Message = pe.Error()
		plog.Warn().Err(pe).Str("kind", pe.Kind.String()).Int("attempts", attempts).Dur("elapsed", elapsed).Msg("platform failed")
		e.opts.Metrics.RecordAdapter(string(p), string(out.State), attempts, elapsed)
		reports <- report{index: t.index, outcome: out}
		return
	}
	out.State = search.PlatformSucceeded
	out.Postings = len(postings)
	plog.Debug().Int("postings", len(postings)).Int("attempts", attempts).Dur("elapsed", elapsed).Msg("platform succeeded")
	e.opts.Metrics.RecordAdapter(string(p), string(out.State), attempts, elapsed)
	reports <- report{index: t.index, outcome: out, postings: postings}
}

// failure maps the executor's error to a PlatformError. An error that is not
// already classified and arrives after the run context ended is treated as
// an abandoned call.
func failure(ctx context.Context, p search.PlatformID, err error) *platform.PlatformError {
	var pe *platform.PlatformError
	if errors.As(err, &pe) {
		return pe
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return platform.NewTransient(p, fmt.Errorf("abandoned: %w", ctxErr))
	}
	return platform.Classify(p, err)
}

// callAdapter runs the adapter but returns as soon as ctx ends, so an adapter
// that ignores its context cannot hold the run past its deadline.
func callAdapter(ctx context.Context, a platform.Adapter, q search.Query) ([]platform.RawPosting, error) {
	type result struct {
		raws []platform.RawPosting
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		raws, err := a.Search(ctx, q)
		ch <- result{raws, err}
	}()
	select {
	case r := <-ch:
		return r.raws, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) allFailed(logger zerolog.Logger, runID string, outcomes []search.PlatformOutcome) error {
	e.transition(logger, Event{RunID: runID, State: StateAllFailed})
	e.opts.Metrics.RecordRun(string(StateAllFailed))
	logger.Error().Int("platforms", len(outcomes)).Msg("all platforms failed")
	out := make([]search.PlatformOutcome, len(outcomes))
	copy(out, outcomes)
	return &AllPlatformsFailedError{RunID: runID, Outcomes: out}
}

func (e *Engine) transition(logger zerolog.Logger, ev Event) {
	if ev.Platform != "" {
		logger.Debug().Str("platform", string(ev.Platform)).Str("state", string(ev.PlatformState)).Msg("platform state")
	} else {
		logger.Debug().Str("state", string(ev.State)).Msg("run state")
	}
	if e.opts.Observer != nil {
		e.opts.Observer(ev)
	}
}
