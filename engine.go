package weft

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ashwinrajeev/weft/internal/parkpool"
	"github.com/ashwinrajeev/weft/metrics"
)

// TestCase is a user-supplied test entry point: a program written against
// the controlled primitives (Spawn, Lock, EventQueue, ...) whose
// interleavings the engine explores. Entry runs once per iteration in a
// fresh root operation; everything it spawns from ctx is controlled.
type TestCase struct {
	Name  string
	Entry func(ctx context.Context)

	// RewrittenVersion is the IsRewritten marker a Rewriter stamps on an
	// artifact whose scheduling points it inserted; 0 means the entry
	// point is hand-instrumented (or not instrumented at all, which the
	// engine warns about, or rejects under WithRequireRewritten).
	RewrittenVersion int
}

// IsRewritten reports whether the test case carries a rewritten marker.
func (tc TestCase) IsRewritten() bool { return tc.RewrittenVersion > 0 }

// Engine is the top-level exploration driver (one Engine per test run): it
// loops iterations, giving each a fresh scheduler and trace while the one
// strategy instance carries exploration state across them, and stops at the
// first bug, the iteration bound, the timeout, or strategy exhaustion. It
// owns the run-level collaborators the iterations share: the validated
// Configuration, the logger, and the metrics instruments.
type Engine struct {
	cfg    Configuration
	logger *slog.Logger

	// parkers is shared across this engine's iterations so the park/wake
	// handle behind each operation goroutine is recycled once that
	// goroutine exits, instead of allocated fresh thousands of times per
	// exploration.
	parkers parkpool.Pool[*parkpool.Parker]

	iterations metrics.Counter
	bugs       metrics.Counter
	deadlocks  metrics.Counter
	steps      metrics.Histogram
}

// NewEngine builds an Engine from defaults plus opts; it returns the
// wrapped ErrInvalidConfig for an inconsistent option set.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg, err := NewConfiguration(opts...)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfiguration(cfg), nil
}

// NewEngineWithConfiguration builds an Engine from an already-validated
// Configuration.
func NewEngineWithConfiguration(cfg Configuration) *Engine {
	p := cfg.MetricsProvider
	return &Engine{
		cfg:     cfg,
		logger:  cfg.Logger,
		parkers: newParkPool(cfg),
		iterations: p.Counter("weft.iterations",
			metrics.WithUnit("1"), metrics.WithDescription("iterations explored")),
		bugs: p.Counter("weft.bugs",
			metrics.WithUnit("1"), metrics.WithDescription("bug outcomes observed")),
		deadlocks: p.Counter("weft.deadlocks",
			metrics.WithUnit("1"), metrics.WithDescription("deadlock outcomes observed")),
		steps: p.Histogram("weft.steps_per_iteration",
			metrics.WithUnit("steps"), metrics.WithDescription("scheduling decisions per iteration")),
	}
}

// Configuration returns the engine's immutable configuration.
func (e *Engine) Configuration() Configuration { return e.cfg }

// Run explores interleavings of tc until a bug is found (unless the
// configuration is exhaustive), the iteration bound or timeout is hit, or
// the strategy reports exhaustion. The returned report carries the first
// bug's Outcome and its reproducible trace; a found bug is reported, not
// returned as an error; the error return covers engine-level refusals
// (nil entry point, unrewritten input under WithRequireRewritten).
func (e *Engine) Run(ctx context.Context, tc TestCase) (*TestReport, error) {
	if tc.Entry == nil {
		return nil, fmtErr("TestCase.Entry must not be nil")
	}
	if !tc.IsRewritten() {
		if e.cfg.RequireRewritten {
			return nil, ErrNotRewritten
		}
		e.logger.Warn("entry point carries no rewritten marker; scheduling points must be hand-inserted",
			"test", tc.Name)
	}

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if e.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
	}
	defer cancel()

	strategy := newStrategy(e.cfg)
	report := &TestReport{
		TestName: tc.Name,
		Strategy: strategy.Description(),
		Seed:     e.cfg.Seed,
	}
	start := time.Now()

	for i := 0; i < e.cfg.MaxIterations; i++ {
		if runCtx.Err() != nil {
			break
		}
		if !strategy.InitializeNextIteration(i, report.BugTrace) {
			break
		}
		seed := e.cfg.Seed + uint64(i)
		trace := NewExecutionTrace(strategy.Description(), seed)
		if e.cfg.Verbosity >= 1 {
			e.logger.Info("iteration start", "test", tc.Name, "iteration", i, "seed", seed)
		}

		outcome := e.runIteration(runCtx, strategy, trace, tc, false)
		if outcome.Kind == OutcomeUncontrolledConcurrency && e.cfg.SystematicFuzzingFallback {
			// Degraded retry: same seed, same strategy state, but
			// out-of-turn scheduling points are tolerated instead of
			// aborting. The retried trace is still recorded, though a
			// fuzzed schedule carries no replay guarantee.
			e.logger.Warn("uncontrolled concurrency detected; retrying iteration in fuzzing mode",
				"test", tc.Name, "iteration", i)
			strategy.InitializeNextIteration(i, report.BugTrace)
			trace = NewExecutionTrace(strategy.Description(), seed)
			outcome = e.runIteration(runCtx, strategy, trace, tc, true)
		}

		e.iterations.Add(1)
		e.steps.Record(float64(strategy.StepCount()))
		report.Iterations++
		if outcome.Kind == OutcomeMaxStepsReached {
			report.MaxStepsHits++
		}
		if outcome.Kind.IsBug() {
			e.bugs.Add(1)
			if outcome.Kind == OutcomeDeadlock {
				e.deadlocks.Add(1)
			}
			report.BugsFound++
			if report.FirstBug == nil {
				o := outcome
				report.FirstBug = &o
				report.FirstBugIteration = i
				report.BugTrace = trace
			}
			e.logger.Info("bug found",
				"test", tc.Name, "iteration", i,
				"kind", outcome.Kind.String(), "message", outcome.Message)
			if !e.cfg.Exhaustive {
				break
			}
		}
	}

	report.Elapsed = time.Since(start)
	if report.FirstBug == nil {
		e.logger.Info("exploration finished without a bug",
			"test", tc.Name, "iterations", report.Iterations)
	}
	return report, nil
}

// runIteration drives one iteration on a fresh scheduler, interrupting it
// if the run context expires mid-iteration.
func (e *Engine) runIteration(ctx context.Context, strategy ExplorationStrategy, trace *ExecutionTrace, tc TestCase, tolerant bool) Outcome {
	sched := NewOperationScheduler(e.cfg, strategy, trace)
	sched.parkers = e.parkers
	sched.tolerant = tolerant
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-sched.Done():
		case <-ctx.Done():
			sched.Interrupt("exploration canceled: " + ctx.Err().Error())
		}
	}()
	outcome := sched.Run(tc.Name, tc.Entry)
	<-watchDone
	return outcome
}

// Replay re-executes tc under the recorded trace for exactly one iteration,
// reproducing the original outcome; divergence between the trace and what
// the program requests surfaces as OutcomeTraceReplayFailure.
func (e *Engine) Replay(ctx context.Context, tc TestCase, trace *ExecutionTrace) (*TestReport, error) {
	cfg := e.cfg
	cfg.Strategy = StrategyReplay
	cfg.ReplayTrace = trace
	cfg.MaxIterations = 1
	return NewEngineWithConfiguration(cfg).Run(ctx, tc)
}

// RunSeeds explores tc once per base seed, up to Parallelism explorations
// at a time. Reports arrive in completion order by default, or in seed
// order under WithReportInOrder. Seeds that found a bug contribute a
// correlation-tagged error to the joined error return, unwrappable with
// ExtractOutcome/ExtractIteration.
func (e *Engine) RunSeeds(ctx context.Context, tc TestCase, seeds []uint64) ([]*TestReport, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	par := int(e.cfg.Parallelism)
	if par < 1 {
		par = 1
	}

	type slot struct {
		idx    int
		report *TestReport
		err    error
	}
	sem := make(chan struct{}, par)
	out := make(chan slot, len(seeds))
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(idx int, seed uint64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			cfg := e.cfg
			cfg.Seed = seed
			rep, err := NewEngineWithConfiguration(cfg).Run(ctx, tc)
			if err == nil && rep.FirstBug != nil {
				err = &bugError{outcome: rep.FirstBug, iteration: rep.FirstBugIteration}
			}
			out <- slot{idx: idx, report: rep, err: err}
		}(i, seed)
	}
	wg.Wait()
	close(out)

	var (
		reports = make([]*TestReport, 0, len(seeds))
		ordered = make([]*TestReport, len(seeds))
		errs    []error
	)
	for s := range out {
		if s.err != nil {
			errs = append(errs, s.err)
		}
		if s.report == nil {
			continue
		}
		reports = append(reports, s.report)
		ordered[s.idx] = s.report
	}
	if e.cfg.ReportInOrder {
		reports = reports[:0]
		for _, r := range ordered {
			if r != nil {
				reports = append(reports, r)
			}
		}
	}
	return reports, errors.Join(errs...)
}
