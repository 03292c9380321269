package weft

import (
	"log/slog"
	"time"

	"github.com/ashwinrajeev/weft/metrics"
)

// Option configures a Configuration. Use NewConfiguration(opts...) to
// build one.
type Option func(*Configuration)

// WithStrategy selects the exploration strategy variant.
func WithStrategy(kind StrategyKind) Option {
	return func(c *Configuration) { c.Strategy = kind }
}

// WithMaxIterations bounds how many iterations are explored.
func WithMaxIterations(n int) Option {
	return func(c *Configuration) { c.MaxIterations = n }
}

// WithSeed sets the base seed for randomized strategies.
func WithSeed(seed uint64) Option {
	return func(c *Configuration) { c.Seed = seed }
}

// WithMaxSteps sets both the fair and unfair step bounds.
func WithMaxSteps(fair, unfair uint64) Option {
	return func(c *Configuration) {
		c.MaxFairSteps = fair
		c.MaxUnfairSteps = unfair
	}
}

// WithLivenessChecking toggles monitor hot/cold tracking.
func WithLivenessChecking(enabled bool) Option {
	return func(c *Configuration) { c.IsLivenessCheckingEnabled = enabled }
}

// WithTimeout bounds wall-clock exploration time.
func WithTimeout(d time.Duration) Option {
	return func(c *Configuration) { c.Timeout = d }
}

// WithSystematicFuzzingFallback enables the fallback rerun used when
// UncontrolledConcurrency is detected: the iteration runs again with
// out-of-turn scheduling points tolerated. Delays are not randomized.
func WithSystematicFuzzingFallback(enabled bool) Option {
	return func(c *Configuration) { c.SystematicFuzzingFallback = enabled }
}

// WithFingerprinting enables the optional livelock heuristic and sets its
// consecutive-repeat threshold.
func WithFingerprinting(threshold int) Option {
	return func(c *Configuration) {
		c.Fingerprinting = true
		c.FingerprintRepeatThreshold = threshold
	}
}

// WithVerbosity sets the logging verbosity level.
func WithVerbosity(v int) Option {
	return func(c *Configuration) { c.Verbosity = v }
}

// WithExhaustive keeps exploring after the first bug is found, counting
// bugs instead of stopping.
func WithExhaustive() Option {
	return func(c *Configuration) { c.Exhaustive = true }
}

// WithRequireRewritten makes Engine.Run reject entry points that don't
// report IsRewritten.
func WithRequireRewritten() Option {
	return func(c *Configuration) { c.RequireRewritten = true }
}

// WithReplayTrace selects StrategyReplay driven by a previously recorded
// trace; the engine replays it for exactly one iteration.
func WithReplayTrace(trace *ExecutionTrace) Option {
	return func(c *Configuration) {
		c.Strategy = StrategyReplay
		c.ReplayTrace = trace
		c.MaxIterations = 1
	}
}

// WithPCT configures StrategyPCT/StrategyFairPCT with k (the strategy
// draws k-1 change points) and n (change points fall uniformly in [0, n)).
func WithPCT(k, n int) Option {
	return func(c *Configuration) {
		c.PCTPriorityChangePoints = k
		c.PCTBound = n
	}
}

// WithProbabilisticCoin sets StrategyProbabilistic's coin bias.
func WithProbabilisticCoin(p float64) Option {
	return func(c *Configuration) { c.ProbabilisticCoinP = p }
}

// WithParallelism sets how many explorations (one per seed) RunSeeds may
// drive concurrently.
func WithParallelism(n uint) Option {
	return func(c *Configuration) { c.Parallelism = n }
}

// WithReportInOrder makes RunSeeds emit per-seed reports in submission
// order rather than completion order.
func WithReportInOrder() Option {
	return func(c *Configuration) { c.ReportInOrder = true }
}

// WithFixedParkPool caps the pool of park/wake handles backing operation
// goroutines at capacity, instead of the growable default. An operation
// keeps its handle until its iteration ends, so size it to the number of
// operations one iteration spawns; spawning past the cap waits for a
// handle to retire.
func WithFixedParkPool(capacity uint) Option {
	return func(c *Configuration) { c.ParkPoolCapacity = capacity }
}

// WithMetricsProvider overrides the default metrics.BasicProvider.
func WithMetricsProvider(p metrics.Provider) Option {
	return func(c *Configuration) { c.MetricsProvider = p }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Configuration) { c.Logger = l }
}

// NewConfiguration builds a validated Configuration from defaults plus
// opts, applied in order. It returns ErrInvalidConfig (wrapped) if the
// resulting configuration is inconsistent.
func NewConfiguration(opts ...Option) (Configuration, error) {
	c := defaultConfiguration()
	for _, opt := range opts {
		if opt == nil {
			return Configuration{}, fmtErr("nil option")
		}
		opt(&c)
	}
	if err := validateConfiguration(&c); err != nil {
		return Configuration{}, err
	}
	return c, nil
}
