// Package metrics is the thin instrumentation seam between the exploration
// engine and whatever monitoring a harness wants to plug in. The engine
// only ever records a handful of exploration statistics through it
// (iterations run, scheduling decisions per iteration, bugs and deadlocks
// found); the default BasicProvider keeps those in memory for a report,
// and a harness exporting to a real backend swaps in its own Provider.
package metrics

// Provider hands out named instruments. Asking twice for the same name
// must return the same instrument, so the engine and a report reader can
// both reach weft.iterations without coordinating. Implementations must be
// safe for concurrent use: batch exploration drives several engines at
// once through one Provider.
//
// Three instrument shapes cover everything the engine measures; resist
// widening this interface, and hang any future capability off a separate
// optional one instead.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter only ever counts up: iterations explored, bugs found.
// Concurrency-safe.
type Counter interface {
	Add(n int64)
}

// UpDownCounter tracks a level that rises and falls, such as how many
// operations an iteration currently has runnable. Concurrency-safe.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution, one float64 sample at a time; the
// engine feeds it scheduling decisions per iteration. Concurrency-safe.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig is the metadata an instrument was registered with.
// Nothing in the engine reads it back; providers may surface it to their
// backend or drop it.
type InstrumentConfig struct {
	Description string
	Unit        string
	// Attributes are static key-value pairs describing the instrument
	// itself, not per-measurement labels. Keep the set small and fixed.
	Attributes map[string]string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription records a human-readable description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit records the unit measurements are in ("1", "steps").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// WithAttributes attaches static attributes to the instrument.
func WithAttributes(attrs map[string]string) InstrumentOption {
	return func(c *InstrumentConfig) {
		if len(attrs) == 0 {
			return
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.Attributes[k] = v
		}
	}
}
