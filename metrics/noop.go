package metrics

// NoopProvider discards every recorded measurement. Useful for benchmarks of
// the engine itself, where instrument bookkeeping should not show up in the
// profile.
type NoopProvider struct{}

func (NoopProvider) Counter(string, ...InstrumentOption) Counter             { return noopInstrument{} }
func (NoopProvider) UpDownCounter(string, ...InstrumentOption) UpDownCounter { return noopInstrument{} }
func (NoopProvider) Histogram(string, ...InstrumentOption) Histogram         { return noopInstrument{} }

type noopInstrument struct{}

func (noopInstrument) Add(int64)      {}
func (noopInstrument) Record(float64) {}
