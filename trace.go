package weft

import "encoding/json"

// ExecutionTrace is an append-only log of every scheduling decision made
// during one iteration: which operation ran next, and the resolution of
// every nondeterministic bool/int draw. It is the unit of reproducibility:
// identical (strategy, seed, trace-prefix) implies an identical schedule
// , and a persisted trace can drive a StrategyReplay run that
// reproduces the same Outcome.
//
// Appends happen only from within the scheduler's critical section, so
// ExecutionTrace itself does not need its own lock.
type ExecutionTrace struct {
	StrategyName string     `json:"strategy"`
	Seed         uint64     `json:"seed"`
	Decisions    []Decision `json:"decisions"`
}

// NewExecutionTrace constructs an empty trace tagged with the strategy
// name and seed that produced it.
func NewExecutionTrace(strategyName string, seed uint64) *ExecutionTrace {
	return &ExecutionTrace{StrategyName: strategyName, Seed: seed}
}

// Append records one decision.
func (t *ExecutionTrace) Append(d Decision) {
	t.Decisions = append(t.Decisions, d)
}

// Len returns the number of recorded decisions.
func (t *ExecutionTrace) Len() int { return len(t.Decisions) }

// MarshalJSON serializes the trace as
// {"strategy": str, "seed": u64, "decisions": [...]}.
func (t *ExecutionTrace) MarshalJSON() ([]byte, error) {
	type alias ExecutionTrace
	return json.Marshal((*alias)(t))
}

// UnmarshalJSON deserializes a trace, ignoring unknown top-level fields.
func (t *ExecutionTrace) UnmarshalJSON(data []byte) error {
	type alias ExecutionTrace
	a := (*alias)(t)
	return json.Unmarshal(data, a)
}

// SerializeTrace renders t as the persistable JSON form.
func SerializeTrace(t *ExecutionTrace) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// DeserializeTrace parses a previously persisted trace.
func DeserializeTrace(data []byte) (*ExecutionTrace, error) {
	var t ExecutionTrace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
