package weft

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecisionKind distinguishes the four shapes a Decision can take.
type DecisionKind int

const (
	DecisionScheduleOp DecisionKind = iota
	DecisionBool
	DecisionInt
	DecisionHash
)

// Decision is one entry in an ExecutionTrace: either which operation was
// scheduled next, or the resolution of one nondeterministic bool/int draw,
// or a recorded fingerprint hash. Exactly one of the value fields is
// meaningful, selected by Kind.
type Decision struct {
	Kind DecisionKind

	// OpID is meaningful for DecisionScheduleOp.
	OpID OpID

	// BoolValue is meaningful for DecisionBool.
	BoolValue bool

	// IntValue/IntBound are meaningful for DecisionInt.
	IntValue uint32
	IntBound uint32

	// Hash is meaningful for DecisionHash.
	Hash uint64
}

// ScheduleOpDecision constructs a DecisionScheduleOp entry.
func ScheduleOpDecision(id OpID) Decision { return Decision{Kind: DecisionScheduleOp, OpID: id} }

// BoolDecision constructs a DecisionBool entry.
func BoolDecision(v bool) Decision { return Decision{Kind: DecisionBool, BoolValue: v} }

// IntDecision constructs a DecisionInt entry.
func IntDecision(v, bound uint32) Decision {
	return Decision{Kind: DecisionInt, IntValue: v, IntBound: bound}
}

// HashDecision constructs a DecisionHash entry.
func HashDecision(h uint64) Decision { return Decision{Kind: DecisionHash, Hash: h} }

// wireDecision is the JSON shape on the wire: {"op":N} | {"bool":0|1} |
// {"int":N,"bound":N} | {"hash":N}. Readers ignore unknown fields.
type wireDecision struct {
	Op    *uint64 `json:"op,omitempty"`
	Bool  *int    `json:"bool,omitempty"`
	Int   *uint32 `json:"int,omitempty"`
	Bound *uint32 `json:"bound,omitempty"`
	Hash  *uint64 `json:"hash,omitempty"`
}

func (d Decision) MarshalJSON() ([]byte, error) {
	var w wireDecision
	switch d.Kind {
	case DecisionScheduleOp:
		v := uint64(d.OpID)
		w.Op = &v
	case DecisionBool:
		v := 0
		if d.BoolValue {
			v = 1
		}
		w.Bool = &v
	case DecisionInt:
		v, b := d.IntValue, d.IntBound
		w.Int = &v
		w.Bound = &b
	case DecisionHash:
		v := d.Hash
		w.Hash = &v
	default:
		return nil, fmt.Errorf("%s: unknown decision kind %d", Namespace, d.Kind)
	}
	return json.Marshal(w)
}

func (d *Decision) UnmarshalJSON(data []byte) error {
	var w wireDecision
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&w); err != nil {
		return err
	}
	switch {
	case w.Op != nil:
		*d = Decision{Kind: DecisionScheduleOp, OpID: OpID(*w.Op)}
	case w.Bool != nil:
		*d = Decision{Kind: DecisionBool, BoolValue: *w.Bool != 0}
	case w.Int != nil:
		bound := uint32(0)
		if w.Bound != nil {
			bound = *w.Bound
		}
		*d = Decision{Kind: DecisionInt, IntValue: *w.Int, IntBound: bound}
	case w.Hash != nil:
		*d = Decision{Kind: DecisionHash, Hash: *w.Hash}
	default:
		return fmt.Errorf("%s: decision has no recognized field", Namespace)
	}
	return nil
}
