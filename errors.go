package weft

import (
	"errors"
	"strconv"
)

// Namespace prefixes every sentinel error string defined by this package.
const Namespace = "weft"

var (
	// ErrNotRewritten is returned when a configured entry point does not
	// carry the IsRewritten marker a Rewriter would have attached. The core
	// never rewrites code itself; it only warns when asked to run
	// unrewritten input.
	ErrNotRewritten = errors.New(Namespace + ": entry point is not a rewritten artifact")

	// ErrInvalidConfig is returned by Configuration validation.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")

	// ErrAlreadyRegistered names a duplicate operation id. The scheduler
	// allocates operation ids itself in Spawn, and no function in this
	// package returns this error.
	ErrAlreadyRegistered = errors.New(Namespace + ": operation already registered")

	// ErrSchedulerFinished names a scheduler entry point invoked after an
	// iteration has already reached a terminal outcome. No function in this
	// package returns it: such a call unwinds the calling operation instead.
	ErrSchedulerFinished = errors.New(Namespace + ": scheduler has already finished this iteration")

	// ErrUnknownOperation names an opId with no registered Operation; no
	// function in this package returns it.
	ErrUnknownOperation = errors.New(Namespace + ": unknown operation id")

	// ErrUnknownTask names a TaskID with no registered task record; no
	// function in this package returns it.
	ErrUnknownTask = errors.New(Namespace + ": unknown task id")

	// ErrUnknownResource names a ResourceID with no registered Resource; no
	// function in this package returns it.
	ErrUnknownResource = errors.New(Namespace + ": unknown resource id")

	// ErrUnhandledEvent is raised by a StateMachine when the current state
	// (and its pushed ancestors) declare no handler for a dispatched event.
	ErrUnhandledEvent = errors.New(Namespace + ": unhandled event in current state")

	// ErrTraceReplayFailure is the sentinel wrapped by TraceReplayFailure.
	ErrTraceReplayFailure = errors.New(Namespace + ": trace replay diverged from recorded decisions")
)

// OutcomeKind classifies how an iteration ended.
type OutcomeKind int

const (
	// OutcomeOK: all operations completed; no monitor left in a hot state.
	OutcomeOK OutcomeKind = iota
	// OutcomeAssertionFailure: a user Assert or monitor safety check failed.
	OutcomeAssertionFailure
	// OutcomeUnhandledException: user code panicked; captured at the
	// operation's top frame.
	OutcomeUnhandledException
	// OutcomeDeadlock: some operations are blocked and none are enabled.
	OutcomeDeadlock
	// OutcomeLivenessViolation: a monitor was in a Hot state when the
	// iteration terminated (or the livelock threshold was reached) with
	// liveness checking enabled.
	OutcomeLivenessViolation
	// OutcomeUncontrolledConcurrency: a scheduling point observed a caller
	// thread that did not match the currently scheduled operation.
	OutcomeUncontrolledConcurrency
	// OutcomeMaxStepsReached: the step bound was hit; a bug only if paired
	// with a hot monitor (in which case OutcomeLivenessViolation is used
	// instead; see the precedence decision in DESIGN.md).
	OutcomeMaxStepsReached
	// OutcomeTraceReplayFailure: a Replay strategy diverged from the
	// recorded trace.
	OutcomeTraceReplayFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "Ok"
	case OutcomeAssertionFailure:
		return "AssertionFailure"
	case OutcomeUnhandledException:
		return "UnhandledException"
	case OutcomeDeadlock:
		return "Deadlock"
	case OutcomeLivenessViolation:
		return "LivenessViolation"
	case OutcomeUncontrolledConcurrency:
		return "UncontrolledConcurrency"
	case OutcomeMaxStepsReached:
		return "MaxStepsReached"
	case OutcomeTraceReplayFailure:
		return "TraceReplayFailure"
	default:
		return "Unknown"
	}
}

// IsBug reports whether this outcome kind represents a reportable bug as
// opposed to a clean or merely informational termination.
func (k OutcomeKind) IsBug() bool {
	switch k {
	case OutcomeOK, OutcomeMaxStepsReached:
		return false
	default:
		return true
	}
}

// Outcome is the result of driving one iteration to completion.
type Outcome struct {
	Kind OutcomeKind
	// Message carries the assertion message, panic text, or monitor/state
	// description relevant to Kind.
	Message string
	// BlockedOperations is populated for OutcomeDeadlock: the set of
	// operations still blocked, and why.
	BlockedOperations []BlockedOperation
	// Monitor and HotState are populated for OutcomeLivenessViolation.
	Monitor  string
	HotState string
	// ReplayIndex/ReplayExpected/ReplayObserved are populated for
	// OutcomeTraceReplayFailure.
	ReplayIndex    int
	ReplayExpected string
	ReplayObserved string
	// Err is the underlying Go error for OutcomeUnhandledException, if any.
	Err error
}

// BlockedOperation names one operation stuck at iteration end and the
// reason it never became enabled again. Holds lists the resources it still
// owned while blocked, which is what makes a lock-order deadlock legible
// in the report.
type BlockedOperation struct {
	OpID   OpID
	Name   string
	Status OperationStatus
	Reason string
	Holds  []ResourceID
}

// bugError wraps an Outcome's failure with correlation metadata so it can
// travel as a Go error through batch APIs like RunSeeds and still be
// unwrapped back to the offending iteration.
type bugError struct {
	outcome   *Outcome
	iteration int
}

func (e *bugError) Error() string {
	if e.outcome == nil {
		return Namespace + ": bug"
	}
	return Namespace + ": iteration " + strconv.Itoa(e.iteration) + ": " + e.outcome.Kind.String() + ": " + e.outcome.Message
}

func (e *bugError) Unwrap() error { return e.outcome.Err }

// OutcomeValue returns the offending Outcome.
func (e *bugError) OutcomeValue() *Outcome { return e.outcome }

// Iteration returns the iteration number the bug was found in.
func (e *bugError) Iteration() int { return e.iteration }

// ExtractOutcome returns the Outcome embedded in err, if err (or something
// it wraps) is a bug reported by Engine.Run/RunSeeds.
func ExtractOutcome(err error) (*Outcome, bool) {
	var be *bugError
	if errors.As(err, &be) {
		return be.outcome, true
	}
	return nil, false
}

// ExtractIteration returns the iteration number a bug was found in, if err
// (or something it wraps) is a bug reported by Engine.Run/RunSeeds.
func ExtractIteration(err error) (int, bool) {
	var be *bugError
	if errors.As(err, &be) {
		return be.iteration, true
	}
	return 0, false
}
