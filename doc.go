// Package weft is a systematic concurrency-testing engine for programs
// written against a task/actor concurrency model. Given a test entry point
// that spawns controlled operations, sends events, awaits tasks, and
// asserts safety/liveness properties, the engine explores many possible
// interleavings of that program on a single OS thread, searching
// deterministically for assertion failures, deadlocks, uncaught panics, and
// liveness violations.
//
// The package is organized around three tightly coupled subsystems:
//
//   - The operation scheduler ([OperationScheduler]) owns every controlled
//     operation in one iteration, decides which one runs next according to
//     a pluggable [ExplorationStrategy], and enforces that at most one
//     operation executes user code at a time.
//   - Controlled concurrency primitives ([ControlledTask], [Lock],
//     [MonitorLock], [Semaphore], [ManualResetEvent], [ReaderWriterLock])
//     whose every suspension and wake point notifies the scheduler, and
//     whose every nondeterministic choice is resolved by it.
//   - An actor/state-machine runtime ([Actor], [StateMachine], [Monitor])
//     layered on top of controlled tasks and event queues.
//
// [Engine] drives one or many iterations, collecting an [ExecutionTrace]
// and an [Outcome] per iteration and assembling a [TestReport].
//
// IL rewriting, CLI/config parsing, report-file emission, and coverage
// visualization are out of scope: this package is the core that a rewriter
// or harness would sit in front of.
package weft
