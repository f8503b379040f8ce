// Package statem is a model-based testing engine for stateful components.
//
// Given a declarative description of a component's operations it generates
// random command sequences respecting per-step preconditions, executes them
// against both the real implementation and a pure model of the expected
// behavior, detects divergences, and shrinks failing sequences to a minimal
// reproducing case.
package statem

import (
	"io"
	"log"
	"runtime"
	"time"

	"statem/command"
	"statem/config"
	"statem/executor"
	"statem/sequence"
)

// Prepare a test of the provided system.
//
// Initializes the engine with the necessary parameters.
// Default values will be used if no value is provided.
// Panics if the system specification is not well formed.
func PrepareTest[T, S any](sysOpt SystemOption[T, S], opts ...TestOption) Test[T, S] {
	var (
		// Number of trials executed per run
		trials = 100

		// Target number of commands in a generated sequence
		maxCommands = 50

		// Root seed. Trial seeds are derived deterministically from it, so a
		// reported failure can be reproduced by re-running with the same seed.
		seed = time.Now().UnixNano()

		// Number of trials executed at the same time
		numConcurrent = runtime.GOMAXPROCS(0) // Will not change GOMAXPROCS but only return the current value

		// An invocation taking longer than this is treated as a fault. Zero
		// disables the bound.
		invokeTimeout time.Duration

		// If true a generation step with no enabled command fails the trial
		// instead of accepting the shorter sequence
		requireFullLength = false

		// If true shrink candidates must fail for the same reason as the
		// original failure
		shrinkSameReason = false

		// If true panics raised by the real system are not recovered
		ignorePanics = false
	)

	for _, opt := range opts {
		switch t := opt.(type) {
		case config.TrialsOption:
			trials = t.N
		case config.MaxCommandsOption:
			maxCommands = t.N
		case config.SeedOption:
			seed = t.Seed
		case config.NumConcurrentOption:
			numConcurrent = t.N
		case config.InvokeTimeoutOption:
			invokeTimeout = t.Timeout
		case config.RequireFullLengthOption:
			requireFullLength = true
		case config.ShrinkSameReasonOption:
			shrinkSameReason = true
		case config.IgnorePanicOption:
			ignorePanics = true
		}
	}

	sys := sysOpt.sys
	if err := sys.Validate(); err != nil {
		log.Panicf("statem: invalid system specification: %v", err)
	}
	if trials < 1 {
		log.Panicf("statem: at least one trial must be configured")
	}
	if maxCommands < 1 {
		log.Panicf("statem: the maximum sequence length must be at least one")
	}

	return Test[T, S]{
		sys: sys,
		cfg: testConfig{
			trials:        trials,
			maxCommands:   maxCommands,
			seed:          seed,
			numConcurrent: numConcurrent,
			invokeTimeout: invokeTimeout,

			requireFullLength: requireFullLength,
			shrinkSameReason:  shrinkSameReason,
			ignorePanics:      ignorePanics,
		},
	}
}

// Stores the configured engine.
//
// Can be used to run multiple test runs. A run is started by calling the Run
// method.
type Test[T, S any] struct {
	sys command.System[T, S]
	cfg testConfig
}

type testConfig struct {
	trials        int
	maxCommands   int
	seed          int64
	numConcurrent int
	invokeTimeout time.Duration

	requireFullLength bool
	shrinkSameReason  bool
	ignorePanics      bool
}

// Run the trials.
//
// Each trial generates a sequence with a fresh derived seed, executes it, and
// on failure shrinks it to a minimal reproducing sequence. By default all
// trials are exhausted; StopOnFirstFailure stops the run after the first
// shrunk failure.
//
// Returns a Report with the outcome of the run.
func (t Test[T, S]) Run(opts ...RunOption) *Report[S] {
	var (
		stopOnFirst = false

		export []io.Writer
	)

	for _, opt := range opts {
		switch o := opt.(type) {
		case config.StopOnFirstFailureOption:
			stopOnFirst = true
		case config.ExportOption:
			export = append(export, o.W)
		}
	}

	report := t.runTrials(stopOnFirst)
	for _, w := range export {
		if err := report.Export(w); err != nil {
			log.Printf("statem: failed to export report: %v", err)
		}
	}
	return report
}

// Re-execute a concrete sequence, for example one reported by a previous run,
// against a fresh instance of the real system.
//
// Returns the recorded trace and verdict.
func (t Test[T, S]) ReplaySequence(seq sequence.Sequence) (sequence.Trace[S], sequence.Verdict, error) {
	exec := executor.New(t.sys, t.cfg.invokeTimeout, t.cfg.ignorePanics)
	return exec.Execute(seq)
}

// Configures the system under test.
type SystemOption[T, S any] struct {
	sys command.System[T, S]
}

// Use the provided system specification for the test.
func WithSystem[T, S any](sys command.System[T, S]) SystemOption[T, S] {
	return SystemOption[T, S]{sys: sys}
}

// An option used to configure the engine.
type TestOption interface {
	// noop method
	TestOpt()
}

// Configure the number of trials executed per run.
//
// Default value is 100.
func Trials(n int) TestOption {
	return config.TrialsOption{N: n}
}

// Configure the upper bound on the length of generated sequences.
//
// Each trial draws its own target length uniformly between one and this
// bound.
// Default value is 50.
func MaxCommands(n int) TestOption {
	return config.MaxCommandsOption{N: n}
}

// Configure the root seed.
//
// Trial seeds are derived deterministically from the root seed, so re-running
// with the seed of a reported failure reproduces it.
// Default value is derived from the current time.
func Seed(seed int64) TestOption {
	return config.SeedOption{Seed: seed}
}

// Configure the number of trials that will be executed concurrently.
//
// Each trial owns its own real-system instance and model state lineage, so
// trials may only be executed concurrently if the real system supports
// concurrent isolated instances.
// Default value is GOMAXPROCS.
func NumConcurrent(n int) TestOption {
	return config.NumConcurrentOption{N: n}
}

// Treat an invocation that does not return within the bound as a fault.
//
// The engine stops waiting and reports the step as faulted; it does not
// attempt to preempt the real system.
// Default value is no bound.
func InvokeTimeout(d time.Duration) TestOption {
	return config.InvokeTimeoutOption{Timeout: d}
}

// Fail a trial whose generation step has no enabled command instead of
// accepting the shorter sequence.
func RequireFullLength() TestOption {
	return config.RequireFullLengthOption{}
}

// Only accept shrink candidates that fail for the same reason as the original
// failure.
//
// By default any failure is accepted, which keeps shrinking effective at the
// cost of occasionally shrinking toward a different bug.
func ShrinkSameReason() TestOption {
	return config.ShrinkSameReasonOption{}
}

// Set the ignorePanic flag to true.
//
// If true panics raised by the real system during an invocation are not
// recovered, stopping the run. This makes it easier to inspect the state in a
// debugger when it panics. If false the panic is caught and reported as an
// invocation fault.
func IgnorePanic() TestOption {
	return config.IgnorePanicOption{}
}

// Optional parameters used to configure a run.
type RunOption interface {
	RunOpt()
}

// Stop the run after the first shrunk failure.
func StopOnFirstFailure() RunOption {
	return config.StopOnFirstFailureOption{}
}

// Add a writer that the failure records will be exported to.
//
// Can be called multiple times.
// Default value is no writers.
func Export(w io.Writer) RunOption {
	return config.ExportOption{W: w}
}
