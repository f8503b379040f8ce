package executor

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"statem/command"
	"statem/sequence"
)

var (
	// Returned as the fault of an invocation that did not complete within the
	// configured bound. The engine stops waiting; it does not attempt to
	// preempt the real system.
	InvokeTimeoutError = errors.New("executor: invocation timed out")
)

// Replays a sequence against a freshly constructed real system while tracking
// the model state, stopping at the first divergence.
//
// Each execution owns its real handle exclusively: Setup is called on entry
// and Cleanup exactly once on every exit path, so repeated shrink
// re-executions never leak real-system resources or share a torn-down handle.
type Executor[T, S any] struct {
	sys command.System[T, S]

	// An invocation that takes longer than this is treated as a fault.
	// Zero disables the bound.
	invokeTimeout time.Duration

	// If true panics raised by Invoke are not recovered, making the failing
	// invocation easier to inspect in a debugger.
	ignorePanics bool
}

// Create a new executor for the provided system.
func New[T, S any](sys command.System[T, S], invokeTimeout time.Duration, ignorePanics bool) *Executor[T, S] {
	return &Executor[T, S]{
		sys: sys,

		invokeTimeout: invokeTimeout,
		ignorePanics:  ignorePanics,
	}
}

// Execute the sequence against a fresh instance of the real system.
//
// Returns the recorded trace and the verdict. A non-nil error reports a
// malformed specification (a callback other than Invoke misbehaved), which is
// distinct from a failing verdict.
//
// Execution stops at the first failing step: once the model and the real
// system have diverged, later steps are not meaningful.
func (e *Executor[T, S]) Execute(seq sequence.Sequence) (sequence.Trace[S], sequence.Verdict, error) {
	handle := e.sys.Setup()
	if e.sys.Cleanup != nil {
		defer e.sys.Cleanup(handle)
	}

	var state S
	err := command.Capture("", "InitialState", func() {
		state = e.sys.InitialState(handle)
	})
	if err != nil {
		return nil, sequence.Verdict{}, err
	}

	trace := make(sequence.Trace[S], 0, len(seq))
	for i, step := range seq {
		cmd, ok := e.sys.Command(step.Command)
		if !ok {
			return trace, sequence.Verdict{}, fmt.Errorf("executor: sequence references unknown command %q", step.Command)
		}
		prevState := state

		res := e.invoke(cmd, handle, step.Args)
		trace = append(trace, sequence.Entry[S]{Step: step, Result: res, PrevState: prevState})
		if res.Failed() {
			return trace, sequence.Fail(i, sequence.InvocationFaulted), nil
		}

		holds := false
		err := command.Capture(step.Command, "Postcondition", func() {
			holds = cmd.Check(prevState, step.Args, res)
		})
		if err != nil {
			return trace, sequence.Verdict{}, err
		}
		if !holds {
			return trace, sequence.Fail(i, sequence.PostconditionViolated), nil
		}

		err = command.Capture(step.Command, "NextState", func() {
			state = cmd.Advance(prevState, step.Args, res)
		})
		if err != nil {
			return trace, sequence.Verdict{}, err
		}
	}
	return trace, sequence.Pass(), nil
}

// Invoke the command against the real system.
//
// The invocation runs in its own goroutine so that the executor can stop
// waiting when the configured timeout expires. Panics raised by the real
// system are recorded as faults.
func (e *Executor[T, S]) invoke(cmd command.Command[T, S], handle *T, args interface{}) command.Result {
	// Buffered so that a late invocation can still deliver its result after a
	// timeout without leaking the goroutine.
	done := make(chan command.Result, 1)

	go func() {
		if !e.ignorePanics {
			defer func() {
				if p := recover(); p != nil {
					done <- command.Result{Err: fmt.Errorf("executor: invocation panicked: %v\nstack trace:\n%s", p, debug.Stack())}
				}
			}()
		}
		value, err := cmd.Invoke(handle, args)
		done <- command.Result{Value: value, Err: err}
	}()

	if e.invokeTimeout <= 0 {
		return <-done
	}
	select {
	case res := <-done:
		return res
	case <-time.After(e.invokeTimeout):
		return command.Result{Err: InvokeTimeoutError}
	}
}
