package sequence

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"statem/command"
)

// Classifies why an execution failed.
type Reason int

const (
	// The real system returned a value the postcondition rejected.
	PostconditionViolated Reason = iota
	// The invocation raised a fault, panicked or timed out.
	InvocationFaulted
)

func (r Reason) String() string {
	switch r {
	case PostconditionViolated:
		return "postcondition violated"
	case InvocationFaulted:
		return "invocation faulted"
	default:
		return fmt.Sprintf("unknown reason (%d)", int(r))
	}
}

// The outcome of executing a sequence.
type Verdict struct {
	// True if the execution diverged from the model.
	Failed bool
	// Index of the failing step. -1 if the execution passed.
	Index int
	// Why the failing step failed. Only meaningful if Failed is true.
	Reason Reason
}

// The verdict of an execution in which every step passed.
func Pass() Verdict {
	return Verdict{Index: -1}
}

// The verdict of an execution that diverged at the given step.
func Fail(index int, reason Reason) Verdict {
	return Verdict{Failed: true, Index: index, Reason: reason}
}

func (v Verdict) String() string {
	if !v.Failed {
		return "pass"
	}
	return fmt.Sprintf("fail at step %v: %v", v.Index, v.Reason)
}

// One recorded execution step: the step, the result of its invocation and the
// model state it was invoked in.
type Entry[S any] struct {
	Step      Step
	Result    command.Result
	PrevState S
}

// The recorded history of one execution.
type Trace[S any] []Entry[S]

// Renders the trace as an aligned table, one line per executed step.
func (t Trace[S]) String() string {
	var buffer bytes.Buffer
	wrt := tabwriter.NewWriter(&buffer, 4, 4, 2, ' ', 0)
	for i, entry := range t {
		fmt.Fprintf(wrt, "%v\t%v\t-> %v\tstate: %v\n", i, entry.Step, entry.Result, entry.PrevState)
	}
	wrt.Flush()
	return buffer.String()
}
