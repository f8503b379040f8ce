package statem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"statem/sequence"
)

// One shrunk failure found during a run.
type Failure[S any] struct {
	// Index of the failing trial.
	Trial int
	// The derived seed of the failing trial.
	Seed int64
	// The originally generated failing sequence.
	Original sequence.Sequence
	// The locally minimal failing sequence.
	Minimal sequence.Sequence
	// The recorded trace of the minimal sequence.
	Trace sequence.Trace[S]
	// The verdict of the minimal sequence.
	Verdict sequence.Verdict
}

// The result of a run.
type Report[S any] struct {
	// The root seed of the run. Re-running with the same seed and
	// configuration reproduces the run.
	Seed int64
	// Number of configured trials.
	Trials int
	// Number of trials that passed.
	Passed int
	// Number of trials skipped because generation was exhausted.
	Skipped int
	// The shrunk failures, in trial order.
	Failures []*Failure[S]
	// Specification contract violations, surfaced distinctly from failures
	// of the system under test.
	Errors []error
}

// Returns true if no trial failed and the specification never misbehaved.
func (r *Report[S]) Ok() bool {
	return len(r.Failures) == 0 && len(r.Errors) == 0
}

// Generate a response.
// Returns two parameters, result, and description.
// Result is true if all trials passed, false otherwise.
// Description is a formatted string providing a detailed description of the
// result. If result is false the description contains the minimal failing
// sequence and the trace that lead to the failing step.
func (r *Report[S]) Response() (bool, string) {
	if r.Ok() {
		return true, fmt.Sprintf("All trials passed. Seed: %v. Passed: %v. Skipped: %v.", r.Seed, r.Passed, r.Skipped)
	}

	var buffer bytes.Buffer
	if len(r.Errors) > 0 {
		fmt.Fprintf(&buffer, "Specification contract violated. Seed: %v.\n", r.Seed)
		for _, err := range r.Errors {
			fmt.Fprintf(&buffer, "-> %v\n", err)
		}
		return false, buffer.String()
	}

	failure := r.Failures[0]
	fmt.Fprintf(&buffer, "Trial %v failed. Seed: %v. Reason: %v.\n", failure.Trial, r.Seed, failure.Verdict.Reason)
	fmt.Fprintf(&buffer, "Original sequence: %v\n", failure.Original)
	fmt.Fprintf(&buffer, "Minimal sequence: %v\n", failure.Minimal)
	fmt.Fprintf(&buffer, "Trace:\n")

	wrt := tabwriter.NewWriter(&buffer, 4, 4, 2, ' ', 0)
	for i, entry := range failure.Trace {
		fmt.Fprintf(wrt, "-> %v\t%v\t%v\tstate: %v\n", i, entry.Step, entry.Result, entry.PrevState)
	}
	wrt.Flush()
	if len(r.Failures) > 1 {
		fmt.Fprintf(&buffer, "And %v more failures.\n", len(r.Failures)-1)
	}
	return false, buffer.String()
}

// The structured failure record handed to reporting tools.
type exportedStep struct {
	Command string `json:"command"`
	Args    string `json:"args,omitempty"`
}

type exportedEntry struct {
	Step      exportedStep `json:"step"`
	Result    string       `json:"result"`
	PrevState string       `json:"prevState"`
}

type exportedFailure struct {
	Trial   int             `json:"trial"`
	Seed    int64           `json:"seed"`
	Reason  string          `json:"reason"`
	Index   int             `json:"index"`
	Minimal []exportedStep  `json:"minimal"`
	Trace   []exportedEntry `json:"trace"`
}

type exportedReport struct {
	Seed     int64             `json:"seed"`
	Trials   int               `json:"trials"`
	Passed   int               `json:"passed"`
	Skipped  int               `json:"skipped"`
	Errors   []string          `json:"errors,omitempty"`
	Failures []exportedFailure `json:"failures,omitempty"`
}

// Export the report as a structured record.
//
// The record contains everything needed to reproduce and render each failure:
// the seeds, the minimal sequences and their traces.
func (r *Report[S]) Export(w io.Writer) error {
	out := exportedReport{
		Seed:    r.Seed,
		Trials:  r.Trials,
		Passed:  r.Passed,
		Skipped: r.Skipped,
	}
	for _, err := range r.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	for _, failure := range r.Failures {
		exported := exportedFailure{
			Trial:   failure.Trial,
			Seed:    failure.Seed,
			Reason:  failure.Verdict.Reason.String(),
			Index:   failure.Verdict.Index,
			Minimal: exportSteps(failure.Minimal),
		}
		for _, entry := range failure.Trace {
			exported.Trace = append(exported.Trace, exportedEntry{
				Step:      exportStep(entry.Step),
				Result:    entry.Result.String(),
				PrevState: fmt.Sprintf("%v", entry.PrevState),
			})
		}
		out.Failures = append(out.Failures, exported)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func exportSteps(seq sequence.Sequence) []exportedStep {
	out := make([]exportedStep, len(seq))
	for i, step := range seq {
		out[i] = exportStep(step)
	}
	return out
}

func exportStep(step sequence.Step) exportedStep {
	exported := exportedStep{Command: step.Command}
	if step.Args != nil {
		exported.Args = fmt.Sprintf("%v", step.Args)
	}
	return exported
}
