package command

import "fmt"

// Reports a malformed system specification discovered while the engine was
// running authored callbacks.
//
// A ContractError indicates a bug in the specification itself, not a failure
// of the system under test, and is therefore surfaced as an error rather than
// as a test verdict.
type ContractError struct {
	// Name of the command whose callback misbehaved. Empty for system-level
	// hooks such as InitialState.
	Command string
	// The callback that misbehaved.
	Op string
	// The recovered panic value or a description of the violation.
	Reason interface{}
}

func (e *ContractError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("command: specification contract violated in %v: %v", e.Op, e.Reason)
	}
	return fmt.Sprintf("command: specification contract violated in %v of command %q: %v", e.Op, e.Command, e.Reason)
}

// Runs f, converting a panic raised by an authored callback into a
// ContractError attributed to the op of the named command.
func Capture(cmd string, op string, f func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ContractError{Command: cmd, Op: op, Reason: p}
		}
	}()
	f()
	return nil
}
