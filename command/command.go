package command

import (
	"fmt"

	"github.com/leanovate/gopter"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// The result of invoking a command against the real system.
//
// Value is the value returned by the invocation. Err is non-nil if the
// invocation faulted, in which case Value is undefined.
type Result struct {
	Value interface{}
	Err   error
}

// Returns true if the invocation faulted.
func (r Result) Failed() bool {
	return r.Err != nil
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("fault(%v)", r.Err)
	}
	return fmt.Sprintf("%v", r.Value)
}

// Describes one operation of the system under test.
//
// T is the type of the real system handle. S is the type of the model state.
//
// All functions except Invoke must be pure: they receive only the model state
// and must never touch the real system. Invoke is the only function permitted
// to interact with the real system.
type Command[T, S any] struct {
	// Returns true if the command may be scheduled in the provided model state.
	//
	// Evaluated once per generation step and once per replay step.
	// A nil Precondition always holds.
	Precondition func(state S) bool

	// Generator for the arguments of the command given the current model state.
	//
	// The returned generator is drawn from exactly once per generation step.
	// A nil ArgsGen means the command takes no arguments.
	ArgsGen func(state S) gopter.Gen

	// Relative weight used when choosing among the enabled commands.
	//
	// A weight of 0 is treated as 1.
	Weight uint

	// Executes the command against the real system.
	//
	// Returns the produced value, or an error if the invocation faulted.
	Invoke func(handle *T, args interface{}) (interface{}, error)

	// Computes the next model state.
	//
	// Must be total for any state in which Precondition held and any result
	// Invoke could return, including faulted results. The result may only be
	// recorded for reporting purposes: it must never influence anything a
	// Precondition can observe, since during generation and shrink
	// revalidation NextState receives the zero Result.
	// A nil NextState leaves the model state unchanged.
	NextState func(state S, args interface{}, res Result) S

	// Checks the result of the invocation against the model state the command
	// was invoked in.
	//
	// A nil Postcondition always holds.
	Postcondition func(prevState S, args interface{}, res Result) bool
}

// Returns true if the command may be scheduled in the provided model state.
func (c Command[T, S]) Enabled(state S) bool {
	if c.Precondition == nil {
		return true
	}
	return c.Precondition(state)
}

// Advance the model state.
func (c Command[T, S]) Advance(state S, args interface{}, res Result) S {
	if c.NextState == nil {
		return state
	}
	return c.NextState(state, args, res)
}

// Check the postcondition of the command.
func (c Command[T, S]) Check(prevState S, args interface{}, res Result) bool {
	if c.Postcondition == nil {
		return true
	}
	return c.Postcondition(prevState, args, res)
}

// The effective selection weight of the command.
func (c Command[T, S]) SelectionWeight() uint {
	if c.Weight == 0 {
		return 1
	}
	return c.Weight
}

// Describes the component under test.
//
// Aggregates the named commands together with the hooks used to create,
// observe and release the real system. A System is authored once per
// component and must not be modified after it has been handed to the engine.
type System[T, S any] struct {
	// The commands of the system, keyed by their unique name.
	Commands map[string]Command[T, S]

	// Creates a fresh instance of the real system.
	//
	// Called once per execution. The returned handle is owned exclusively by
	// that execution until Cleanup is called.
	Setup func() *T

	// Creates the initial model state.
	//
	// During generation and shrink revalidation no real system exists and the
	// handle is nil: the initial state must be derivable without touching the
	// real system.
	InitialState func(handle *T) S

	// Releases the real system instance. May be nil.
	//
	// Called exactly once per execution, on every exit path.
	Cleanup func(handle *T)
}

// Checks that the system specification is well formed.
func (s System[T, S]) Validate() error {
	if s.Setup == nil {
		return fmt.Errorf("command: System must provide a Setup function")
	}
	if s.InitialState == nil {
		return fmt.Errorf("command: System must provide an InitialState function")
	}
	if len(s.Commands) == 0 {
		return fmt.Errorf("command: System must register at least one command")
	}
	for name, cmd := range s.Commands {
		if name == "" {
			return fmt.Errorf("command: command registered with an empty name")
		}
		if cmd.Invoke == nil {
			return fmt.Errorf("command: command %q must provide an Invoke function", name)
		}
	}
	return nil
}

// Returns the registered command names in a deterministic order.
func (s System[T, S]) CommandNames() []string {
	names := maps.Keys(s.Commands)
	slices.Sort(names)
	return names
}

// Look up a command by name.
func (s System[T, S]) Command(name string) (Command[T, S], bool) {
	cmd, ok := s.Commands[name]
	return cmd, ok
}
