package generator

import (
	"errors"
	"fmt"

	"statem/command"
	"statem/sequence"

	"github.com/leanovate/gopter"
)

var (
	// Returned when no registered command's precondition holds and the
	// configuration does not allow accepting a shorter sequence.
	GenerationExhaustedError = errors.New("generator: no command precondition holds for the current model state")
)

// Number of times an argument generator is re-drawn when it produces an empty
// result before the specification is considered malformed.
const argsRetryBudget = 100

// Synthesizes command sequences whose every prefix satisfies its command's
// precondition against the model state produced by replaying the prefix.
//
// The generator owns no randomness of its own: all random choices are drawn
// from the rng of the provided generator parameters, so that a sequence is a
// deterministic function of the seed.
type Generator[T, S any] struct {
	sys    command.System[T, S]
	params *gopter.GenParameters

	// If true a step with no enabled command fails generation instead of
	// accepting the shorter sequence.
	requireFullLength bool
}

// Create a new sequence generator for the provided system.
func New[T, S any](sys command.System[T, S], params *gopter.GenParameters, requireFullLength bool) *Generator[T, S] {
	return &Generator[T, S]{
		sys:    sys,
		params: params,

		requireFullLength: requireFullLength,
	}
}

// Generate a sequence of at most targetLen steps.
//
// At each step one command is chosen among the enabled commands, weighted by
// their selection weights, and its arguments are drawn from its argument
// generator. The model state is advanced with the zero result, since no real
// invocation has happened yet.
//
// If no command is enabled at some step the shorter sequence is accepted,
// unless the generator was configured to require the full length, in which
// case GenerationExhaustedError is returned. A sequence of length zero is
// always reported as exhausted.
func (g *Generator[T, S]) Generate(targetLen int) (sequence.Sequence, error) {
	state, err := g.initialState()
	if err != nil {
		return nil, err
	}

	seq := make(sequence.Sequence, 0, targetLen)
	for len(seq) < targetLen {
		name, cmd, ok, err := g.pick(state)
		if err != nil {
			return nil, err
		}
		if !ok {
			if len(seq) == 0 || g.requireFullLength {
				return nil, GenerationExhaustedError
			}
			break
		}

		args, shrinker, err := g.draw(name, cmd, state)
		if err != nil {
			return nil, err
		}

		seq = append(seq, sequence.Step{Command: name, Args: args, Shrinker: shrinker})
		state, err = g.advance(name, cmd, state, args)
		if err != nil {
			return nil, err
		}
	}
	return seq, nil
}

// Replays the sequence's preconditions and state transitions over its fixed
// arguments.
//
// Returns true if every prefix still satisfies its command's precondition.
// Used by the shrinker to validate candidates before re-executing them.
func (g *Generator[T, S]) Revalidate(seq sequence.Sequence) (bool, error) {
	state, err := g.initialState()
	if err != nil {
		return false, err
	}

	for _, step := range seq {
		cmd, ok := g.sys.Command(step.Command)
		if !ok {
			return false, fmt.Errorf("generator: sequence references unknown command %q", step.Command)
		}

		enabled := false
		err := command.Capture(step.Command, "Precondition", func() {
			enabled = cmd.Enabled(state)
		})
		if err != nil {
			return false, err
		}
		if !enabled {
			return false, nil
		}

		state, err = g.advance(step.Command, cmd, state, step.Args)
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

func (g *Generator[T, S]) initialState() (S, error) {
	var state S
	err := command.Capture("", "InitialState", func() {
		state = g.sys.InitialState(nil)
	})
	return state, err
}

// Choose one enabled command, weighted by the selection weights.
//
// Commands are considered in sorted name order so that the choice is a
// deterministic function of the rng.
func (g *Generator[T, S]) pick(state S) (string, command.Command[T, S], bool, error) {
	var zero command.Command[T, S]

	names := []string{}
	cmds := []command.Command[T, S]{}
	weights := []uint{}
	total := int64(0)

	for _, name := range g.sys.CommandNames() {
		cmd, _ := g.sys.Command(name)

		enabled := false
		err := command.Capture(name, "Precondition", func() {
			enabled = cmd.Enabled(state)
		})
		if err != nil {
			return "", zero, false, err
		}
		if !enabled {
			continue
		}

		w := cmd.SelectionWeight()
		names = append(names, name)
		cmds = append(cmds, cmd)
		weights = append(weights, w)
		total += int64(w)
	}
	if len(names) == 0 {
		return "", zero, false, nil
	}

	draw := g.params.Rng.Int63n(total)
	for i, w := range weights {
		draw -= int64(w)
		if draw < 0 {
			return names[i], cmds[i], true, nil
		}
	}
	// Unreachable: the draw is strictly below the total weight.
	return names[len(names)-1], cmds[len(cmds)-1], true, nil
}

// Draw the arguments for one step, retrying empty results up to the budget.
//
// Commands without an argument generator produce nil arguments and no shrink
// tree.
func (g *Generator[T, S]) draw(name string, cmd command.Command[T, S], state S) (interface{}, gopter.Shrinker, error) {
	if cmd.ArgsGen == nil {
		return nil, nil, nil
	}
	for attempt := 0; attempt < argsRetryBudget; attempt++ {
		var result *gopter.GenResult
		err := command.Capture(name, "ArgsGen", func() {
			result = cmd.ArgsGen(state)(g.params)
		})
		if err != nil {
			return nil, nil, err
		}

		value, ok := result.Retrieve()
		if ok {
			return value, result.Shrinker, nil
		}
	}
	return nil, nil, &command.ContractError{
		Command: name,
		Op:      "ArgsGen",
		Reason:  fmt.Sprintf("no value produced after %v attempts", argsRetryBudget),
	}
}

func (g *Generator[T, S]) advance(name string, cmd command.Command[T, S], state S, args interface{}) (S, error) {
	var next S
	err := command.Capture(name, "NextState", func() {
		next = cmd.Advance(state, args, command.Result{})
	})
	return next, err
}
