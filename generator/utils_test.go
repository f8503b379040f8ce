package generator

import (
	"statem/command"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// A minimal counter system used to exercise generation.
//
// The real system is never touched by the generator, so the invoke functions
// are stubs.
type counter struct{}

// Model state is the counter value. "inc" is always enabled, "dec" requires a
// positive counter.
func counterSystem() command.System[counter, int] {
	return command.System[counter, int]{
		Commands: map[string]command.Command[counter, int]{
			"inc": {
				ArgsGen: func(state int) gopter.Gen {
					return gen.IntRange(1, 5)
				},
				Invoke: func(handle *counter, args interface{}) (interface{}, error) {
					return nil, nil
				},
				NextState: func(state int, args interface{}, res command.Result) int {
					return state + args.(int)
				},
			},
			"dec": {
				Precondition: func(state int) bool {
					return state > 0
				},
				Invoke: func(handle *counter, args interface{}) (interface{}, error) {
					return nil, nil
				},
				NextState: func(state int, args interface{}, res command.Result) int {
					return state - 1
				},
			},
		},
		Setup: func() *counter {
			return &counter{}
		},
		InitialState: func(handle *counter) int {
			return 0
		},
	}
}
