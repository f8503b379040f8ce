package shrinker

import (
	"errors"

	"statem/command"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

type fakeSystem struct{}

var boomErr = errors.New("injected fault")

// Commands with no state interaction: "noise" always passes, "boom" always
// faults. Used to check that removal strips irrelevant steps.
func noiseBoomSystem() command.System[fakeSystem, int] {
	return command.System[fakeSystem, int]{
		Commands: map[string]command.Command[fakeSystem, int]{
			"noise": {
				Invoke: func(handle *fakeSystem, args interface{}) (interface{}, error) {
					return nil, nil
				},
			},
			"boom": {
				Invoke: func(handle *fakeSystem, args interface{}) (interface{}, error) {
					return nil, boomErr
				},
			},
		},
		Setup:        func() *fakeSystem { return &fakeSystem{} },
		InitialState: func(handle *fakeSystem) int { return 0 },
	}
}

// "use" faults but is only enabled after "open". Used to check that removal
// candidates invalidating a downstream precondition are discarded.
func openUseSystem() command.System[fakeSystem, bool] {
	return command.System[fakeSystem, bool]{
		Commands: map[string]command.Command[fakeSystem, bool]{
			"open": {
				Precondition: func(opened bool) bool { return !opened },
				Invoke: func(handle *fakeSystem, args interface{}) (interface{}, error) {
					return nil, nil
				},
				NextState: func(opened bool, args interface{}, res command.Result) bool {
					return true
				},
			},
			"use": {
				Precondition: func(opened bool) bool { return opened },
				Invoke: func(handle *fakeSystem, args interface{}) (interface{}, error) {
					return nil, boomErr
				},
			},
		},
		Setup:        func() *fakeSystem { return &fakeSystem{} },
		InitialState: func(handle *fakeSystem) bool { return false },
	}
}

// "big" takes an int64 argument and always violates its postcondition.
func alwaysFailSystem() command.System[fakeSystem, int] {
	return command.System[fakeSystem, int]{
		Commands: map[string]command.Command[fakeSystem, int]{
			"big": {
				ArgsGen: func(state int) gopter.Gen {
					return gen.Int64Range(0, 100)
				},
				Invoke: func(handle *fakeSystem, args interface{}) (interface{}, error) {
					return args, nil
				},
				Postcondition: func(prevState int, args interface{}, res command.Result) bool {
					return false
				},
			},
		},
		Setup:        func() *fakeSystem { return &fakeSystem{} },
		InitialState: func(handle *fakeSystem) int { return 0 },
	}
}

// "flaky" violates its postcondition for positive arguments and faults for
// zero. Used to check the shrink acceptance policies.
func flakySystem() command.System[fakeSystem, int] {
	return command.System[fakeSystem, int]{
		Commands: map[string]command.Command[fakeSystem, int]{
			"flaky": {
				ArgsGen: func(state int) gopter.Gen {
					return gen.Int64Range(0, 100)
				},
				Invoke: func(handle *fakeSystem, args interface{}) (interface{}, error) {
					if args.(int64) == 0 {
						return nil, boomErr
					}
					return args, nil
				},
				Postcondition: func(prevState int, args interface{}, res command.Result) bool {
					return false
				},
			},
		},
		Setup:        func() *fakeSystem { return &fakeSystem{} },
		InitialState: func(handle *fakeSystem) int { return 0 },
	}
}

// A shrink tree for int64 arguments, as the value generator would have
// attached it to a generated step.
func int64Shrinker() gopter.Shrinker {
	return gen.Int64Range(0, 100)(gopter.DefaultGenParameters().CloneWithSeed(1)).Shrinker
}
