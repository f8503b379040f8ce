package executor

import (
	"errors"
	"time"

	"statem/command"
)

// Call-counting real-system double.
type fakeCounter struct {
	value    int
	cleanups *int
}

var faultErr = errors.New("injected fault")

// A counter system with commands that pass, return a wrong value, fault,
// panic or hang, used to exercise every executor exit path.
//
// The cleanups counter records how often Cleanup ran across executions.
func faultyCounterSystem(cleanups *int) command.System[fakeCounter, int] {
	return command.System[fakeCounter, int]{
		Commands: map[string]command.Command[fakeCounter, int]{
			"inc": {
				Invoke: func(handle *fakeCounter, args interface{}) (interface{}, error) {
					handle.value++
					return handle.value, nil
				},
				NextState: func(state int, args interface{}, res command.Result) int {
					return state + 1
				},
				Postcondition: func(prevState int, args interface{}, res command.Result) bool {
					return res.Value == prevState+1
				},
			},
			"wrong": {
				Invoke: func(handle *fakeCounter, args interface{}) (interface{}, error) {
					return 999, nil
				},
				Postcondition: func(prevState int, args interface{}, res command.Result) bool {
					return res.Value == prevState
				},
			},
			"fault": {
				Invoke: func(handle *fakeCounter, args interface{}) (interface{}, error) {
					return nil, faultErr
				},
			},
			"panic": {
				Invoke: func(handle *fakeCounter, args interface{}) (interface{}, error) {
					panic("injected panic")
				},
			},
			"slow": {
				Invoke: func(handle *fakeCounter, args interface{}) (interface{}, error) {
					time.Sleep(time.Second)
					return nil, nil
				},
			},
		},
		Setup: func() *fakeCounter {
			return &fakeCounter{cleanups: cleanups}
		},
		InitialState: func(handle *fakeCounter) int {
			return 0
		},
		Cleanup: func(handle *fakeCounter) {
			*handle.cleanups++
		},
	}
}
