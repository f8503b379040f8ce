package statem

import (
	"statem/command"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// A FIFO queue backed by a slice, the running example of the engine.
//
// The buggy variant returns the queue contents instead of the popped value.
type fifoQueue struct {
	buggy    bool
	elements []int64
}

func (q *fifoQueue) push(n int64) {
	q.elements = append(q.elements, n)
}

func (q *fifoQueue) pop() interface{} {
	if q.buggy {
		return q.elements
	}
	head := q.elements[0]
	q.elements = q.elements[1:]
	return head
}

// The expected queue contents. Replaced wholesale at each step, never
// mutated in place.
type queueModel struct {
	elements []int64
}

func (m queueModel) pushed(n int64) queueModel {
	out := make([]int64, 0, len(m.elements)+1)
	out = append(out, m.elements...)
	return queueModel{elements: append(out, n)}
}

func (m queueModel) popped() queueModel {
	out := make([]int64, len(m.elements)-1)
	copy(out, m.elements[1:])
	return queueModel{elements: out}
}

func queueSystem(buggy bool) command.System[fifoQueue, queueModel] {
	return command.System[fifoQueue, queueModel]{
		Commands: map[string]command.Command[fifoQueue, queueModel]{
			"push": {
				ArgsGen: func(state queueModel) gopter.Gen {
					return gen.Int64Range(0, 100)
				},
				Invoke: func(handle *fifoQueue, args interface{}) (interface{}, error) {
					handle.push(args.(int64))
					return nil, nil
				},
				NextState: func(state queueModel, args interface{}, res command.Result) queueModel {
					return state.pushed(args.(int64))
				},
			},
			"pop": {
				Precondition: func(state queueModel) bool {
					return len(state.elements) > 0
				},
				Invoke: func(handle *fifoQueue, args interface{}) (interface{}, error) {
					return handle.pop(), nil
				},
				NextState: func(state queueModel, args interface{}, res command.Result) queueModel {
					return state.popped()
				},
				Postcondition: func(prevState queueModel, args interface{}, res command.Result) bool {
					value, ok := res.Value.(int64)
					return ok && value == prevState.elements[0]
				},
			},
		},
		Setup: func() *fifoQueue {
			return &fifoQueue{buggy: buggy}
		},
		InitialState: func(handle *fifoQueue) queueModel {
			return queueModel{}
		},
	}
}
