package sequence

import (
	"fmt"
	"strings"

	"github.com/leanovate/gopter"
	"golang.org/x/exp/slices"
)

// One generated command invocation.
//
// Immutable once generated. The shrinker carries the argument shrink tree
// offered by the value generator when the arguments were drawn.
type Step struct {
	// Name of the command, as registered in the system specification.
	Command string
	// The concrete arguments drawn for this step.
	Args interface{}
	// Shrink candidates for Args. May be nil if the arguments do not shrink.
	Shrinker gopter.Shrinker
}

func (s Step) String() string {
	if s.Args == nil {
		return fmt.Sprintf("%v()", s.Command)
	}
	return fmt.Sprintf("%v(%v)", s.Command, s.Args)
}

// An ordered list of steps.
//
// The unit of generation, execution and shrinking.
type Sequence []Step

// Returns a copy of the sequence sharing no backing storage.
func (s Sequence) Clone() Sequence {
	return slices.Clone(s)
}

// Returns a copy of the sequence with the step at index i removed.
func (s Sequence) WithoutStep(i int) Sequence {
	out := make(Sequence, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// Returns a copy of the sequence with the arguments of the step at index i
// replaced. The step keeps its shrinker so that the new value can be shrunk
// further.
func (s Sequence) WithArgs(i int, args interface{}) Sequence {
	out := s.Clone()
	out[i].Args = args
	return out
}

func (s Sequence) String() string {
	steps := make([]string, len(s))
	for i, step := range s {
		steps[i] = step.String()
	}
	return "[" + strings.Join(steps, ", ") + "]"
}
