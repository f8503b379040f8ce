package shrinker

import (
	"statem/executor"
	"statem/generator"
	"statem/sequence"
)

// Minimizes a failing sequence while keeping every candidate valid and
// re-executing it against a fresh real system.
//
// Candidates are never assumed to fail: the real system has side effects that
// cannot be predicted from the model alone, so every candidate is validated
// by replaying the generator's state-transition logic and then re-executed.
// Each re-execution is a full Setup/Cleanup cycle.
type Shrinker[T, S any] struct {
	gen  *generator.Generator[T, S]
	exec *executor.Executor[T, S]

	// If true a candidate is only accepted when it fails for the same reason
	// as the original failure. By default any failure is accepted, which
	// keeps shrinking effective at the cost of occasionally shrinking toward
	// a different bug.
	sameReason bool
}

// Create a new shrinker reusing the generator (for candidate revalidation)
// and the executor (for candidate re-execution) of the failing trial.
func New[T, S any](gen *generator.Generator[T, S], exec *executor.Executor[T, S], sameReason bool) *Shrinker[T, S] {
	return &Shrinker[T, S]{
		gen:  gen,
		exec: exec,

		sameReason: sameReason,
	}
}

// Tracks the current best failing candidate during a shrink search.
type candidate[S any] struct {
	seq     sequence.Sequence
	trace   sequence.Trace[S]
	verdict sequence.Verdict
}

// Shrink the failing sequence to a locally minimal failing sequence.
//
// Two moves are applied repeatedly until neither finds a smaller failing
// candidate: removing a single step, and replacing the arguments of a single
// step by one of the candidates offered by its shrink tree. Whenever a move
// is accepted the search restarts against the new current sequence.
//
// The loop terminates because each accepted move strictly decreases a
// well-ordered measure: step removal shortens the sequence, and argument
// shrinking walks a finite shrink tree toward simpler values.
//
// If the input verdict is not a failure the input is returned unchanged.
func (s *Shrinker[T, S]) Shrink(seq sequence.Sequence, trace sequence.Trace[S], verdict sequence.Verdict) (sequence.Sequence, sequence.Trace[S], sequence.Verdict, error) {
	if !verdict.Failed {
		return seq, trace, verdict, nil
	}

	origReason := verdict.Reason
	cur := truncate(candidate[S]{seq: seq, trace: trace, verdict: verdict})

	for {
		improved, err := s.removeSteps(&cur, origReason)
		if err != nil {
			return nil, nil, sequence.Verdict{}, err
		}
		if improved {
			continue
		}

		improved, err = s.shrinkArgs(&cur, origReason)
		if err != nil {
			return nil, nil, sequence.Verdict{}, err
		}
		if !improved {
			break
		}
	}
	return cur.seq, cur.trace, cur.verdict, nil
}

// Attempt to remove one step.
//
// Accepts the first candidate that remains valid and still fails, and reports
// whether one was accepted.
func (s *Shrinker[T, S]) removeSteps(cur *candidate[S], origReason sequence.Reason) (bool, error) {
	for i := range cur.seq {
		accepted, err := s.attempt(cur, cur.seq.WithoutStep(i), origReason)
		if err != nil {
			return false, err
		}
		if accepted {
			return true, nil
		}
	}
	return false, nil
}

// Attempt to replace the arguments of one step by a shrink candidate.
//
// The shrink trees offered by the value generator are lazy and finite: only
// as many candidates as needed are consumed, and the tree of a step is
// restarted from the step's current arguments on every pass.
func (s *Shrinker[T, S]) shrinkArgs(cur *candidate[S], origReason sequence.Reason) (bool, error) {
	for i, step := range cur.seq {
		if step.Shrinker == nil {
			continue
		}

		shrink := step.Shrinker(step.Args)
		for {
			value, ok := shrink()
			if !ok {
				break
			}
			accepted, err := s.attempt(cur, cur.seq.WithArgs(i, value), origReason)
			if err != nil {
				return false, err
			}
			if accepted {
				return true, nil
			}
		}
	}
	return false, nil
}

// Validate and re-execute one candidate, accepting it as the new current
// sequence if it still fails.
//
// Arguments can change what later preconditions observe through the state
// transitions, so every candidate is revalidated from scratch before being
// re-executed.
func (s *Shrinker[T, S]) attempt(cur *candidate[S], cand sequence.Sequence, origReason sequence.Reason) (bool, error) {
	valid, err := s.gen.Revalidate(cand)
	if err != nil {
		return false, err
	}
	if !valid {
		return false, nil
	}

	trace, verdict, err := s.exec.Execute(cand)
	if err != nil {
		return false, err
	}
	if !s.accepts(verdict, origReason) {
		return false, nil
	}

	*cur = truncate(candidate[S]{seq: cand, trace: trace, verdict: verdict})
	return true, nil
}

func (s *Shrinker[T, S]) accepts(verdict sequence.Verdict, origReason sequence.Reason) bool {
	if !verdict.Failed {
		return false
	}
	if s.sameReason && verdict.Reason != origReason {
		return false
	}
	return true
}

// Drop the steps after the failing index.
//
// They were never executed, so they cannot contribute to the failure and
// would otherwise survive every removal move.
func truncate[S any](c candidate[S]) candidate[S] {
	if !c.verdict.Failed || c.verdict.Index+1 >= len(c.seq) {
		return c
	}
	c.seq = c.seq[:c.verdict.Index+1]
	return c
}
