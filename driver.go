package statem

import (
	"errors"
	"math/rand"

	"statem/executor"
	"statem/generator"
	"statem/shrinker"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"golang.org/x/exp/slices"
)

// The outcome of a single trial.
type trialOutcome[S any] struct {
	trial int
	seed  int64

	// True if generation was exhausted before producing any step. The trial
	// is recorded and skipped, it is not a failure of the system under test.
	skipped bool

	// Non-nil if the trial produced a failing sequence.
	failure *Failure[S]

	// Non-nil if the specification itself misbehaved.
	err error
}

// Runs the trials, fanning them out over numConcurrent workers.
//
// Trial seeds are all derived from the root seed before any trial starts, so
// the seed of trial i never depends on scheduling order.
func (t Test[T, S]) runTrials(stopOnFirst bool) *Report[S] {
	seeds := make([]int64, t.cfg.trials)
	root := rand.New(rand.NewSource(t.cfg.seed))
	for i := range seeds {
		seeds[i] = root.Int63()
	}

	// Used to hand the next trial index to a worker
	nextTrial := make(chan int)
	// Used by workers to report the outcome of each trial
	status := make(chan trialOutcome[S])
	// Used by workers to signal that they have stopped executing trials
	closing := make(chan bool)

	numWorkers := t.cfg.numConcurrent
	if numWorkers > t.cfg.trials {
		numWorkers = t.cfg.trials
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go t.trialWorker(nextTrial, status, closing, seeds)
	}

	// Stop handing out trials by closing the nextTrial channel if it is not
	// already closed
	stopped := false
	stop := func() {
		if !stopped {
			stopped = true
			close(nextTrial)
		}
	}

	outcomes := []trialOutcome[S]{}
	ongoing := numWorkers
	started := 0
	// Loop until all workers have stopped executing trials
	for ongoing > 0 {
		// Only offer the next trial while there are trials left and the run
		// has not been stopped
		var feed chan int
		if started < t.cfg.trials && !stopped {
			feed = nextTrial
		}

		select {
		case feed <- started:
			started++
			// No trials left to hand out: let the workers drain and close
			if started >= t.cfg.trials {
				stop()
			}
		case out := <-status:
			outcomes = append(outcomes, out)
			if out.err != nil {
				stop()
			}
			if out.failure != nil && stopOnFirst {
				stop()
			}
		case <-closing:
			ongoing--
		}
	}
	stop()

	// All workers have completed and will not send on these channels
	close(status)
	close(closing)

	return t.buildReport(outcomes)
}

// Main loop of a trial worker.
//
// Executes trials handed out on the nextTrial channel until it is closed and
// reports each outcome on the status channel. Signals on the closing channel
// when done.
func (t Test[T, S]) trialWorker(nextTrial chan int, status chan trialOutcome[S], closing chan bool, seeds []int64) {
	for trial := range nextTrial {
		status <- t.runTrial(trial, seeds[trial])
	}
	closing <- true
}

// Run a single trial: generate, execute and, on failure, shrink.
func (t Test[T, S]) runTrial(trial int, seed int64) trialOutcome[S] {
	out := trialOutcome[S]{trial: trial, seed: seed}

	params := gopter.DefaultGenParameters().CloneWithSeed(seed)
	gnr := generator.New(t.sys, params, t.cfg.requireFullLength)
	exec := executor.New(t.sys, t.cfg.invokeTimeout, t.cfg.ignorePanics)

	seq, err := gnr.Generate(t.drawLength(params))
	if errors.Is(err, generator.GenerationExhaustedError) {
		out.skipped = true
		return out
	}
	if err != nil {
		out.err = err
		return out
	}

	trace, verdict, err := exec.Execute(seq)
	if err != nil {
		out.err = err
		return out
	}
	if !verdict.Failed {
		return out
	}

	shr := shrinker.New(gnr, exec, t.cfg.shrinkSameReason)
	minSeq, minTrace, minVerdict, err := shr.Shrink(seq, trace, verdict)
	if err != nil {
		out.err = err
		return out
	}

	out.failure = &Failure[S]{
		Trial:    trial,
		Seed:     seed,
		Original: seq,
		Minimal:  minSeq,
		Trace:    minTrace,
		Verdict:  minVerdict,
	}
	return out
}

// Draw the target sequence length of a trial from the value generator.
func (t Test[T, S]) drawLength(params *gopter.GenParameters) int {
	if value, ok := gen.IntRange(1, t.cfg.maxCommands)(params).Retrieve(); ok {
		return value.(int)
	}
	return t.cfg.maxCommands
}

func (t Test[T, S]) buildReport(outcomes []trialOutcome[S]) *Report[S] {
	slices.SortFunc(outcomes, func(a, b trialOutcome[S]) bool {
		return a.trial < b.trial
	})

	report := &Report[S]{
		Seed:   t.cfg.seed,
		Trials: t.cfg.trials,
	}
	for _, out := range outcomes {
		switch {
		case out.err != nil:
			report.Errors = append(report.Errors, out.err)
		case out.failure != nil:
			report.Failures = append(report.Failures, out.failure)
		case out.skipped:
			report.Skipped++
		default:
			report.Passed++
		}
	}
	return report
}
