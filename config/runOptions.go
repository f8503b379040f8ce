package config

import "io"

// Configures the run to stop after the first shrunk failure instead of
// exhausting the trial budget.
type StopOnFirstFailureOption struct{}

func (o StopOnFirstFailureOption) RunOpt() {}

// Configures an io.Writer that the failure records will be exported to.

// Can be applied multiple times to add multiple io.Writers.
// Default value is no writers.
type ExportOption struct {
	W io.Writer
}

func (o ExportOption) RunOpt() {}
