package config

import "time"

type TrialsOption struct{ N int }

func (o TrialsOption) TestOpt() {}

type MaxCommandsOption struct{ N int }

func (o MaxCommandsOption) TestOpt() {}

type SeedOption struct{ Seed int64 }

func (o SeedOption) TestOpt() {}

type NumConcurrentOption struct{ N int }

func (o NumConcurrentOption) TestOpt() {}

type InvokeTimeoutOption struct{ Timeout time.Duration }

func (o InvokeTimeoutOption) TestOpt() {}

type RequireFullLengthOption struct{}

func (o RequireFullLengthOption) TestOpt() {}

type ShrinkSameReasonOption struct{}

func (o ShrinkSameReasonOption) TestOpt() {}

type IgnorePanicOption struct{}

func (o IgnorePanicOption) TestOpt() {}
