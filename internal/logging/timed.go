package logging

import (
	"context"
	"time"
)

// Finisher closes a timed log started with TimedLog.
type Finisher struct {
	logger    Logger
	startTime time.Time
	step      string
}

// TimedLog logs the start of a step and returns a Finisher that reports
// its outcome with the elapsed duration.
func TimedLog(ctx context.Context, logger Logger, startLog string) *Finisher {
	logger.Info(ctx, startLog)
	return &Finisher{
		logger:    logger,
		startTime: time.Now(),
		step:      startLog,
	}
}

// Succeed logs a successful completion of the step.
func (f *Finisher) Succeed(ctx context.Context, msg string) {
	duration := time.Since(f.startTime)
	f.logger.Info(ctx, msg,
		"step", f.step,
		"duration_ms", duration.Milliseconds(),
	)
}

// Fail logs the failure of the step.
func (f *Finisher) Fail(ctx context.Context, err error, msg string) {
	duration := time.Since(f.startTime)
	f.logger.Error(ctx, err, msg,
		"step", f.step,
		"duration_ms", duration.Milliseconds(),
	)
}

// Step returns the start message the finisher was created with.
func (f *Finisher) Step() string {
	return f.step
}
