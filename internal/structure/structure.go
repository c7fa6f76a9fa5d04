// Package structure provides named-block instrumentation for lifecycle steps.
// Blocks are composed explicitly at construction time around each step, so
// the step naming used for logs and metrics is a visible parameter rather
// than hidden decoration.
package structure

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/metrics"
)

// Blocks runs functions as named top-level steps, logging start/finish and
// recording step durations and results.
type Blocks struct {
	recorder metrics.Recorder
}

// New creates a Blocks wrapper using the given metrics recorder.
func New(recorder metrics.Recorder) *Blocks {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Blocks{recorder: recorder}
}

// Run executes fn as the named step. The error from fn is returned unchanged.
func (b *Blocks) Run(name string, fn func() error) error {
	slog.Info("Step started", logfields.Step(name))
	start := time.Now()

	err := fn()

	elapsed := time.Since(start)
	b.recorder.ObserveStepDuration(name, elapsed)
	b.recorder.IncStepResult(name, metrics.ResultOf(err))

	if err != nil {
		slog.Error("Step failed",
			logfields.Step(name),
			logfields.DurationMS(float64(elapsed.Milliseconds())),
			logfields.Error(err))
		return err
	}
	slog.Info("Step finished",
		logfields.Step(name),
		logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}
