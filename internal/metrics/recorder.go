package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// Recorder defines observability hooks for VCS driver and build-step metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder is injected by default so callers never need nil checks.
type Recorder interface {
	ObserveDriverOp(vcsType, op string, d time.Duration, result ResultLabel)
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, result ResultLabel)
	AddPollChanges(vcsType string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDriverOp(string, string, time.Duration, ResultLabel) {}
func (NoopRecorder) ObserveStepDuration(string, time.Duration)                  {}
func (NoopRecorder) IncStepResult(string, ResultLabel)                          {}
func (NoopRecorder) AddPollChanges(string, int)                                 {}

// ResultOf maps an error to its ResultLabel.
func ResultOf(err error) ResultLabel {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
