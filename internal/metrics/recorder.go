package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// RenderOutcome is the final status of one render invocation.
type RenderOutcome string

const (
	OutcomeSuccess  RenderOutcome = "success"
	OutcomeFailed   RenderOutcome = "failed"
	OutcomeCanceled RenderOutcome = "canceled"
)

// Recorder defines observability hooks for render and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRenderDuration(d time.Duration)
	IncRenderOutcome(outcome RenderOutcome)
	ObserveLayoutDepth(depth int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRenderDuration(time.Duration)        {}
func (NoopRecorder) IncRenderOutcome(RenderOutcome)             {}
func (NoopRecorder) ObserveLayoutDepth(int)                     {}
