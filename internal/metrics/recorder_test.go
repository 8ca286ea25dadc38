package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testRecorder struct {
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	renderCount    int
	outcomes       map[RenderOutcome]int
	depths         []int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		outcomes:       map[RenderOutcome]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) ObserveRenderDuration(time.Duration)    { t.renderCount++ }
func (t *testRecorder) IncRenderOutcome(outcome RenderOutcome) { t.outcomes[outcome]++ }
func (t *testRecorder) ObserveLayoutDepth(depth int)           { t.depths = append(t.depths, depth) }

func TestRecorderImplementations(t *testing.T) {
	for _, r := range []Recorder{NoopRecorder{}, newTestRecorder(), NewPrometheusRecorder(nil)} {
		r.ObserveStageDuration("validate", time.Millisecond)
		r.IncStageResult("validate", ResultSuccess)
		r.ObserveRenderDuration(time.Millisecond)
		r.IncRenderOutcome(OutcomeSuccess)
		r.ObserveLayoutDepth(2)
	}

	tr := newTestRecorder()
	tr.IncStageResult("css", ResultFatal)
	tr.IncStageResult("css", ResultFatal)
	require.Equal(t, 2, tr.stageResults["css"][ResultFatal])
}
