package metrics

import (
	"time"

	"github.com/kilianp07/plantsim/core/cost"
	"github.com/kilianp07/plantsim/core/model"
)

// Sink records completed plant steps for observability purposes.
type Sink interface {
	RecordStep(ev model.StepEvent) error
}

// RunEvent summarizes a finished run.
type RunEvent struct {
	RunID    string
	Steps    int
	Totals   cost.Totals
	Started  time.Time
	Finished time.Time
	// Err is the error that stopped the run, if any.
	Err string
}

// RunRecorder is implemented by sinks that record run summaries.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStep(model.StepEvent) error { return nil }
func (NopSink) RecordRun(RunEvent) error         { return nil }

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStep forwards the step to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordStep(ev model.StepEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordStep(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun forwards run summaries to the sinks supporting them.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if rr, ok := s.(RunRecorder); ok {
			if err := rr.RecordRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
