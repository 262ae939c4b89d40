package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/plantsim/core/model"
)

type recordSink struct {
	steps, runs int
	err         error
}

func (r *recordSink) RecordStep(model.StepEvent) error {
	r.steps++
	return r.err
}

func (r *recordSink) RecordRun(RunEvent) error {
	r.runs++
	return nil
}

type stepOnly struct{ steps int }

func (s *stepOnly) RecordStep(model.StepEvent) error {
	s.steps++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &stepOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordStep(model.StepEvent{}); err != nil {
		t.Fatalf("record step: %v", err)
	}
	if err := m.RecordRun(RunEvent{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if s1.steps != 1 || s1.runs != 1 || s2.steps != 1 {
		t.Fatalf("events not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSink_FirstError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &stepOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordStep(model.StepEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s2.steps != 0 {
		t.Fatalf("expected fan-out to stop at first error")
	}
}
