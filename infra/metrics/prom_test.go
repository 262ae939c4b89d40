package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/plantsim/core/cost"
	coremetrics "github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/core/plant"
)

func sampleStep(run string, idx int) model.StepEvent {
	soc := 0.75
	return model.StepEvent{
		RunID: run,
		Index: idx,
		Outputs: []device.Output{
			{HeatKW: 1.5, LoadKW: 1.5, Mode: device.ModeHeat},
		},
		Diagnostics: plant.Diagnostics{IndoorC: 20.5, ImportKW: 2, ImportKWh: 0.5, SoC: &soc},
		Cost:        cost.Breakdown{EnergyCostEUR: 0.1, ComfortPenaltyEUR: 0.25, SlackBelowC: 0.5},
	}
}

func TestPromSink_RecordStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry("", reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := sink.RecordStep(sampleStep("r1", i)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	expected := `
# HELP plant_grid_energy_kwh_total Energy exchanged with the grid
# TYPE plant_grid_energy_kwh_total counter
plant_grid_energy_kwh_total{direction="export",run_id="r1"} 0
plant_grid_energy_kwh_total{direction="import",run_id="r1"} 1
`
	if err := testutil.CollectAndCompare(sink.energy, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected energy metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.steps.WithLabelValues("r1")); v != 2 {
		t.Errorf("expected 2 steps, got %v", v)
	}
	if v := testutil.ToFloat64(sink.soc.WithLabelValues("r1")); v != 0.75 {
		t.Errorf("expected soc 0.75, got %v", v)
	}
	if v := testutil.ToFloat64(sink.heat.WithLabelValues("r1", "0", "heat")); v != 1.5 {
		t.Errorf("expected device heat 1.5, got %v", v)
	}
	if c := testutil.CollectAndCount(sink.slack); c != 1 {
		t.Errorf("expected slack histogram, got %d series", c)
	}

	if err := sink.RecordRun(coremetrics.RunEvent{RunID: "r1", Err: "boom"}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if v := testutil.ToFloat64(sink.runs.WithLabelValues("failed")); v != 1 {
		t.Errorf("expected failed run counted, got %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry("plantsim", reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	b, err := NewPromSinkWithRegistry("plantsim", reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if err := b.RecordStep(sampleStep("r2", 0)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if v := testutil.ToFloat64(a.steps.WithLabelValues("r2")); v != 1 {
		t.Fatalf("expected shared collector, got %v", v)
	}
}
