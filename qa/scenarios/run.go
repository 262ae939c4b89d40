package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/plant"
	"github.com/kilianp07/plantsim/core/sim"
	"github.com/kilianp07/plantsim/infra/logger"
	"github.com/kilianp07/plantsim/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry("qa", reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	specs := make([]device.Spec, len(sc.Devices))
	for i, d := range sc.Devices {
		specs[i] = d.ToSpec()
	}
	devs, err := device.NewAll(specs)
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	series, err := sc.Series()
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	params := sc.Params()
	runner, err := sim.NewRunner(sim.Config{
		Params:  params,
		Devices: devs,
		Series:  series,
		Cost:    sc.Cost.ToParams(),
		Initial: plant.NewState(sc.Plant.InitialTempC, sc.Plant.Battery.InitialSoC, params.Battery),
	}, sim.WithSink(sink), sim.WithLogger(logger.NopLogger{}), sim.WithRunID(sc.Name))
	if err != nil {
		t.Fatalf("runner: %v", err)
	}

	actions := make([]device.Action, len(sc.Actions))
	for i, a := range sc.Actions {
		actions[i] = a
	}
	if err := device.CheckActions(devs, actions); err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	sum, err := runner.Run(context.Background(), sim.ConstantPolicy(actions))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	exp := sc.Expected
	if sum.Steps != exp.Steps {
		t.Errorf("scenario %s expected %d steps, got %d", sc.Name, exp.Steps, sum.Steps)
	}
	if got := stepsRecorded(t, reg); got != float64(sum.Steps) {
		t.Errorf("scenario %s recorded %v steps in metrics, want %d", sc.Name, got, sum.Steps)
	}
	check(t, sc.Name, "final_indoor_c", sum.Final.IndoorC, exp.FinalIndoorC)
	check(t, sc.Name, "import_kwh", sum.ImportKWh, exp.ImportKWh)
	check(t, sc.Name, "export_kwh", sum.ExportKWh, exp.ExportKWh)
	if exp.FinalSoC.Min != nil || exp.FinalSoC.Max != nil {
		if sum.Final.SoC == nil {
			t.Errorf("scenario %s has no battery state", sc.Name)
		} else {
			check(t, sc.Name, "final_soc", *sum.Final.SoC, exp.FinalSoC)
		}
	}
	if exp.DiscomfortSteps != nil && sum.DiscomfortSteps != *exp.DiscomfortSteps {
		t.Errorf("scenario %s expected %d discomfort steps, got %d", sc.Name, *exp.DiscomfortSteps, sum.DiscomfortSteps)
	}
}

func check(t *testing.T, name, field string, got float64, r Range) {
	t.Helper()
	if r.Min != nil && got < *r.Min {
		t.Errorf("scenario %s: %s = %v below %v", name, field, got, *r.Min)
	}
	if r.Max != nil && got > *r.Max {
		t.Errorf("scenario %s: %s = %v above %v", name, field, got, *r.Max)
	}
}

func stepsRecorded(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != "qa_plant_steps_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
