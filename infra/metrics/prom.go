package metrics

import (
	"errors"
	"strconv"

	coremetrics "github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes plant steps as Prometheus metrics.
type PromSink struct {
	indoor *prometheus.GaugeVec
	soc    *prometheus.GaugeVec
	grid   *prometheus.GaugeVec
	heat   *prometheus.GaugeVec
	energy *prometheus.CounterVec
	cost   *prometheus.CounterVec
	steps  *prometheus.CounterVec
	slack  prometheus.Histogram
	runs   *prometheus.CounterVec
}

// NewPromSink registers plant metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink(namespace string) (*PromSink, error) {
	return NewPromSinkWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(namespace string, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.indoor, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plant_indoor_temperature_celsius",
		Help:      "Indoor temperature at the end of the last step",
	}, []string{"run_id"})); err != nil {
		return nil, err
	}
	if s.soc, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plant_battery_soc_ratio",
		Help:      "Battery state of charge at the end of the last step",
	}, []string{"run_id"})); err != nil {
		return nil, err
	}
	if s.grid, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plant_grid_power_kw",
		Help:      "Grid exchange during the last step",
	}, []string{"run_id", "direction"})); err != nil {
		return nil, err
	}
	if s.heat, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plant_device_heat_kw",
		Help:      "Heat delivered by each device during the last step, negative when cooling",
	}, []string{"run_id", "device", "mode"})); err != nil {
		return nil, err
	}
	if s.energy, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plant_grid_energy_kwh_total",
		Help:      "Energy exchanged with the grid",
	}, []string{"run_id", "direction"})); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plant_cost_eur_total",
		Help:      "Accumulated step cost by component",
	}, []string{"run_id", "component"})); err != nil {
		return nil, err
	}
	if s.steps, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plant_steps_total",
		Help:      "Number of simulated steps",
	}, []string{"run_id"})); err != nil {
		return nil, err
	}
	if s.slack, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "plant_comfort_slack_celsius",
		Help:      "Distance of the indoor temperature to the comfort band",
		Buckets:   []float64{0, 0.25, 0.5, 1, 2, 4, 8},
	})); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plant_runs_total",
		Help:      "Finished simulation runs by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

// RecordStep updates the gauges and counters with one step.
func (s *PromSink) RecordStep(ev model.StepEvent) error {
	d := ev.Diagnostics
	s.indoor.WithLabelValues(ev.RunID).Set(d.IndoorC)
	if d.SoC != nil {
		s.soc.WithLabelValues(ev.RunID).Set(*d.SoC)
	}
	s.grid.WithLabelValues(ev.RunID, "import").Set(d.ImportKW)
	s.grid.WithLabelValues(ev.RunID, "export").Set(d.ExportKW)
	for i, out := range ev.Outputs {
		s.heat.WithLabelValues(ev.RunID, strconv.Itoa(i), string(out.Mode)).Set(out.HeatKW)
	}
	s.energy.WithLabelValues(ev.RunID, "import").Add(d.ImportKWh)
	s.energy.WithLabelValues(ev.RunID, "export").Add(d.ExportKWh)
	s.cost.WithLabelValues(ev.RunID, "energy").Add(ev.Cost.EnergyCostEUR)
	s.cost.WithLabelValues(ev.RunID, "comfort").Add(ev.Cost.ComfortPenaltyEUR)
	s.steps.WithLabelValues(ev.RunID).Inc()
	s.slack.Observe(ev.Cost.SlackBelowC + ev.Cost.SlackAboveC)
	return nil
}

// RecordRun counts the finished run by outcome.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	outcome := "completed"
	if ev.Err != "" {
		outcome = "failed"
	}
	s.runs.WithLabelValues(outcome).Inc()
	return nil
}
