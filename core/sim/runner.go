// Package sim drives the plant over a scenario: each step it asks a policy
// for device actions, sums the device contributions, advances the plant,
// scores the step and hands the result to the observers of the run.
package sim

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/plantsim/core/cost"
	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/core/monitoring"
	"github.com/kilianp07/plantsim/core/plant"
	"github.com/kilianp07/plantsim/core/scenario"
	"github.com/kilianp07/plantsim/core/steplog"
	"github.com/kilianp07/plantsim/infra/logger"
	"github.com/kilianp07/plantsim/internal/eventbus"
)

// Config describes what a Runner simulates.
type Config struct {
	Params  plant.Params
	Devices []device.Device
	Series  *scenario.Series
	Cost    cost.Params
	Initial plant.State
	// Start is the wall-clock time of step 0. Zero means the run start.
	Start time.Time
}

// Runner steps a plant over a scenario.
type Runner struct {
	cfg   Config
	sink  metrics.Sink
	store steplog.Store
	bus   *eventbus.TypedBus[model.StepEvent]
	log   logger.Logger
	mon   monitoring.Monitor
	newID func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSink records every step and the run summary on s.
func WithSink(s metrics.Sink) Option { return func(r *Runner) { r.sink = s } }

// WithStore appends every step to s. Store errors abort the run.
func WithStore(s steplog.Store) Option { return func(r *Runner) { r.store = s } }

// WithBus publishes every step on b. The caller owns b and closes it after
// the run.
func WithBus(b *eventbus.TypedBus[model.StepEvent]) Option { return func(r *Runner) { r.bus = b } }

// WithLogger sets the run logger.
func WithLogger(l logger.Logger) Option { return func(r *Runner) { r.log = l } }

// WithMonitor reports failed runs to m. Cancellation is not reported.
func WithMonitor(m monitoring.Monitor) Option { return func(r *Runner) { r.mon = m } }

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option { return func(r *Runner) { r.newID = func() string { return id } } }

// NewRunner validates cfg and returns a runner.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cost.Validate(); err != nil {
		return nil, err
	}
	if cfg.Series == nil {
		return nil, fmt.Errorf("%w: no series", scenario.ErrInvalidSeries)
	}
	if cfg.Series.Step() != cfg.Params.Thermal.Step {
		return nil, fmt.Errorf("%w: series step %s differs from plant step %s",
			scenario.ErrInvalidSeries, cfg.Series.Step(), cfg.Params.Thermal.Step)
	}
	r := &Runner{cfg: cfg, sink: metrics.NopSink{}, log: logger.NopLogger{}, mon: monitoring.NopMonitor{}, newID: uuid.NewString}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Run simulates every step of the series with actions from policy. On error
// the summary covers the steps completed so far. The context is checked
// before each step.
func (r *Runner) Run(ctx context.Context, policy Policy) (Summary, error) {
	sum := Summary{RunID: r.newID(), Started: time.Now()}
	start := r.cfg.Start
	if start.IsZero() {
		start = sum.Started
	}
	step := r.cfg.Params.Thermal.Step
	state := r.cfg.Initial.Clone()
	var acc accumulator

	r.log.Infof("run %s: %d steps of %s with %d devices", sum.RunID, r.cfg.Series.Len(), step, len(r.cfg.Devices))
	err := func() error {
		for k := 0; k < r.cfg.Series.Len(); k++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			ev, next, err := r.step(ctx, policy, k, state)
			if err != nil {
				return fmt.Errorf("step %d: %w", k, err)
			}
			ev.RunID = sum.RunID
			ev.Timestamp = start.Add(time.Duration(k+1) * step)
			if err := r.emit(ctx, ev); err != nil {
				return fmt.Errorf("step %d: %w", k, err)
			}
			acc.add(ev)
			state = next
		}
		return nil
	}()

	sum.Finished = time.Now()
	sum.Final = state
	acc.fill(&sum)
	r.recordRun(sum, err)
	if err != nil {
		r.log.Errorf("run %s stopped after %d steps: %v", sum.RunID, sum.Steps, err)
		if !Canceled(err) {
			r.mon.CaptureException(err, map[string]string{
				"run_id": sum.RunID,
				"step":   strconv.Itoa(sum.Steps),
			})
		}
		return sum, err
	}
	r.log.Infow("run finished", map[string]any{
		"run_id":        sum.RunID,
		"steps":         sum.Steps,
		"objective_eur": sum.Totals.ObjectiveEUR,
		"import_kwh":    sum.ImportKWh,
	})
	return sum, nil
}

func (r *Runner) step(ctx context.Context, policy Policy, k int, s plant.State) (model.StepEvent, plant.State, error) {
	x := r.cfg.Series.At(k)
	step := r.cfg.Params.Thermal.Step
	actions, err := policy.Act(ctx, k, s.Clone(), x)
	if err != nil {
		return model.StepEvent{}, s, fmt.Errorf("policy: %w", err)
	}
	ports, outs, err := device.Collect(r.cfg.Devices, actions, device.InputsFor(step, x))
	if err != nil {
		return model.StepEvent{}, s, err
	}
	next, diag := plant.Step(r.cfg.Params, s, x, ports)
	return model.StepEvent{
		Index:       k,
		OffsetH:     float64(k+1) * step.Hours(),
		Exogenous:   x,
		Actions:     actions,
		Outputs:     outs,
		Diagnostics: diag,
		Cost:        cost.Evaluate(r.cfg.Cost, diag, x, step),
	}, next, nil
}

func (r *Runner) emit(ctx context.Context, ev model.StepEvent) error {
	if r.store != nil {
		if err := r.store.Append(ctx, ev); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	if err := r.sink.RecordStep(ev); err != nil {
		r.log.Warnf("metrics sink: %v", err)
	}
	if r.bus != nil {
		if err := r.bus.PublishWait(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) recordRun(sum Summary, runErr error) {
	rr, ok := r.sink.(metrics.RunRecorder)
	if !ok {
		return
	}
	ev := metrics.RunEvent{
		RunID:    sum.RunID,
		Steps:    sum.Steps,
		Totals:   sum.Totals,
		Started:  sum.Started,
		Finished: sum.Finished,
	}
	if runErr != nil {
		ev.Err = runErr.Error()
	}
	if err := rr.RecordRun(ev); err != nil {
		r.log.Warnf("record run: %v", err)
	}
}

// Canceled reports whether err stems from context cancellation.
func Canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
