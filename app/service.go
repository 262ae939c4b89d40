package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/plantsim/config"
	"github.com/kilianp07/plantsim/core/device"
	coremetrics "github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/model"
	coremon "github.com/kilianp07/plantsim/core/monitoring"
	"github.com/kilianp07/plantsim/core/scenario"
	"github.com/kilianp07/plantsim/core/sim"
	"github.com/kilianp07/plantsim/core/steplog"
	"github.com/kilianp07/plantsim/infra/logger"
	"github.com/kilianp07/plantsim/infra/metrics"
	"github.com/kilianp07/plantsim/infra/monitoring"
	"github.com/kilianp07/plantsim/infra/mqtt"
	"github.com/kilianp07/plantsim/internal/eventbus"
)

// Service wires a configured runner to its observers. A Service runs once.
type Service struct {
	Runner   *sim.Runner
	Devices  []device.Device
	bus      *eventbus.TypedBus[model.StepEvent]
	sink     coremetrics.Sink
	store    steplog.Store
	pub      *mqtt.Publisher
	rollout  *rollout
	mon      coremon.Monitor
	done     []<-chan struct{}
	log      logger.Logger
	promAddr string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	devs, err := device.NewAll(cfg.Devices)
	if err != nil {
		return nil, err
	}
	series, err := scenario.LoadSeries(cfg.Scenario.SeriesPath, cfg.Thermal.Step(), cfg.Scenario.HorizonSteps)
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	store, err := steplog.Open(cfg.Store)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("step store: %w", err)
	}

	svc := &Service{
		Devices:  devs,
		bus:      eventbus.NewTyped[model.StepEvent](eventbus.DefaultBuffer),
		sink:     sink,
		store:    store,
		rollout:  &rollout{},
		mon:      mon,
		log:      logg,
		promAddr: cfg.Metrics.PrometheusAddr,
	}
	if cfg.Telemetry.Enabled {
		pub, err := mqtt.NewPublisher(cfg.Telemetry)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
		svc.done = append(svc.done, metrics.StartStepCollector(svc.bus, pub, logg))
	}
	svc.done = append(svc.done, metrics.StartStepCollector(svc.bus, svc.rollout, logg))

	opts := []sim.Option{
		sim.WithSink(sink),
		sim.WithBus(svc.bus),
		sim.WithLogger(logger.New("runner")),
		sim.WithMonitor(mon),
	}
	if store != nil {
		opts = append(opts, sim.WithStore(store))
	}
	runner, err := sim.NewRunner(sim.Config{
		Params:  cfg.Params(),
		Devices: devs,
		Series:  series,
		Cost:    cfg.CostParams(),
		Initial: cfg.InitialState(),
	}, opts...)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	svc.Runner = runner
	return svc, nil
}

// Run simulates the scenario with policy and waits until every observer
// has seen the last step. The Prometheus endpoint, when configured, is
// served until ctx is done.
func (s *Service) Run(ctx context.Context, policy sim.Policy) (sim.Summary, error) {
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	sum, err := s.Runner.Run(ctx, policy)
	s.bus.Close()
	for _, d := range s.done {
		<-d
	}
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("%d step events dropped", n)
	}
	if s.pub != nil {
		ev := coremetrics.RunEvent{
			RunID:    sum.RunID,
			Steps:    sum.Steps,
			Totals:   sum.Totals,
			Started:  sum.Started,
			Finished: sum.Finished,
		}
		if err != nil {
			ev.Err = err.Error()
		}
		if perr := s.pub.RecordRun(ev); perr != nil {
			s.log.Warnf("publish summary: %v", perr)
		}
	}
	return sum, err
}

// Steps returns the step events of the last run in order.
func (s *Service) Steps() []model.StepEvent { return s.rollout.events() }

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.pub != nil {
		s.pub.Disconnect()
	}
	closeSink(s.sink)
	s.mon.Flush(2 * time.Second)
	return s.closeStore()
}

func (s *Service) closeStore() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func closeSink(sink coremetrics.Sink) {
	switch c := sink.(type) {
	case interface{ Close() }:
		c.Close()
	case *coremetrics.MultiSink:
		for _, inner := range c.Sinks {
			closeSink(inner)
		}
	}
}

// rollout keeps every step event seen on the bus.
type rollout struct {
	mu    sync.Mutex
	steps []model.StepEvent
}

func (r *rollout) RecordStep(ev model.StepEvent) error {
	r.mu.Lock()
	r.steps = append(r.steps, ev)
	r.mu.Unlock()
	return nil
}

func (r *rollout) events() []model.StepEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.StepEvent(nil), r.steps...)
}
