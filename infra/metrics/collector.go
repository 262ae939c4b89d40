package metrics

import (
	coremetrics "github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/infra/logger"
	"github.com/kilianp07/plantsim/internal/eventbus"
)

// StartStepCollector subscribes to the bus and records every step on sink
// until the bus is closed. The returned channel is closed once the last
// event has been recorded.
func StartStepCollector(bus *eventbus.TypedBus[model.StepEvent], sink coremetrics.Sink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		for ev := range sub {
			if err := sink.RecordStep(ev); err != nil {
				log.Warnf("record step %d of run %s: %v", ev.Index, ev.RunID, err)
			}
		}
	}()
	return done
}
