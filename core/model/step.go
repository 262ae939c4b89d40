// Package model holds the records shared between the simulation runner and
// its observers.
package model

import (
	"time"

	"github.com/kilianp07/plantsim/core/cost"
	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/plant"
)

// StepEvent describes one completed plant step.
type StepEvent struct {
	RunID     string    `json:"run_id"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	// OffsetH is the time from the start of the run to the end of the step.
	OffsetH float64 `json:"offset_h"`

	Exogenous   plant.Exogenous   `json:"exogenous"`
	Actions     []device.Action   `json:"actions"`
	Outputs     []device.Output   `json:"outputs"`
	Diagnostics plant.Diagnostics `json:"diagnostics"`
	Cost        cost.Breakdown    `json:"cost"`
}
