// Package cost scores plant steps: the energy bill of grid imports plus a
// linear penalty for leaving the comfort band.
package cost

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/plantsim/core/plant"
)

// DefaultLambdaTemp is the default comfort penalty weight in €/(°C·h).
const DefaultLambdaTemp = 2.0

// Params configures the step cost.
type Params struct {
	SetpointC     float64 `json:"setpoint_c"`
	ComfortWidthC float64 `json:"comfort_width_c"`
	// LambdaTemp weights comfort violations in €/(°C·h).
	LambdaTemp float64 `json:"lambda_temp_eur_per_c_h"`
}

// Validate reports whether p is usable.
func (p Params) Validate() error {
	if p.ComfortWidthC < 0 {
		return fmt.Errorf("cost: comfort width must be non-negative, got %g", p.ComfortWidthC)
	}
	if p.LambdaTemp < 0 {
		return fmt.Errorf("cost: lambda must be non-negative, got %g", p.LambdaTemp)
	}
	return nil
}

// ComfortBand returns the band [lo, hi] of the given width centered on the
// setpoint.
func ComfortBand(setpointC, widthC float64) (lo, hi float64) {
	half := 0.5 * widthC
	return setpointC - half, setpointC + half
}

// Slacks returns how far indoorC lies below and above the comfort band. Both
// are zero inside the band and at most one is positive.
func Slacks(indoorC, setpointC, widthC float64) (below, above float64) {
	lo, hi := ComfortBand(setpointC, widthC)
	return math.Max(0, lo-indoorC), math.Max(0, indoorC-hi)
}

// StepCost is the price of the given energy.
func StepCost(priceEURPerKWh, energyKWh float64) float64 {
	return priceEURPerKWh * energyKWh
}

// Breakdown is the cost of one step.
type Breakdown struct {
	EnergyCostEUR     float64 `json:"energy_cost_eur"`
	ComfortPenaltyEUR float64 `json:"comfort_penalty_eur"`
	ObjectiveEUR      float64 `json:"objective_eur"`
	Reward            float64 `json:"reward"`
	SlackBelowC       float64 `json:"slack_below_c"`
	SlackAboveC       float64 `json:"slack_above_c"`
	ComfortLoC        float64 `json:"comfort_lo_c"`
	ComfortHiC        float64 `json:"comfort_hi_c"`
}

// Evaluate scores a completed step. The energy bill uses the grid import of
// the step; exports earn nothing. Comfort is judged on the post-step indoor
// temperature.
func Evaluate(p Params, d plant.Diagnostics, x plant.Exogenous, step time.Duration) Breakdown {
	below, above := Slacks(d.IndoorC, p.SetpointC, p.ComfortWidthC)
	lo, hi := ComfortBand(p.SetpointC, p.ComfortWidthC)
	energy := StepCost(x.PriceEURPerKWh, d.ImportKWh)
	penalty := p.LambdaTemp * (below + above) * step.Hours()
	obj := energy + penalty
	return Breakdown{
		EnergyCostEUR:     energy,
		ComfortPenaltyEUR: penalty,
		ObjectiveEUR:      obj,
		Reward:            -obj,
		SlackBelowC:       below,
		SlackAboveC:       above,
		ComfortLoC:        lo,
		ComfortHiC:        hi,
	}
}

// Totals accumulates breakdowns over a run.
type Totals struct {
	EnergyCostEUR     float64 `json:"energy_cost_eur"`
	ComfortPenaltyEUR float64 `json:"comfort_penalty_eur"`
	ObjectiveEUR      float64 `json:"objective_eur"`
}

// Add folds b into t.
func (t *Totals) Add(b Breakdown) {
	t.EnergyCostEUR += b.EnergyCostEUR
	t.ComfortPenaltyEUR += b.ComfortPenaltyEUR
	t.ObjectiveEUR += b.ObjectiveEUR
}
