package sim

import (
	"context"

	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/plant"
)

// Policy chooses the device actions of each step.
type Policy interface {
	// Act returns one action per device for step k, given the state at the
	// start of the step and the step's exogenous inputs.
	Act(ctx context.Context, k int, s plant.State, x plant.Exogenous) ([]device.Action, error)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, k int, s plant.State, x plant.Exogenous) ([]device.Action, error)

func (f PolicyFunc) Act(ctx context.Context, k int, s plant.State, x plant.Exogenous) ([]device.Action, error) {
	return f(ctx, k, s, x)
}

// ConstantPolicy replays the same actions at every step.
type ConstantPolicy []device.Action

// Act returns a copy of the constant actions.
func (p ConstantPolicy) Act(context.Context, int, plant.State, plant.Exogenous) ([]device.Action, error) {
	out := make([]device.Action, len(p))
	for i, a := range p {
		out[i] = append(device.Action(nil), a...)
	}
	return out, nil
}
