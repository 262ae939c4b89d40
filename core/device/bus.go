package device

import (
	"fmt"

	"github.com/kilianp07/plantsim/core/plant"
)

// Collect runs every device on its action and sums the contributions onto a
// fresh bus. The per-device outputs are returned in device order. A device
// error aborts the collection and is returned wrapped, never dropped.
func Collect(devs []Device, actions []Action, in Inputs) (plant.Ports, []Output, error) {
	if len(actions) != len(devs) {
		return plant.Ports{}, nil, fmt.Errorf("%w: %d devices, %d actions", ErrActionCount, len(devs), len(actions))
	}
	var ports plant.Ports
	outs := make([]Output, len(devs))
	for i, d := range devs {
		out, err := d.Forward(actions[i], in)
		if err != nil {
			return plant.Ports{}, nil, fmt.Errorf("device %d (%s): %w", i, d.Kind(), err)
		}
		outs[i] = out
		ports = ports.Add(out.Ports())
	}
	return ports, outs, nil
}

// ActionDims returns the action dimensionality of each device, in order.
func ActionDims(devs []Device) []int {
	dims := make([]int, len(devs))
	for i, d := range devs {
		dims[i] = d.ActionDim()
	}
	return dims
}

// CheckActions reports actions that do not line up with devs, either in
// count or in the length of a device's action.
func CheckActions(devs []Device, actions []Action) error {
	if len(actions) != len(devs) {
		return fmt.Errorf("%w: %d devices, %d actions", ErrActionCount, len(devs), len(actions))
	}
	for i, d := range devs {
		if n := d.ActionDim(); len(actions[i]) != n {
			return fmt.Errorf("%w: device %d (%s) takes %d values, got %d", ErrActionCount, i, d.Kind(), n, len(actions[i]))
		}
	}
	return nil
}

// SplitActions slices a flat action vector per device according to each
// device's ActionDim.
func SplitActions(devs []Device, flat []float64) ([]Action, error) {
	want := 0
	for _, d := range devs {
		want += d.ActionDim()
	}
	if len(flat) != want {
		return nil, fmt.Errorf("%w: expected %d action values, got %d", ErrActionCount, want, len(flat))
	}
	out := make([]Action, len(devs))
	off := 0
	for i, d := range devs {
		n := d.ActionDim()
		out[i] = Action(flat[off : off+n : off+n])
		off += n
	}
	return out, nil
}
