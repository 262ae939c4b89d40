package device

import "math"

// PVInverter curtails the available PV power by its action.
type PVInverter struct {
	clip Clamp
}

// NewPVInverter returns an inverter.
func NewPVInverter() PVInverter { return PVInverter{clip: unitRange} }

func (PVInverter) Kind() Kind            { return KindPV }
func (PVInverter) ActionDim() int        { return 1 }
func (p PVInverter) ActionBounds() Clamp { return p.clip }

// Forward uses a fraction of the available PV power. Missing or negative
// availability counts as zero.
func (p PVInverter) Forward(a Action, in Inputs) (Output, error) {
	avail := 0.0
	if in.PVAvailableKW != nil {
		avail = math.Max(0, *in.PVAvailableKW)
	}
	used := math.Max(0, p.clip.Apply(a.at(0))*avail)
	mode := ModeIdle
	if used > 0 {
		mode = ModeGenerate
	}
	return Output{PVUsedKW: used, EnergyKWh: used * in.Step.Hours(), Mode: mode}, nil
}
