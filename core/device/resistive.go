package device

import "fmt"

// ResistiveConfig holds the parameters of a resistive heater.
type ResistiveConfig struct {
	MaxPowerKW float64 `json:"max_power_kw"`
	Efficiency float64 `json:"efficiency"`
}

// Resistive is an electric heater converting its draw into heat. It cannot
// cool.
type Resistive struct {
	ResistiveConfig
	clip Clamp
}

// NewResistive validates cfg and returns the heater. A zero efficiency is
// taken as 1.
func NewResistive(cfg ResistiveConfig) (Resistive, error) {
	if cfg.Efficiency == 0 {
		cfg.Efficiency = 1
	}
	if cfg.MaxPowerKW < 0 || cfg.Efficiency < 0 {
		return Resistive{}, fmt.Errorf("%w: resistive power and efficiency must be non-negative", ErrInvalidConfig)
	}
	return Resistive{ResistiveConfig: cfg, clip: unitRange}, nil
}

func (Resistive) Kind() Kind            { return KindResistive }
func (Resistive) ActionDim() int        { return 1 }
func (r Resistive) ActionBounds() Clamp { return r.clip }

// Forward draws MaxPowerKW*a and delivers Efficiency times that as heat.
func (r Resistive) Forward(a Action, in Inputs) (Output, error) {
	u := r.clip.Apply(a.at(0))
	load := r.MaxPowerKW * u
	mode := ModeIdle
	if u > 0 {
		mode = ModeHeat
	}
	return Output{
		HeatKW:    r.Efficiency * load,
		LoadKW:    load,
		EnergyKWh: load * in.Step.Hours(),
		Mode:      mode,
	}, nil
}
