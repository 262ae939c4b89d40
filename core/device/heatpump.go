package device

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// minLookupCOP floors any injected COP lookup.
const minLookupCOP = 0.1

// COPFunc returns the coefficient of performance at an ambient temperature.
// It should be monotonic in temperature.
type COPFunc func(ambientC float64) float64

// COPCurve is a tabulated COP lookup, interpolated piecewise linearly and
// held flat outside the tabulated range.
type COPCurve struct {
	TempsC []float64 `json:"temps_c"`
	COPs   []float64 `json:"cops"`
}

// HeatPumpConfig holds the parameters of a bidirectional heat pump.
type HeatPumpConfig struct {
	MaxPowerKW     float64   `json:"max_power_kw"`
	COPRef         float64   `json:"cop_ref"`
	TRefC          float64   `json:"t_ref_c"`
	SlopePerC      float64   `json:"cop_slope_per_c"`
	COPMin         float64   `json:"cop_min"`
	COPMax         float64   `json:"cop_max"`
	UnsignedAction bool      `json:"unsigned_action"`
	Curve          *COPCurve `json:"cop_curve,omitempty"`
}

// DefaultHeatPumpConfig returns the affine COP model defaults.
func DefaultHeatPumpConfig() HeatPumpConfig {
	return HeatPumpConfig{COPRef: 3.0, TRefC: 7.0, SlopePerC: 0.05, COPMin: 1.5, COPMax: 5.5}
}

// HeatPump heats for positive actions and cools for negative ones. Its
// efficiency depends on the ambient temperature, so Forward requires it.
type HeatPump struct {
	HeatPumpConfig
	lookup COPFunc
	clip   Clamp
}

// HeatPumpOption customizes a HeatPump.
type HeatPumpOption func(*HeatPump)

// WithCOPFunc injects a COP lookup, replacing the affine model and any
// configured curve.
func WithCOPFunc(f COPFunc) HeatPumpOption {
	return func(h *HeatPump) { h.lookup = f }
}

// NewHeatPump validates cfg and returns the heat pump.
func NewHeatPump(cfg HeatPumpConfig, opts ...HeatPumpOption) (HeatPump, error) {
	if cfg.MaxPowerKW < 0 {
		return HeatPump{}, fmt.Errorf("%w: heat pump max power must be non-negative", ErrInvalidConfig)
	}
	if cfg.COPMin > cfg.COPMax {
		return HeatPump{}, fmt.Errorf("%w: cop band [%g, %g] is inverted", ErrInvalidConfig, cfg.COPMin, cfg.COPMax)
	}
	h := HeatPump{HeatPumpConfig: cfg, clip: bipolarRange}
	if cfg.UnsignedAction {
		h.clip = unitRange
	}
	if cfg.Curve != nil {
		f, err := cfg.Curve.lookup()
		if err != nil {
			return HeatPump{}, err
		}
		h.lookup = f
	}
	for _, o := range opts {
		o(&h)
	}
	return h, nil
}

func (c COPCurve) lookup() (COPFunc, error) {
	if len(c.TempsC) != len(c.COPs) || len(c.TempsC) < 2 {
		return nil, fmt.Errorf("%w: cop curve needs at least 2 matching points", ErrInvalidConfig)
	}
	xs := append([]float64(nil), c.TempsC...)
	inds := make([]int, len(xs))
	floats.Argsort(xs, inds)
	ys := make([]float64, len(inds))
	for i, j := range inds {
		ys[i] = c.COPs[j]
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: cop curve: %v", ErrInvalidConfig, err)
	}
	return pl.Predict, nil
}

func (HeatPump) Kind() Kind            { return KindHeatPump }
func (HeatPump) ActionDim() int        { return 1 }
func (h HeatPump) ActionBounds() Clamp { return h.clip }

// COP returns the efficiency at the given ambient temperature.
func (h HeatPump) COP(ambientC float64) float64 {
	if h.lookup != nil {
		return math.Max(minLookupCOP, h.lookup(ambientC))
	}
	raw := h.COPRef + h.SlopePerC*(ambientC-h.TRefC)
	return math.Min(h.COPMax, math.Max(h.COPMin, raw))
}

// Forward draws MaxPowerKW*|u| and moves COP times that as heat, signed by
// the action.
func (h HeatPump) Forward(a Action, in Inputs) (Output, error) {
	if in.AmbientC == nil {
		return Output{}, fmt.Errorf("%s: ambient temperature: %w", KindHeatPump, ErrMissingExogenous)
	}
	u := h.clip.Apply(a.at(0))
	if h.UnsignedAction {
		u = 2*u - 1
	}
	load := h.MaxPowerKW * math.Abs(u)
	cop := h.COP(*in.AmbientC)
	sign := 1.0
	mode := ModeIdle
	switch {
	case u > 0:
		mode = ModeHeat
	case u < 0:
		sign = -1
		mode = ModeCool
	}
	return Output{
		HeatKW:    sign * cop * load,
		LoadKW:    load,
		EnergyKWh: load * in.Step.Hours(),
		Mode:      mode,
		COP:       cop,
	}, nil
}
