package plant

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// eps guards every denominator of the plant equations.
const eps = 1e-9

// Unlimited is the import cap of a grid connection without a limit.
var Unlimited = math.Inf(1)

// ErrInvalidParams is returned by the Validate methods.
var ErrInvalidParams = errors.New("invalid plant parameters")

// DefaultMinTempC and DefaultMaxTempC bound the indoor temperature when no
// clip range is configured.
const (
	DefaultMinTempC = -10.0
	DefaultMaxTempC = 40.0
)

// ThermalParams describes the single-zone RC envelope.
type ThermalParams struct {
	Step               time.Duration
	CapacitanceKWhPerC float64 // thermal capacitance
	LossKWPerC         float64 // heat loss coefficient towards ambient
	MinTempC           float64
	MaxTempC           float64
}

// Hours returns the step duration in hours.
func (p ThermalParams) Hours() float64 { return p.Step.Hours() }

// Validate checks the step and clip range.
func (p ThermalParams) Validate() error {
	if p.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %s", ErrInvalidParams, p.Step)
	}
	if p.MinTempC > p.MaxTempC {
		return fmt.Errorf("%w: clip range [%g, %g] is inverted", ErrInvalidParams, p.MinTempC, p.MaxTempC)
	}
	if p.CapacitanceKWhPerC < 0 || p.LossKWPerC < 0 {
		return fmt.Errorf("%w: capacitance and loss coefficient must be non-negative", ErrInvalidParams)
	}
	return nil
}

// BatteryParams describes a bucket battery. A battery with a non-positive
// capacity is inert.
type BatteryParams struct {
	CapacityKWh    float64
	MaxChargeKW    float64
	MaxDischargeKW float64
	ChargeEff      float64
	DischargeEff   float64
	MinSoC         float64
	MaxSoC         float64
}

// Enabled reports whether the battery takes part in the step.
func (b BatteryParams) Enabled() bool { return b.CapacityKWh > 0 }

// Validate checks efficiencies and charge-fraction bounds of an enabled
// battery. Disabled batteries are always valid.
func (b BatteryParams) Validate() error {
	if !b.Enabled() {
		return nil
	}
	if b.MaxChargeKW < 0 || b.MaxDischargeKW < 0 {
		return fmt.Errorf("%w: battery power limits must be non-negative", ErrInvalidParams)
	}
	if b.ChargeEff <= 0 || b.ChargeEff > 1 || b.DischargeEff <= 0 || b.DischargeEff > 1 {
		return fmt.Errorf("%w: battery efficiencies must be in (0, 1]", ErrInvalidParams)
	}
	if b.MinSoC < 0 || b.MaxSoC > 1 || b.MinSoC > b.MaxSoC {
		return fmt.Errorf("%w: soc bounds [%g, %g] must be ordered within [0, 1]", ErrInvalidParams, b.MinSoC, b.MaxSoC)
	}
	return nil
}

func (b BatteryParams) clampSoC(soc float64) float64 {
	return clamp(soc, b.MinSoC, b.MaxSoC)
}

// GridLimits describes the point of connection.
type GridLimits struct {
	ImportCapKW   float64
	ExportAllowed bool
}

// Validate rejects negative import caps.
func (g GridLimits) Validate() error {
	if g.ImportCapKW < 0 || math.IsNaN(g.ImportCapKW) {
		return fmt.Errorf("%w: import cap must be non-negative", ErrInvalidParams)
	}
	return nil
}

// Params bundles the constant parameters of a scenario.
type Params struct {
	Thermal ThermalParams
	Battery BatteryParams
	Grid    GridLimits
}

// Validate checks every parameter group.
func (p Params) Validate() error {
	if err := p.Thermal.Validate(); err != nil {
		return err
	}
	if err := p.Battery.Validate(); err != nil {
		return err
	}
	return p.Grid.Validate()
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
