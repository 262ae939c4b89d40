package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/plantsim/core/cost"
	"github.com/kilianp07/plantsim/core/plant"
)

// ScenarioConfig describes the initial conditions, the comfort band and
// the exogenous series of a run.
type ScenarioConfig struct {
	InitialTempC  *float64 `json:"initial_temp_c"`
	InitialSoC    *float64 `json:"initial_soc"`
	SetpointC     *float64 `json:"setpoint_c"`
	ComfortWidthC *float64 `json:"comfort_width_c"`
	// HorizonSteps crops the series. Zero keeps the whole series.
	HorizonSteps int    `json:"horizon_steps"`
	SeriesPath   string `json:"series_path"`
}

// SetDefaults fills absent values. An explicit zero is kept.
func (c *ScenarioConfig) SetDefaults() {
	setDefault(&c.InitialTempC, 19)
	setDefault(&c.SetpointC, 21)
	setDefault(&c.ComfortWidthC, 2)
	setDefault(&c.InitialSoC, 0.5)
}

// Validate checks the horizon.
func (c ScenarioConfig) Validate() error {
	if c.HorizonSteps < 0 {
		return fmt.Errorf("scenario: horizon_steps must be non-negative, got %d", c.HorizonSteps)
	}
	return nil
}

// ThermalConfig describes the thermal zone and the step length.
type ThermalConfig struct {
	StepMinutes        float64   `json:"step_minutes"`
	CapacitanceKWhPerC float64   `json:"capacitance_kwh_per_c"`
	LossKWPerC         *float64  `json:"loss_kw_per_c"`
	ClipTempC          []float64 `json:"clip_temp_c"`
}

// SetDefaults applies sane defaults.
func (c *ThermalConfig) SetDefaults() {
	if c.StepMinutes == 0 {
		c.StepMinutes = 15
	}
	if c.CapacitanceKWhPerC == 0 {
		c.CapacitanceKWhPerC = 2.0
	}
	setDefault(&c.LossKWPerC, 0.30)
	if len(c.ClipTempC) == 0 {
		c.ClipTempC = []float64{plant.DefaultMinTempC, plant.DefaultMaxTempC}
	}
}

// Step returns the step duration.
func (c ThermalConfig) Step() time.Duration {
	return time.Duration(c.StepMinutes * float64(time.Minute))
}

// Validate checks the shape of the clip range. Value checks are left to
// plant.ThermalParams.
func (c ThermalConfig) Validate() error {
	if len(c.ClipTempC) != 2 {
		return fmt.Errorf("thermal: clip_temp_c needs two values, got %d", len(c.ClipTempC))
	}
	return nil
}

// Params converts the section.
func (c ThermalConfig) Params() plant.ThermalParams {
	lo, hi := plant.DefaultMinTempC, plant.DefaultMaxTempC
	if len(c.ClipTempC) == 2 {
		lo, hi = c.ClipTempC[0], c.ClipTempC[1]
	}
	return plant.ThermalParams{
		Step:               c.Step(),
		CapacitanceKWhPerC: c.CapacitanceKWhPerC,
		LossKWPerC:         valueOr(c.LossKWPerC, 0.30),
		MinTempC:           lo,
		MaxTempC:           hi,
	}
}

// BatteryConfig describes the stationary battery. A zero capacity
// disables it.
type BatteryConfig struct {
	CapacityKWh    float64  `json:"capacity_kwh"`
	MaxChargeKW    float64  `json:"max_charge_kw"`
	MaxDischargeKW float64  `json:"max_discharge_kw"`
	ChargeEff      float64  `json:"charge_efficiency"`
	DischargeEff   float64  `json:"discharge_efficiency"`
	MinSoC         float64  `json:"min_soc"`
	MaxSoC         *float64 `json:"max_soc"`
}

// SetDefaults applies sane defaults.
func (c *BatteryConfig) SetDefaults() {
	if c.ChargeEff == 0 {
		c.ChargeEff = 1
	}
	if c.DischargeEff == 0 {
		c.DischargeEff = 1
	}
	setDefault(&c.MaxSoC, 1)
}

// Params converts the section.
func (c BatteryConfig) Params() plant.BatteryParams {
	return plant.BatteryParams{
		CapacityKWh:    c.CapacityKWh,
		MaxChargeKW:    c.MaxChargeKW,
		MaxDischargeKW: c.MaxDischargeKW,
		ChargeEff:      c.ChargeEff,
		DischargeEff:   c.DischargeEff,
		MinSoC:         c.MinSoC,
		MaxSoC:         valueOr(c.MaxSoC, 1),
	}
}

// GridConfig describes the point of connection. An absent import cap
// means unlimited import.
type GridConfig struct {
	ImportCapKW   *float64 `json:"import_cap_kw"`
	ExportAllowed *bool    `json:"export_allowed"`
}

// SetDefaults allows export unless configured otherwise.
func (c *GridConfig) SetDefaults() {
	if c.ExportAllowed == nil {
		allowed := true
		c.ExportAllowed = &allowed
	}
}

// Limits converts the section.
func (c GridConfig) Limits() plant.GridLimits {
	g := plant.GridLimits{ImportCapKW: plant.Unlimited, ExportAllowed: true}
	if c.ImportCapKW != nil {
		g.ImportCapKW = *c.ImportCapKW
	}
	if c.ExportAllowed != nil {
		g.ExportAllowed = *c.ExportAllowed
	}
	return g
}

// CostConfig holds the objective weights.
type CostConfig struct {
	// LambdaTemp weighs the comfort penalty. Zero disables it.
	LambdaTemp *float64 `json:"lambda_temp_eur_per_c_h"`
}

// SetDefaults applies sane defaults.
func (c *CostConfig) SetDefaults() {
	setDefault(&c.LambdaTemp, cost.DefaultLambdaTemp)
}

func setDefault(p **float64, v float64) {
	if *p == nil {
		*p = &v
	}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
