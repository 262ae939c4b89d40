package device

import (
	"errors"
	"time"

	"github.com/kilianp07/plantsim/core/plant"
)

var (
	// ErrUnknownKind is returned when a configured kind is not supported.
	ErrUnknownKind = errors.New("unknown device kind")
	// ErrInvalidConfig is returned for malformed kind-specific parameters.
	ErrInvalidConfig = errors.New("invalid device config")
	// ErrMissingExogenous is returned when a device needs an input the
	// caller did not provide.
	ErrMissingExogenous = errors.New("missing exogenous input")
	// ErrActionCount is returned when actions and devices do not line up.
	ErrActionCount = errors.New("action count mismatch")
)

// Action is the slice of the action vector belonging to one device. Missing
// entries read as zero.
type Action []float64

func (a Action) at(i int) float64 {
	if i < len(a) {
		return a[i]
	}
	return 0
}

// Inputs is the per-call context of Forward. Optional values are nil when the
// caller has none.
type Inputs struct {
	Step          time.Duration
	AmbientC      *float64
	PVAvailableKW *float64
}

// Ptr returns a pointer to v, for building optional inputs.
func Ptr(v float64) *float64 { return &v }

// InputsFor builds inputs carrying every exogenous value of the step.
func InputsFor(step time.Duration, x plant.Exogenous) Inputs {
	return Inputs{Step: step, AmbientC: Ptr(x.AmbientC), PVAvailableKW: Ptr(x.PVAvailableKW)}
}

// Mode is the operating mode reported by a device.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeHeat      Mode = "heat"
	ModeCool      Mode = "cool"
	ModeCharge    Mode = "charge"
	ModeDischarge Mode = "discharge"
	ModeGenerate  Mode = "generate"
)

// Output is the contribution of one device to the bus, plus diagnostics.
// Fields a device does not drive stay zero.
type Output struct {
	HeatKW      float64 `json:"heat_kw"`
	LoadKW      float64 `json:"load_kw"`
	ChargeKW    float64 `json:"charge_kw"`
	DischargeKW float64 `json:"discharge_kw"`
	PVUsedKW    float64 `json:"pv_used_kw"`

	EnergyKWh float64 `json:"energy_kwh"`
	Mode      Mode    `json:"mode"`
	COP       float64 `json:"cop,omitempty"`
}

// Ports returns the bus contribution of o.
func (o Output) Ports() plant.Ports {
	return plant.Ports{
		HeatKW:      o.HeatKW,
		LoadKW:      o.LoadKW,
		ChargeKW:    o.ChargeKW,
		DischargeKW: o.DischargeKW,
		PVUsedKW:    o.PVUsedKW,
	}
}

// Device maps a normalized action onto bus contributions.
type Device interface {
	Kind() Kind
	// ActionDim is the number of action values Forward reads.
	ActionDim() int
	// ActionBounds is the range each action value is clamped to.
	ActionBounds() Clamp
	Forward(a Action, in Inputs) (Output, error)
}
