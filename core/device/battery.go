package device

import "fmt"

// BatteryActuatorConfig holds the parameters of a battery actuator. Paired
// selects the two-value encoding (charge, discharge) in [0,1]²; otherwise a
// single signed value in [-1,1] is read, positive meaning charge.
type BatteryActuatorConfig struct {
	MaxChargeKW    float64 `json:"max_charge_kw"`
	MaxDischargeKW float64 `json:"max_discharge_kw"`
	Paired         bool    `json:"paired"`
}

// BatteryActuator turns an action into charge and discharge intents. The
// plant projects them onto the feasible region; the actuator does not.
type BatteryActuator struct {
	BatteryActuatorConfig
	clip Clamp
}

// NewBatteryActuator validates cfg and returns the actuator.
func NewBatteryActuator(cfg BatteryActuatorConfig) (BatteryActuator, error) {
	if cfg.MaxChargeKW < 0 || cfg.MaxDischargeKW < 0 {
		return BatteryActuator{}, fmt.Errorf("%w: battery power limits must be non-negative", ErrInvalidConfig)
	}
	b := BatteryActuator{BatteryActuatorConfig: cfg, clip: bipolarRange}
	if cfg.Paired {
		b.clip = unitRange
	}
	return b, nil
}

func (BatteryActuator) Kind() Kind            { return KindBattery }
func (b BatteryActuator) ActionBounds() Clamp { return b.clip }

func (b BatteryActuator) ActionDim() int {
	if b.Paired {
		return 2
	}
	return 1
}

// Forward returns the charge or discharge intent. In paired mode only the
// larger request survives; a tie keeps charge.
func (b BatteryActuator) Forward(a Action, _ Inputs) (Output, error) {
	var ch, dis float64
	if b.Paired {
		ch = b.clip.Apply(a.at(0))
		dis = b.clip.Apply(a.at(1))
		if ch >= dis {
			dis = 0
		} else {
			ch = 0
		}
	} else {
		u := b.clip.Apply(a.at(0))
		if u >= 0 {
			ch = u
		} else {
			dis = -u
		}
	}
	out := Output{ChargeKW: ch * b.MaxChargeKW, DischargeKW: dis * b.MaxDischargeKW, Mode: ModeIdle}
	switch {
	case out.ChargeKW > 0:
		out.Mode = ModeCharge
	case out.DischargeKW > 0:
		out.Mode = ModeDischarge
	}
	return out, nil
}
