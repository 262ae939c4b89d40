package device

import (
	"fmt"

	"github.com/kilianp07/plantsim/core/factory"
)

// Spec is the configuration entry of one device: a kind name and its
// kind-specific parameters.
type Spec struct {
	Kind string         `json:"kind"`
	Conf map[string]any `json:"conf"`
}

// New builds the device described by spec. Unknown keys in Conf are
// rejected.
func New(spec Spec) (Device, error) {
	kind, err := ParseKind(spec.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindResistive:
		var c ResistiveConfig
		if err := decode(spec.Conf, &c); err != nil {
			return nil, err
		}
		return NewResistive(c)
	case KindHeatPump:
		c := DefaultHeatPumpConfig()
		if err := decode(spec.Conf, &c); err != nil {
			return nil, err
		}
		return NewHeatPump(c)
	case KindBattery:
		var c BatteryActuatorConfig
		if err := decode(spec.Conf, &c); err != nil {
			return nil, err
		}
		return NewBatteryActuator(c)
	case KindPV:
		var c struct{}
		if err := decode(spec.Conf, &c); err != nil {
			return nil, err
		}
		return NewPVInverter(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, spec.Kind)
}

// NewAll builds every device in order and stops at the first failure.
func NewAll(specs []Spec) ([]Device, error) {
	devs := make([]Device, 0, len(specs))
	for i, s := range specs {
		d, err := New(s)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}
		devs = append(devs, d)
	}
	return devs, nil
}

func decode(conf map[string]any, out any) error {
	if len(conf) == 0 {
		return nil
	}
	if err := factory.DecodeStrict(conf, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
