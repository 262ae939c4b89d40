package device

import (
	"fmt"
	"strings"
)

// Kind identifies a device variant.
type Kind int

const (
	KindResistive Kind = iota + 1
	KindHeatPump
	KindBattery
	KindPV
)

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindResistive, KindHeatPump, KindBattery, KindPV}
}

func (k Kind) String() string {
	switch k {
	case KindResistive:
		return "resistive"
	case KindHeatPump:
		return "heat_pump"
	case KindBattery:
		return "battery"
	case KindPV:
		return "pv"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind resolves a configured kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resistive":
		return KindResistive, nil
	case "heat_pump", "bidir_hp":
		return KindHeatPump, nil
	case "battery":
		return KindBattery, nil
	case "pv":
		return KindPV, nil
	}
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, k.String())
	}
	return 0, fmt.Errorf("%w %q, known: %s", ErrUnknownKind, s, strings.Join(names, ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
