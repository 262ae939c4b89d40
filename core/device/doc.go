// Package device contains the actuators that translate a normalized control
// action into contributions on the plant bus.
//
// Every device is an immutable value implementing Device. Forward is pure:
// identical arguments always produce identical outputs. Out-of-range actions
// are clamped, never rejected. The only runtime failure is a heat pump called
// without an ambient temperature.
//
// The set of kinds is closed. New builds a device from a Spec by switching on
// Kind; there is no open registry.
package device
