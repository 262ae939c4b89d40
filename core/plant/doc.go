// Package plant implements the state update of a single thermal zone coupled
// to an electrical bus.
//
// A step consumes the current State, the exogenous inputs of the step and the
// Ports accumulated from every device, and returns the next State plus a
// Diagnostics record. The order inside Step is fixed: thermal update, battery
// projection, then grid netting on the projected battery flows.
//
// All functions are pure. Callers own the state between steps and must not
// share one State across concurrent steppers.
package plant
