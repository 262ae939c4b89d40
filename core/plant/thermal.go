package plant

// ThermalResult is the outcome of one envelope update.
type ThermalResult struct {
	NextC  float64
	LossKW float64
	DeltaC float64
}

// StepThermal advances the indoor temperature by one step:
//
//	T' = clamp(T + h/C * (U*(Tamb - T) + heat), min, max)
//
// heatKW is the net thermal power already summed on the bus.
func StepThermal(p ThermalParams, indoorC, ambientC, heatKW float64) ThermalResult {
	loss := p.LossKWPerC * (ambientC - indoorC)
	delta := (p.Hours() / max(p.CapacitanceKWhPerC, eps)) * (loss + heatKW)
	return ThermalResult{
		NextC:  clamp(indoorC+delta, p.MinTempC, p.MaxTempC),
		LossKW: loss,
		DeltaC: delta,
	}
}

// SteadyStateTemp is the indoor temperature reached when ambient and thermal
// power are held constant: Tamb + heat/U. A zone without losses stays at
// ambient by convention.
func SteadyStateTemp(p ThermalParams, ambientC, heatKW float64) float64 {
	if p.LossKWPerC <= 0 {
		return ambientC
	}
	return clamp(ambientC+heatKW/p.LossKWPerC, p.MinTempC, p.MaxTempC)
}
