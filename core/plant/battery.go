package plant

import "time"

// Projection is the feasible battery operating point of one step.
type Projection struct {
	ChargeKW    float64  `json:"charge_kw"`
	DischargeKW float64  `json:"discharge_kw"`
	SoC         *float64 `json:"soc,omitempty"`
}

// ProjectBattery maps the requested charge and discharge powers onto the
// nearest point allowed by the power limits, mutual exclusivity and the
// charge-fraction bounds.
//
// The SoC correction is a single analytic pass: an overflow of the upper
// bound scales charge power down, a shortfall below the lower bound scales
// discharge power down, and the result is clamped into bounds at the end.
// A disabled battery or a missing charge fraction yields zero flows.
func ProjectBattery(reqChargeKW, reqDischargeKW float64, soc *float64, b BatteryParams, step time.Duration) Projection {
	if !b.Enabled() || soc == nil {
		return Projection{}
	}
	h := step.Hours()
	capKWh := max(b.CapacityKWh, eps)
	etaC := max(b.ChargeEff, eps)
	etaD := max(b.DischargeEff, eps)

	pc := clamp(reqChargeKW, 0, b.MaxChargeKW)
	pd := clamp(reqDischargeKW, 0, b.MaxDischargeKW)
	if pc > 0 && pd > 0 {
		if pc >= pd {
			pd = 0
		} else {
			pc = 0
		}
	}

	next := func() float64 {
		return *soc + (etaC*pc*h-pd*h/etaD)/capKWh
	}
	s := next()

	if s > b.MaxSoC && pc > 0 {
		gain := etaC * pc * h / capKWh
		pc *= max(0, 1-(s-b.MaxSoC)/max(gain, eps))
		s = next()
	}
	if s < b.MinSoC && pd > 0 {
		drain := pd * h / (etaD * capKWh)
		pd *= max(0, 1-(b.MinSoC-s)/max(drain, eps))
		s = next()
	}

	s = b.clampSoC(s)
	return Projection{ChargeKW: pc, DischargeKW: pd, SoC: &s}
}
