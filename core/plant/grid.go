package plant

import "time"

// Grid is the electrical balance at the point of connection.
type Grid struct {
	LoadKW      float64
	BaseLoadKW  float64
	PVUsedKW    float64
	NetDemandKW float64
	ImportKW    float64
	ExportKW    float64
	ImportKWh   float64
	ExportKWh   float64
	// SurplusKW is generation that could not be exported because export is
	// disabled. It is discarded, not fed back to the PV device.
	SurplusKW float64
}

// NetGrid nets base load, device load and PV against the projected battery
// flows. Import is clipped to the configured cap without further signal.
func NetGrid(x Exogenous, ports Ports, proj Projection, g GridLimits, step time.Duration) Grid {
	load := max(0, ports.LoadKW)
	base := max(0, x.BaseLoadKW)
	pv := clamp(ports.PVUsedKW, 0, max(0, x.PVAvailableKW))

	net := base + load + proj.ChargeKW - pv - proj.DischargeKW
	out := Grid{LoadKW: load, BaseLoadKW: base, PVUsedKW: pv, NetDemandKW: net}
	out.ImportKW = max(0, net)
	if g.ExportAllowed {
		out.ExportKW = max(0, -net)
	} else {
		out.SurplusKW = max(0, -net)
	}
	out.ImportKW = min(out.ImportKW, g.ImportCapKW)

	h := step.Hours()
	out.ImportKWh = out.ImportKW * h
	out.ExportKWh = out.ExportKW * h
	return out
}
