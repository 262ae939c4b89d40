package plant

// Step performs one plant transition. The input state is neither mutated nor
// aliased by the returned state.
func Step(p Params, s State, x Exogenous, ports Ports) (State, Diagnostics) {
	th := StepThermal(p.Thermal, s.IndoorC, x.AmbientC, ports.HeatKW)
	proj := ProjectBattery(ports.ChargeKW, ports.DischargeKW, s.SoC, p.Battery, p.Thermal.Step)
	grid := NetGrid(x, ports, proj, p.Grid, p.Thermal.Step)

	next := State{IndoorC: th.NextC, SoC: proj.SoC}
	d := Diagnostics{
		IndoorC:     th.NextC,
		PrevIndoorC: s.IndoorC,
		AmbientC:    x.AmbientC,
		DeltaC:      th.DeltaC,
		LossKW:      th.LossKW,
		HeatKW:      ports.HeatKW,

		RequestedChargeKW:    ports.ChargeKW,
		RequestedDischargeKW: ports.DischargeKW,
		ChargeKW:             proj.ChargeKW,
		DischargeKW:          proj.DischargeKW,

		LoadKW:        grid.LoadKW,
		LoadKWh:       grid.LoadKW * p.Thermal.Hours(),
		BaseLoadKW:    grid.BaseLoadKW,
		PVUsedKW:      grid.PVUsedKW,
		PVAvailableKW: x.PVAvailableKW,
		NetDemandKW:   grid.NetDemandKW,
		ImportKW:      grid.ImportKW,
		ExportKW:      grid.ExportKW,
		ImportKWh:     grid.ImportKWh,
		ExportKWh:     grid.ExportKWh,
		SurplusKW:     grid.SurplusKW,
	}
	if proj.SoC != nil {
		v := *proj.SoC
		d.SoC = &v
	}
	return next, d
}
