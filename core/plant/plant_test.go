package plant

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

const tol = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b)) }

func testThermal() ThermalParams {
	return ThermalParams{Step: 15 * time.Minute, CapacitanceKWhPerC: 2, LossKWPerC: 0.3, MinTempC: -10, MaxTempC: 40}
}

func testBattery() BatteryParams {
	return BatteryParams{CapacityKWh: 5, MaxChargeKW: 3, MaxDischargeKW: 3, ChargeEff: 0.95, DischargeEff: 0.95, MinSoC: 0.1, MaxSoC: 0.9}
}

func soc(v float64) *float64 { return &v }

func TestStepThermal_AmbientLoss(t *testing.T) {
	p := testThermal()
	res := StepThermal(p, 20, 5, 0)
	want := 20 + (0.25/2)*0.3*(5-20)
	if !approx(res.NextC, want) {
		t.Fatalf("expected %v got %v", want, res.NextC)
	}
	if !approx(res.LossKW, 0.3*(5-20)) {
		t.Fatalf("unexpected loss %v", res.LossKW)
	}
}

func TestStepThermal_Clip(t *testing.T) {
	p := testThermal()
	if got := StepThermal(p, 39.9, 39.9, 1000).NextC; got != 40 {
		t.Fatalf("expected upper clip, got %v", got)
	}
	if got := StepThermal(p, -9.9, -9.9, -1000).NextC; got != -10 {
		t.Fatalf("expected lower clip, got %v", got)
	}
}

func TestStepThermal_ZeroCapacitanceIsFinite(t *testing.T) {
	p := testThermal()
	p.CapacitanceKWhPerC = 0
	got := StepThermal(p, 20, 10, 2).NextC
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite temperature, got %v", got)
	}
}

func TestSteadyStateTemp(t *testing.T) {
	p := testThermal()
	if got := SteadyStateTemp(p, 5, 3); !approx(got, 15) {
		t.Fatalf("expected 15 got %v", got)
	}
	p.LossKWPerC = 0
	if got := SteadyStateTemp(p, 5, 3); got != 5 {
		t.Fatalf("lossless zone should stay at ambient, got %v", got)
	}
}

func TestProjectBattery_UpperBoundScaling(t *testing.T) {
	b := BatteryParams{CapacityKWh: 5, MaxChargeKW: 3, MaxDischargeKW: 3, ChargeEff: 0.95, DischargeEff: 1, MinSoC: 0, MaxSoC: 0.9}
	p := ProjectBattery(2, 0, soc(0.88), b, time.Hour)
	if p.SoC == nil || !approx(*p.SoC, 0.9) {
		t.Fatalf("expected soc at upper bound, got %v", p.SoC)
	}
	want := 0.02 * 5 / 0.95
	if !approx(p.ChargeKW, want) {
		t.Fatalf("expected charge %v got %v", want, p.ChargeKW)
	}
	if p.DischargeKW != 0 {
		t.Fatalf("unexpected discharge %v", p.DischargeKW)
	}
}

func TestProjectBattery_LowerBoundScaling(t *testing.T) {
	b := testBattery()
	p := ProjectBattery(0, 3, soc(0.2), b, time.Hour)
	if !approx(*p.SoC, 0.1) {
		t.Fatalf("expected soc at lower bound, got %v", *p.SoC)
	}
	want := 0.1 * 5 * 0.95
	if !approx(p.DischargeKW, want) {
		t.Fatalf("expected discharge %v got %v", want, p.DischargeKW)
	}
}

func TestProjectBattery_Exclusivity(t *testing.T) {
	b := testBattery()
	cases := []struct {
		name       string
		ch, dis    float64
		wantCh     bool
		wantDisPos bool
	}{
		{"charge larger", 2, 1, true, false},
		{"discharge larger", 1, 2, false, true},
		{"tie keeps charge", 1.5, 1.5, true, false},
		{"clipped tie keeps charge", 10, 10, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := ProjectBattery(c.ch, c.dis, soc(0.5), b, 15*time.Minute)
			if (p.ChargeKW > 0) != c.wantCh || (p.DischargeKW > 0) != c.wantDisPos {
				t.Fatalf("unexpected flows charge=%v discharge=%v", p.ChargeKW, p.DischargeKW)
			}
		})
	}
}

func TestProjectBattery_PowerLimits(t *testing.T) {
	b := testBattery()
	p := ProjectBattery(50, -4, soc(0.5), b, time.Minute)
	if p.ChargeKW != 3 || p.DischargeKW != 0 {
		t.Fatalf("expected clip to 3 kW, got %v/%v", p.ChargeKW, p.DischargeKW)
	}
}

func TestProjectBattery_Disabled(t *testing.T) {
	b := testBattery()
	b.CapacityKWh = 0
	p := ProjectBattery(2, 0, soc(0.5), b, time.Hour)
	if p.ChargeKW != 0 || p.DischargeKW != 0 || p.SoC != nil {
		t.Fatalf("disabled battery must be inert, got %+v", p)
	}
	b = testBattery()
	p = ProjectBattery(2, 0, nil, b, time.Hour)
	if p.SoC != nil || p.ChargeKW != 0 {
		t.Fatalf("missing soc must be inert, got %+v", p)
	}
}

func TestProjectBattery_AlreadyOutOfBounds(t *testing.T) {
	b := testBattery()
	p := ProjectBattery(3, 0, soc(0.95), b, time.Hour)
	if p.ChargeKW != 0 || *p.SoC != 0.9 {
		t.Fatalf("expected no charge and clamp to max, got %v soc=%v", p.ChargeKW, *p.SoC)
	}
	p = ProjectBattery(0, 3, soc(0.05), b, time.Hour)
	if p.DischargeKW != 0 || *p.SoC != 0.1 {
		t.Fatalf("expected no discharge and clamp to min, got %v soc=%v", p.DischargeKW, *p.SoC)
	}
}

// The correction is a single pass. Exclusivity runs first, so opposing
// requests never both survive into the SoC correction; this loop checks the
// invariants hold over extreme request and parameter combinations.
func TestProjectBattery_PropertyExtremes(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	extremes := []float64{-1e6, -1, 0, 1e-12, 0.5, 1, 3, 1e6, math.MaxFloat64}
	for i := 0; i < 20000; i++ {
		lo := r.Float64() * 0.5
		hi := lo + r.Float64()*(1-lo)
		b := BatteryParams{
			CapacityKWh:    []float64{1e-9, 1e-3, 1, 13.5, 1e4}[r.IntN(5)],
			MaxChargeKW:    r.Float64() * 10,
			MaxDischargeKW: r.Float64() * 10,
			ChargeEff:      0.05 + 0.95*r.Float64(),
			DischargeEff:   0.05 + 0.95*r.Float64(),
			MinSoC:         lo,
			MaxSoC:         hi,
		}
		ch := extremes[r.IntN(len(extremes))]
		dis := extremes[r.IntN(len(extremes))]
		step := time.Duration(1+r.IntN(240)) * time.Minute
		start := r.Float64()
		p := ProjectBattery(ch, dis, &start, b, step)
		if p.ChargeKW > 0 && p.DischargeKW > 0 {
			t.Fatalf("both flows positive: %+v", p)
		}
		if p.ChargeKW < 0 || p.DischargeKW < 0 || p.ChargeKW > b.MaxChargeKW || p.DischargeKW > b.MaxDischargeKW {
			t.Fatalf("flows outside limits: %+v params %+v", p, b)
		}
		if *p.SoC < b.MinSoC || *p.SoC > b.MaxSoC || math.IsNaN(*p.SoC) {
			t.Fatalf("soc %v outside [%v, %v]", *p.SoC, b.MinSoC, b.MaxSoC)
		}
	}
}

func FuzzProjectBattery(f *testing.F) {
	f.Add(2.0, 0.0, 0.88, 5.0, 0.95, 0.95, 0.1, 0.9)
	f.Add(3.0, 3.0, 0.5, 1e-9, 1.0, 1.0, 0.0, 1.0)
	f.Fuzz(func(t *testing.T, ch, dis, start, capKWh, etaC, etaD, lo, hi float64) {
		for _, v := range []float64{ch, dis, start, capKWh, etaC, etaD, lo, hi} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Skip()
			}
		}
		b := BatteryParams{CapacityKWh: capKWh, MaxChargeKW: 3, MaxDischargeKW: 3, ChargeEff: etaC, DischargeEff: etaD, MinSoC: lo, MaxSoC: hi}
		if b.Validate() != nil || !b.Enabled() {
			t.Skip()
		}
		p := ProjectBattery(ch, dis, &start, b, time.Hour)
		if p.ChargeKW > 0 && p.DischargeKW > 0 {
			t.Fatalf("both flows positive: %+v", p)
		}
		if *p.SoC < lo || *p.SoC > hi {
			t.Fatalf("soc %v outside [%v, %v]", *p.SoC, lo, hi)
		}
	})
}

func TestNetGrid(t *testing.T) {
	x := Exogenous{BaseLoadKW: 1, PVAvailableKW: 4}
	cases := []struct {
		name       string
		ports      Ports
		proj       Projection
		grid       GridLimits
		wantImport float64
		wantExport float64
		wantPV     float64
		wantSurp   float64
	}{
		{"import", Ports{LoadKW: 2}, Projection{}, GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}, 3, 0, 0, 0},
		{"export", Ports{PVUsedKW: 4}, Projection{}, GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}, 0, 3, 4, 0},
		{"export disabled", Ports{PVUsedKW: 4}, Projection{}, GridLimits{ImportCapKW: Unlimited}, 0, 0, 4, 3},
		{"pv clamped to available", Ports{PVUsedKW: 9}, Projection{}, GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}, 0, 3, 4, 0},
		{"battery charge adds demand", Ports{}, Projection{ChargeKW: 2}, GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}, 3, 0, 0, 0},
		{"battery discharge offsets", Ports{LoadKW: 1}, Projection{DischargeKW: 2}, GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}, 0, 0, 0, 0},
		{"import capped", Ports{LoadKW: 10}, Projection{}, GridLimits{ImportCapKW: 5, ExportAllowed: true}, 5, 0, 0, 0},
		{"negative load floored", Ports{LoadKW: -3}, Projection{}, GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}, 1, 0, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NetGrid(x, c.ports, c.proj, c.grid, 30*time.Minute)
			if !approx(g.ImportKW, c.wantImport) || !approx(g.ExportKW, c.wantExport) {
				t.Fatalf("import/export = %v/%v, want %v/%v", g.ImportKW, g.ExportKW, c.wantImport, c.wantExport)
			}
			if !approx(g.PVUsedKW, c.wantPV) || !approx(g.SurplusKW, c.wantSurp) {
				t.Fatalf("pv/surplus = %v/%v, want %v/%v", g.PVUsedKW, g.SurplusKW, c.wantPV, c.wantSurp)
			}
			if !approx(g.ImportKWh, g.ImportKW*0.5) || !approx(g.ExportKWh, g.ExportKW*0.5) {
				t.Fatalf("energy does not match power: %+v", g)
			}
		})
	}
}

func TestStep_ZeroBusReducesToAmbientLoss(t *testing.T) {
	p := Params{Thermal: testThermal(), Grid: GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}}
	s := NewState(21, 0.5, p.Battery)
	next, d := Step(p, s, Exogenous{AmbientC: 3}, Ports{})
	want := 21 + (0.25/2)*(0.3*(3-21))
	if next.IndoorC != want {
		t.Fatalf("expected exactly %v got %v", want, next.IndoorC)
	}
	if next.SoC != nil || d.SoC != nil {
		t.Fatalf("no battery configured, soc must be absent")
	}
	if d.ImportKW != 0 || d.ExportKW != 0 {
		t.Fatalf("expected idle grid, got %+v", d)
	}
}

func TestStep_DoesNotAliasState(t *testing.T) {
	p := Params{Thermal: testThermal(), Battery: testBattery(), Grid: GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}}
	s := NewState(20, 0.5, p.Battery)
	before := *s.SoC
	next, d := Step(p, s, Exogenous{AmbientC: 10}, Ports{ChargeKW: 2})
	if *s.SoC != before {
		t.Fatalf("input state mutated")
	}
	if next.SoC == s.SoC || d.SoC == next.SoC {
		t.Fatalf("soc pointer aliased across records")
	}
	if *next.SoC <= before {
		t.Fatalf("expected soc to rise, got %v", *next.SoC)
	}
}

func TestStep_UsesProjectedFlows(t *testing.T) {
	p := Params{Thermal: testThermal(), Battery: testBattery(), Grid: GridLimits{ImportCapKW: Unlimited, ExportAllowed: true}}
	p.Thermal.Step = time.Hour
	s := NewState(20, 0.88, p.Battery)
	_, d := Step(p, s, Exogenous{AmbientC: 20}, Ports{ChargeKW: 3})
	if d.RequestedChargeKW != 3 {
		t.Fatalf("requested charge not reported")
	}
	if d.ChargeKW >= 3 || !approx(d.ImportKW, d.ChargeKW) {
		t.Fatalf("netting must use projected charge: %+v", d)
	}
}

func TestStep_PropertyInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 5000; i++ {
		p := Params{
			Thermal: testThermal(),
			Battery: testBattery(),
			Grid:    GridLimits{ImportCapKW: r.Float64() * 10, ExportAllowed: r.IntN(2) == 0},
		}
		s := NewState(r.Float64()*60-15, r.Float64(), p.Battery)
		x := Exogenous{AmbientC: r.Float64()*60 - 20, BaseLoadKW: r.Float64()*4 - 1, PVAvailableKW: r.Float64()*8 - 1}
		ports := Ports{
			HeatKW:      r.Float64()*20 - 10,
			LoadKW:      r.Float64() * 5,
			ChargeKW:    r.Float64() * 5,
			DischargeKW: r.Float64() * 5,
			PVUsedKW:    r.Float64() * 8,
		}
		next, d := Step(p, s, x, ports)
		if next.IndoorC < p.Thermal.MinTempC || next.IndoorC > p.Thermal.MaxTempC {
			t.Fatalf("temperature %v outside clip range", next.IndoorC)
		}
		if *next.SoC < p.Battery.MinSoC || *next.SoC > p.Battery.MaxSoC {
			t.Fatalf("soc %v outside bounds", *next.SoC)
		}
		if d.ChargeKW > 0 && d.DischargeKW > 0 {
			t.Fatalf("battery both charging and discharging")
		}
		if d.PVUsedKW < 0 || d.PVUsedKW > math.Max(0, x.PVAvailableKW) {
			t.Fatalf("pv used %v outside [0, %v]", d.PVUsedKW, x.PVAvailableKW)
		}
		if d.ImportKW < 0 || d.ExportKW < 0 || d.ImportKW > p.Grid.ImportCapKW {
			t.Fatalf("invalid grid flows %+v", d)
		}
		if !p.Grid.ExportAllowed && d.ExportKW != 0 {
			t.Fatalf("export must be zero when disabled")
		}
	}
}

func TestParamsValidate(t *testing.T) {
	p := Params{Thermal: testThermal(), Battery: testBattery(), Grid: GridLimits{ImportCapKW: Unlimited}}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := p
	bad.Thermal.Step = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for zero step")
	}
	bad = p
	bad.Battery.MinSoC = 0.95
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for inverted soc bounds")
	}
	bad = p
	bad.Battery.CapacityKWh = 0
	bad.Battery.ChargeEff = 0
	if err := bad.Validate(); err != nil {
		t.Fatalf("disabled battery must validate, got %v", err)
	}
}

func TestNewState(t *testing.T) {
	b := testBattery()
	s := NewState(20, 1.5, b)
	if s.SoC == nil || *s.SoC != 0.9 {
		t.Fatalf("expected clamped soc 0.9, got %v", s.SoC)
	}
	c := s.Clone()
	*c.SoC = 0.2
	if *s.SoC != 0.9 {
		t.Fatalf("clone shares soc")
	}
}
