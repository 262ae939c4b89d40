package plant

// State is the plant state between two steps. SoC is nil when the scenario
// has no battery.
type State struct {
	IndoorC float64  `json:"indoor_c"`
	SoC     *float64 `json:"soc,omitempty"`
}

// NewState builds the initial state. The charge fraction is clamped into the
// battery bounds, or dropped when the battery is disabled.
func NewState(indoorC, soc float64, b BatteryParams) State {
	s := State{IndoorC: indoorC}
	if b.Enabled() {
		v := b.clampSoC(soc)
		s.SoC = &v
	}
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{IndoorC: s.IndoorC}
	if s.SoC != nil {
		v := *s.SoC
		out.SoC = &v
	}
	return out
}

// Exogenous holds the uncontrolled inputs of one step.
type Exogenous struct {
	AmbientC       float64 `json:"ambient_c"`
	BaseLoadKW     float64 `json:"base_load_kw"`
	PVAvailableKW  float64 `json:"pv_available_kw"`
	PriceEURPerKWh float64 `json:"price_eur_per_kwh"`
}

// Ports is the per-step bus onto which device outputs are summed. HeatKW is
// signed (negative = cooling); every other field is non-negative.
type Ports struct {
	HeatKW      float64 `json:"heat_kw"`
	LoadKW      float64 `json:"load_kw"`
	ChargeKW    float64 `json:"charge_kw"`
	DischargeKW float64 `json:"discharge_kw"`
	PVUsedKW    float64 `json:"pv_used_kw"`
}

// Add returns the field-wise sum of p and o.
func (p Ports) Add(o Ports) Ports {
	return Ports{
		HeatKW:      p.HeatKW + o.HeatKW,
		LoadKW:      p.LoadKW + o.LoadKW,
		ChargeKW:    p.ChargeKW + o.ChargeKW,
		DischargeKW: p.DischargeKW + o.DischargeKW,
		PVUsedKW:    p.PVUsedKW + o.PVUsedKW,
	}
}

// Diagnostics is the full record of one step. It is the only surface
// consumed by cost evaluation, telemetry and exporters.
type Diagnostics struct {
	IndoorC     float64 `json:"indoor_c"`
	PrevIndoorC float64 `json:"prev_indoor_c"`
	AmbientC    float64 `json:"ambient_c"`
	DeltaC      float64 `json:"delta_c"`
	LossKW      float64 `json:"loss_kw"`
	HeatKW      float64 `json:"heat_kw"`

	RequestedChargeKW    float64 `json:"requested_charge_kw"`
	RequestedDischargeKW float64 `json:"requested_discharge_kw"`
	ChargeKW             float64 `json:"charge_kw"`
	DischargeKW          float64 `json:"discharge_kw"`

	LoadKW        float64 `json:"load_kw"`
	LoadKWh       float64 `json:"load_kwh"`
	BaseLoadKW    float64 `json:"base_load_kw"`
	PVUsedKW      float64 `json:"pv_used_kw"`
	PVAvailableKW float64 `json:"pv_available_kw"`
	NetDemandKW   float64 `json:"net_demand_kw"`
	ImportKW      float64 `json:"import_kw"`
	ExportKW      float64 `json:"export_kw"`
	ImportKWh     float64 `json:"import_kwh"`
	ExportKWh     float64 `json:"export_kwh"`
	SurplusKW     float64 `json:"surplus_kw"`

	SoC *float64 `json:"soc,omitempty"`
}
