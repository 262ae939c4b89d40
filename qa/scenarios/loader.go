package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/plantsim/core/cost"
	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/plant"
	"github.com/kilianp07/plantsim/core/scenario"
)

type DeviceDef struct {
	Kind string         `yaml:"kind"`
	Conf map[string]any `yaml:"conf"`
}

func (d DeviceDef) ToSpec() device.Spec {
	return device.Spec{Kind: d.Kind, Conf: d.Conf}
}

// RowDef is one exogenous step, optionally repeated.
type RowDef struct {
	AmbientC   float64 `yaml:"t_out_c"`
	Price      float64 `yaml:"price_eur_per_kwh"`
	PVKW       float64 `yaml:"pv_kw"`
	BaseLoadKW float64 `yaml:"base_load_kw"`
	Repeat     int     `yaml:"repeat"`
}

type BatteryDef struct {
	CapacityKWh    float64 `yaml:"capacity_kwh"`
	MaxChargeKW    float64 `yaml:"max_charge_kw"`
	MaxDischargeKW float64 `yaml:"max_discharge_kw"`
	InitialSoC     float64 `yaml:"initial_soc"`
}

type PlantDef struct {
	StepMinutes        float64    `yaml:"step_minutes"`
	CapacitanceKWhPerC float64    `yaml:"capacitance_kwh_per_c"`
	LossKWPerC         float64    `yaml:"loss_kw_per_c"`
	InitialTempC       float64    `yaml:"initial_temp_c"`
	Battery            BatteryDef `yaml:"battery"`
	ImportCapKW        *float64   `yaml:"import_cap_kw"`
	ExportAllowed      *bool      `yaml:"export_allowed"`
}

// Range bounds an observed value. Nil ends are open.
type Range struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

type Expected struct {
	Steps           int   `yaml:"steps"`
	FinalIndoorC    Range `yaml:"final_indoor_c"`
	FinalSoC        Range `yaml:"final_soc"`
	ImportKWh       Range `yaml:"import_kwh"`
	ExportKWh       Range `yaml:"export_kwh"`
	DiscomfortSteps *int  `yaml:"discomfort_steps"`
}

type CostDef struct {
	SetpointC     float64 `yaml:"setpoint_c"`
	ComfortWidthC float64 `yaml:"comfort_width_c"`
	LambdaTemp    float64 `yaml:"lambda_temp_eur_per_c_h"`
}

// ToParams applies the configuration defaults to unset fields.
func (c CostDef) ToParams() cost.Params {
	p := cost.Params{SetpointC: 21, ComfortWidthC: 2, LambdaTemp: cost.DefaultLambdaTemp}
	if c.SetpointC != 0 {
		p.SetpointC = c.SetpointC
	}
	if c.ComfortWidthC != 0 {
		p.ComfortWidthC = c.ComfortWidthC
	}
	if c.LambdaTemp != 0 {
		p.LambdaTemp = c.LambdaTemp
	}
	return p
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Plant       PlantDef    `yaml:"plant"`
	Devices     []DeviceDef `yaml:"devices"`
	Actions     [][]float64 `yaml:"actions"`
	Rows        []RowDef    `yaml:"rows"`
	Cost        CostDef     `yaml:"cost"`
	Expected    Expected    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) step() time.Duration {
	m := s.Plant.StepMinutes
	if m == 0 {
		m = 15
	}
	return time.Duration(m * float64(time.Minute))
}

// Params converts the plant definition with the usual defaults.
func (s *Scenario) Params() plant.Params {
	p := plant.Params{
		Thermal: plant.ThermalParams{
			Step:               s.step(),
			CapacitanceKWhPerC: s.Plant.CapacitanceKWhPerC,
			LossKWPerC:         s.Plant.LossKWPerC,
			MinTempC:           plant.DefaultMinTempC,
			MaxTempC:           plant.DefaultMaxTempC,
		},
		Battery: plant.BatteryParams{
			CapacityKWh:    s.Plant.Battery.CapacityKWh,
			MaxChargeKW:    s.Plant.Battery.MaxChargeKW,
			MaxDischargeKW: s.Plant.Battery.MaxDischargeKW,
			ChargeEff:      1,
			DischargeEff:   1,
			MaxSoC:         1,
		},
		Grid: plant.GridLimits{ImportCapKW: plant.Unlimited, ExportAllowed: true},
	}
	if s.Plant.ImportCapKW != nil {
		p.Grid.ImportCapKW = *s.Plant.ImportCapKW
	}
	if s.Plant.ExportAllowed != nil {
		p.Grid.ExportAllowed = *s.Plant.ExportAllowed
	}
	return p
}

// Series expands the repeated rows into a scenario series.
func (s *Scenario) Series() (*scenario.Series, error) {
	step := s.step()
	var rows []scenario.Row
	for _, r := range s.Rows {
		n := r.Repeat
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			rows = append(rows, scenario.Row{
				T:              len(rows),
				DtH:            step.Hours(),
				AmbientC:       r.AmbientC,
				PriceEURPerKWh: r.Price,
				PVKW:           r.PVKW,
				BaseLoadKW:     r.BaseLoadKW,
			})
		}
	}
	return scenario.NewSeries(rows, step, 0)
}
