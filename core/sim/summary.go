package sim

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/plantsim/core/cost"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/core/plant"
)

// Summary aggregates a run.
type Summary struct {
	RunID    string      `json:"run_id"`
	Steps    int         `json:"steps"`
	Totals   cost.Totals `json:"totals"`
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished"`

	ImportKWh float64 `json:"import_kwh"`
	ExportKWh float64 `json:"export_kwh"`
	LoadKWh   float64 `json:"load_kwh"`

	MeanIndoorC float64 `json:"mean_indoor_c"`
	StdIndoorC  float64 `json:"std_indoor_c"`
	MinIndoorC  float64 `json:"min_indoor_c"`
	MaxIndoorC  float64 `json:"max_indoor_c"`
	// DiscomfortSteps counts steps ending outside the comfort band.
	DiscomfortSteps int `json:"discomfort_steps"`

	Final plant.State `json:"final_state"`
}

type accumulator struct {
	indoor         []float64
	imp, exp, load []float64
	totals         cost.Totals
	discomfort     int
}

func (a *accumulator) add(ev model.StepEvent) {
	d := ev.Diagnostics
	a.indoor = append(a.indoor, d.IndoorC)
	a.imp = append(a.imp, d.ImportKWh)
	a.exp = append(a.exp, d.ExportKWh)
	a.load = append(a.load, d.LoadKWh)
	a.totals.Add(ev.Cost)
	if ev.Cost.SlackBelowC > 0 || ev.Cost.SlackAboveC > 0 {
		a.discomfort++
	}
}

func (a *accumulator) fill(s *Summary) {
	s.Steps = len(a.indoor)
	s.Totals = a.totals
	s.DiscomfortSteps = a.discomfort
	if s.Steps == 0 {
		return
	}
	s.ImportKWh = floats.Sum(a.imp)
	s.ExportKWh = floats.Sum(a.exp)
	s.LoadKWh = floats.Sum(a.load)
	s.MinIndoorC = floats.Min(a.indoor)
	s.MaxIndoorC = floats.Max(a.indoor)
	s.MeanIndoorC, s.StdIndoorC = stat.MeanStdDev(a.indoor, nil)
	if s.Steps < 2 {
		s.StdIndoorC = 0
	}
}
