// Package export writes simulation rollouts for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/plantsim/core/model"
)

// WriteJSON writes the steps to w as a JSON array.
func WriteJSON(w io.Writer, steps []model.StepEvent) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(steps)
}

var header = []string{
	"t", "timestamp", "offset_h", "actions",
	"t_out_c", "price_eur_per_kwh", "indoor_c",
	"heat_kw", "load_kw", "import_kw", "export_kw", "surplus_kw", "soc",
	"energy_cost_eur", "comfort_penalty_eur", "objective_eur",
	"cum_energy_cost_eur", "cum_comfort_penalty_eur",
}

// WriteCSV writes one row per step with running cost totals. Actions are
// flattened in device order and separated by semicolons; soc is empty
// without a battery.
func WriteCSV(w io.Writer, steps []model.StepEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	var cumEnergy, cumComfort float64
	for _, ev := range steps {
		d := ev.Diagnostics
		cumEnergy += ev.Cost.EnergyCostEUR
		cumComfort += ev.Cost.ComfortPenaltyEUR
		soc := ""
		if d.SoC != nil {
			soc = ff(*d.SoC)
		}
		rec := []string{
			strconv.Itoa(ev.Index),
			ev.Timestamp.Format(time.RFC3339),
			ff(ev.OffsetH),
			actions(ev),
			ff(ev.Exogenous.AmbientC),
			ff(ev.Exogenous.PriceEURPerKWh),
			ff(d.IndoorC),
			ff(d.HeatKW),
			ff(d.LoadKW),
			ff(d.ImportKW),
			ff(d.ExportKW),
			ff(d.SurplusKW),
			soc,
			ff(ev.Cost.EnergyCostEUR),
			ff(ev.Cost.ComfortPenaltyEUR),
			ff(ev.Cost.ObjectiveEUR),
			ff(cumEnergy),
			ff(cumComfort),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func actions(ev model.StepEvent) string {
	var b []byte
	for _, a := range ev.Actions {
		for _, v := range a {
			if len(b) > 0 {
				b = append(b, ';')
			}
			b = strconv.AppendFloat(b, v, 'f', -1, 64)
		}
	}
	return string(b)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
