// Package scenario loads the exogenous time series driving a simulation run.
//
// The expected CSV layout is
//
//	t,dt_h,t_out_c,price_eur_per_kwh[,pv_kw][,base_load_kw]
//	0,0.25,4.5,0.21
//
// where t is a zero-based consecutive step index and dt_h the constant step
// length in hours.
package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/plantsim/core/plant"
)

// ErrInvalidSeries is returned for malformed or inconsistent series files.
var ErrInvalidSeries = errors.New("invalid series")

const dtTolH = 1e-9

var required = []string{"t", "dt_h", "t_out_c", "price_eur_per_kwh"}

// Row is one step of exogenous data.
type Row struct {
	T              int     `json:"t"`
	DtH            float64 `json:"dt_h"`
	AmbientC       float64 `json:"t_out_c"`
	PriceEURPerKWh float64 `json:"price_eur_per_kwh"`
	PVKW           float64 `json:"pv_kw"`
	BaseLoadKW     float64 `json:"base_load_kw"`
}

// Series is a validated, time-ordered exogenous series.
type Series struct {
	rows []Row
	step time.Duration
}

// Len returns the number of steps.
func (s *Series) Len() int { return len(s.rows) }

// Step returns the step length.
func (s *Series) Step() time.Duration { return s.step }

// Row returns the raw row k.
func (s *Series) Row(k int) Row { return s.rows[k] }

// At returns the exogenous inputs of step k.
func (s *Series) At(k int) plant.Exogenous {
	r := s.rows[k]
	return plant.Exogenous{
		AmbientC:       r.AmbientC,
		BaseLoadKW:     r.BaseLoadKW,
		PVAvailableKW:  r.PVKW,
		PriceEURPerKWh: r.PriceEURPerKWh,
	}
}

// NewSeries validates rows against the step length and crops them to
// horizon steps. A zero horizon keeps every row.
func NewSeries(rows []Row, step time.Duration, horizon int) (*Series, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidSeries)
	}
	rows = append([]Row(nil), rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].T < rows[j].T })
	if rows[0].T != 0 {
		return nil, fmt.Errorf("%w: time index must start at 0, got %d", ErrInvalidSeries, rows[0].T)
	}
	dt := rows[0].DtH
	for i := 1; i < len(rows); i++ {
		if rows[i].T != rows[i-1].T+1 {
			return nil, fmt.Errorf("%w: time index not consecutive at t=%d", ErrInvalidSeries, rows[i].T)
		}
		if rows[i].DtH != dt {
			return nil, fmt.Errorf("%w: dt_h must be constant, got %g and %g", ErrInvalidSeries, dt, rows[i].DtH)
		}
	}
	if math.Abs(dt-step.Hours()) > dtTolH {
		return nil, fmt.Errorf("%w: dt_h %g does not match step %s", ErrInvalidSeries, dt, step)
	}
	if horizon < 0 {
		return nil, fmt.Errorf("%w: negative horizon %d", ErrInvalidSeries, horizon)
	}
	if horizon > 0 {
		if len(rows) < horizon {
			return nil, fmt.Errorf("%w: %d rows but horizon is %d", ErrInvalidSeries, len(rows), horizon)
		}
		rows = rows[:horizon]
	}
	return &Series{rows: rows, step: step}, nil
}

// LoadSeries reads and validates the CSV file at path.
func LoadSeries(path string, step time.Duration, horizon int) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()
	rows, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewSeries(rows, step, horizon)
}

// ParseCSV reads series rows. Missing optional columns read as zero.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidSeries, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrInvalidSeries, strings.Join(missing, ", "))
	}

	var rows []Row
	line := 1
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSeries, line, err)
		}
		row, err := parseRecord(rec, col)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSeries, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string, col map[string]int) (Row, error) {
	num := func(name string) (float64, error) {
		i, ok := col[name]
		if !ok {
			return 0, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s: non-finite value", name)
		}
		return v, nil
	}
	var (
		r   Row
		err error
	)
	t, err := strconv.Atoi(strings.TrimSpace(rec[col["t"]]))
	if err != nil {
		return Row{}, fmt.Errorf("t: %w", err)
	}
	r.T = t
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"dt_h", &r.DtH},
		{"t_out_c", &r.AmbientC},
		{"price_eur_per_kwh", &r.PriceEURPerKWh},
		{"pv_kw", &r.PVKW},
		{"base_load_kw", &r.BaseLoadKW},
	} {
		if *f.dst, err = num(f.name); err != nil {
			return Row{}, err
		}
	}
	return r, nil
}
