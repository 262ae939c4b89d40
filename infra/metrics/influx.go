package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/infra/logger"
)

// InfluxSink writes plant steps to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// StepPoint builds the line protocol point of a step.
func StepPoint(ev model.StepEvent) *write.Point {
	d := ev.Diagnostics
	p := write.NewPointWithMeasurement("plant_step").
		AddTag("run_id", ev.RunID).
		AddField("step", ev.Index).
		AddField("indoor_c", round3(d.IndoorC)).
		AddField("ambient_c", round3(d.AmbientC)).
		AddField("heat_kw", round3(d.HeatKW)).
		AddField("load_kw", round3(d.LoadKW)).
		AddField("import_kw", round3(d.ImportKW)).
		AddField("export_kw", round3(d.ExportKW)).
		AddField("surplus_kw", round3(d.SurplusKW)).
		AddField("energy_cost_eur", round3(ev.Cost.EnergyCostEUR)).
		AddField("comfort_penalty_eur", round3(ev.Cost.ComfortPenaltyEUR))
	if d.SoC != nil {
		p = p.AddField("soc", round3(*d.SoC))
	}
	return p.SetTime(ev.Timestamp)
}

// RecordStep writes the step as a plant_step point.
func (s *InfluxSink) RecordStep(ev model.StepEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, StepPoint(ev))
}

// RecordRun writes the run summary as a plant_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plant_run").
		AddTag("run_id", ev.RunID).
		AddTag("failed", strconv.FormatBool(ev.Err != "")).
		AddField("steps", ev.Steps).
		AddField("energy_cost_eur", round3(ev.Totals.EnergyCostEUR)).
		AddField("comfort_penalty_eur", round3(ev.Totals.ComfortPenaltyEUR)).
		AddField("objective_eur", round3(ev.Totals.ObjectiveEUR)).
		AddField("duration_ms", ev.Finished.Sub(ev.Started).Milliseconds()).
		SetTime(ev.Finished)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
