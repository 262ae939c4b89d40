package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/plantsim/config"
	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/factory"
	coremetrics "github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/core/sim"
	"github.com/kilianp07/plantsim/core/steplog"
)

func testConfig(t *testing.T, steps int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	series := "t,dt_h,t_out_c,price_eur_per_kwh\n"
	for i := 0; i < steps; i++ {
		series += strconv.Itoa(i) + ",0.25,5,0.2\n"
	}
	path := filepath.Join(dir, "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(series), 0o644))

	cfg := &config.Config{
		Devices: []device.Spec{{Kind: "resistive", Conf: map[string]any{"max_power_kw": 2.0}}},
		Actions: [][]float64{{0.5}},
		Store:   steplog.Config{Backend: "jsonl", Path: filepath.Join(dir, "steps.jsonl")},
	}
	cfg.Scenario.SeriesPath = path
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestService_Run(t *testing.T) {
	cfg := testConfig(t, 12)
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	sum, err := svc.Run(context.Background(), sim.ConstantPolicy(cfg.ActionList()))
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Steps)

	steps := svc.Steps()
	require.Len(t, steps, 12)
	for i, ev := range steps {
		assert.Equal(t, i, ev.Index)
		assert.Equal(t, sum.RunID, ev.RunID)
		assert.InDelta(t, 1.0, ev.Diagnostics.HeatKW, 1e-9)
	}

	store, err := steplog.NewJSONLStore(cfg.Store.Path)
	require.NoError(t, err)
	stored, err := store.Query(context.Background(), steplog.Query{RunID: sum.RunID})
	require.NoError(t, err)
	assert.Len(t, stored, 12)
}

func TestService_Canceled(t *testing.T) {
	cfg := testConfig(t, 4)
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := svc.Run(ctx, sim.ConstantPolicy(cfg.ActionList()))
	require.Error(t, err)
	assert.True(t, sim.Canceled(err))
	assert.Zero(t, sum.Steps)
	assert.Empty(t, svc.Steps())
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig(t, 4)
	cfg.Scenario.SeriesPath = filepath.Join(t.TempDir(), "missing.csv")
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = testConfig(t, 4)
	cfg.Scenario.HorizonSteps = 8
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = testConfig(t, 4)
	cfg.Store.Backend = "parquet"
	_, err = New(cfg)
	assert.Error(t, err)
}

type closingSink struct{ closed int }

func (s *closingSink) RecordStep(model.StepEvent) error { return nil }
func (s *closingSink) Close()                           { s.closed++ }

func TestNew_ErrorsCloseSink(t *testing.T) {
	sink := &closingSink{}
	_ = coremetrics.RegisterSink("closing_test", func(map[string]any) (coremetrics.Sink, error) {
		return sink, nil
	})

	cfg := testConfig(t, 4)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "closing_test"}}
	cfg.Store.Backend = "parquet"
	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, 1, sink.closed)

	cfg = testConfig(t, 4)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "closing_test"}}
	cfg.Monitoring.DSN = "not a dsn"
	_, err = New(cfg)
	require.Error(t, err)
	assert.Equal(t, 2, sink.closed)
}
