package device

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	c := Clamp{Lo: -1, Hi: 1}
	assert.Equal(t, 1.0, c.Apply(3))
	assert.Equal(t, -1.0, c.Apply(-3))
	assert.Equal(t, 0.25, c.Apply(0.25))
	assert.Equal(t, -1.0, c.Apply(math.NaN()))
}

func TestResistive_Scenario(t *testing.T) {
	h, err := NewResistive(ResistiveConfig{MaxPowerKW: 3, Efficiency: 1})
	require.NoError(t, err)
	out, err := h.Forward(Action{0.5}, Inputs{Step: 15 * time.Minute})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, out.LoadKW, 1e-12)
	assert.InDelta(t, 1.5, out.HeatKW, 1e-12)
	assert.InDelta(t, 0.375, out.EnergyKWh, 1e-12)
	assert.Equal(t, ModeHeat, out.Mode)
}

func TestResistive_ClampsAndCannotCool(t *testing.T) {
	h, err := NewResistive(ResistiveConfig{MaxPowerKW: 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, h.Efficiency)
	out, err := h.Forward(Action{-4}, Inputs{Step: time.Hour})
	require.NoError(t, err)
	assert.Zero(t, out.HeatKW)
	assert.Equal(t, ModeIdle, out.Mode)
	out, err = h.Forward(Action{7}, Inputs{Step: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.LoadKW)
}

func TestHeatPump_CoolScenario(t *testing.T) {
	cfg := DefaultHeatPumpConfig()
	cfg.MaxPowerKW = 2
	hp, err := NewHeatPump(cfg)
	require.NoError(t, err)
	out, err := hp.Forward(Action{-1}, Inputs{Step: time.Hour, AmbientC: Ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.COP)
	assert.Equal(t, 2.0, out.LoadKW)
	assert.Equal(t, -6.0, out.HeatKW)
	assert.Equal(t, ModeCool, out.Mode)
	assert.Equal(t, 2.0, out.EnergyKWh)
}

func TestHeatPump_MissingAmbient(t *testing.T) {
	hp, err := NewHeatPump(DefaultHeatPumpConfig())
	require.NoError(t, err)
	_, err = hp.Forward(Action{0.5}, Inputs{Step: time.Hour})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExogenous))
}

func TestHeatPump_AffineCOPBand(t *testing.T) {
	hp, err := NewHeatPump(DefaultHeatPumpConfig())
	require.NoError(t, err)
	assert.InDelta(t, 3.5, hp.COP(17), 1e-12)
	assert.Equal(t, 1.5, hp.COP(-100))
	assert.Equal(t, 5.5, hp.COP(100))
}

func TestHeatPump_UnsignedAction(t *testing.T) {
	cfg := DefaultHeatPumpConfig()
	cfg.MaxPowerKW = 2
	cfg.UnsignedAction = true
	hp, err := NewHeatPump(cfg)
	require.NoError(t, err)
	in := Inputs{Step: time.Hour, AmbientC: Ptr(7)}

	out, err := hp.Forward(Action{0.5}, in)
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, out.Mode)
	assert.Zero(t, out.LoadKW)

	out, err = hp.Forward(Action{1}, in)
	require.NoError(t, err)
	assert.Equal(t, 6.0, out.HeatKW)

	out, err = hp.Forward(Action{-3}, in)
	require.NoError(t, err)
	assert.Equal(t, -6.0, out.HeatKW)
}

func TestHeatPump_InjectedLookup(t *testing.T) {
	hp, err := NewHeatPump(HeatPumpConfig{MaxPowerKW: 1}, WithCOPFunc(func(c float64) float64 { return c / 10 }))
	require.NoError(t, err)
	assert.Equal(t, 2.0, hp.COP(20))
	assert.Equal(t, minLookupCOP, hp.COP(-20))
}

func TestHeatPump_Curve(t *testing.T) {
	cfg := DefaultHeatPumpConfig()
	cfg.MaxPowerKW = 1
	cfg.Curve = &COPCurve{TempsC: []float64{10, -10, 0}, COPs: []float64{4, 2, 3}}
	hp, err := NewHeatPump(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, hp.COP(-5), 1e-12)
	assert.InDelta(t, 3.5, hp.COP(5), 1e-12)
	assert.Equal(t, 2.0, hp.COP(-30))
	assert.Equal(t, 4.0, hp.COP(30))

	cfg.Curve = &COPCurve{TempsC: []float64{1}, COPs: []float64{3}}
	_, err = NewHeatPump(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBatteryActuator_PairedScenario(t *testing.T) {
	b, err := NewBatteryActuator(BatteryActuatorConfig{MaxChargeKW: 3, MaxDischargeKW: 3, Paired: true})
	require.NoError(t, err)
	assert.Equal(t, 2, b.ActionDim())
	out, err := b.Forward(Action{0.8, 0.6}, Inputs{})
	require.NoError(t, err)
	assert.InDelta(t, 2.4, out.ChargeKW, 1e-12)
	assert.Zero(t, out.DischargeKW)
	assert.Equal(t, ModeCharge, out.Mode)
	assert.Zero(t, out.LoadKW)
}

func TestBatteryActuator_PairedTieKeepsCharge(t *testing.T) {
	b, err := NewBatteryActuator(BatteryActuatorConfig{MaxChargeKW: 2, MaxDischargeKW: 4, Paired: true})
	require.NoError(t, err)
	out, err := b.Forward(Action{1.5, 1}, Inputs{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.ChargeKW)
	assert.Zero(t, out.DischargeKW)

	out, err = b.Forward(Action{0.1, 0.7}, Inputs{})
	require.NoError(t, err)
	assert.Zero(t, out.ChargeKW)
	assert.InDelta(t, 2.8, out.DischargeKW, 1e-12)
}

func TestBatteryActuator_Signed(t *testing.T) {
	b, err := NewBatteryActuator(BatteryActuatorConfig{MaxChargeKW: 2, MaxDischargeKW: 4})
	require.NoError(t, err)
	out, err := b.Forward(Action{-0.5}, Inputs{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.DischargeKW)
	assert.Equal(t, ModeDischarge, out.Mode)
	out, err = b.Forward(Action{9}, Inputs{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.ChargeKW)
}

func TestPVInverter(t *testing.T) {
	pv := NewPVInverter()
	out, err := pv.Forward(Action{0.5}, Inputs{PVAvailableKW: Ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.PVUsedKW)
	out, err = pv.Forward(Action{1}, Inputs{PVAvailableKW: Ptr(-4)})
	require.NoError(t, err)
	assert.Zero(t, out.PVUsedKW)
	out, err = pv.Forward(Action{1}, Inputs{})
	require.NoError(t, err)
	assert.Zero(t, out.PVUsedKW)
}

func TestForwardIdempotent(t *testing.T) {
	devs := testDevices(t)
	in := Inputs{Step: 15 * time.Minute, AmbientC: Ptr(-3), PVAvailableKW: Ptr(2.5)}
	actions := []Action{{0.3}, {-0.7}, {0.4, 0.9}, {0.6}}
	for i, d := range devs {
		first, err := d.Forward(actions[i], in)
		require.NoError(t, err)
		for n := 0; n < 3; n++ {
			again, err := d.Forward(actions[i], in)
			require.NoError(t, err)
			assert.Equal(t, first, again, "device %s", d.Kind())
		}
	}
}

func testDevices(t *testing.T) []Device {
	t.Helper()
	devs, err := NewAll([]Spec{
		{Kind: "resistive", Conf: map[string]any{"max_power_kw": 2.0}},
		{Kind: "bidir_hp", Conf: map[string]any{"max_power_kw": 2.5, "cop_ref": 3.2}},
		{Kind: "battery", Conf: map[string]any{"max_charge_kw": 3.0, "max_discharge_kw": 3.0, "paired": true}},
		{Kind: "PV"},
	})
	require.NoError(t, err)
	return devs
}
