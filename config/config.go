package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/plantsim/core/cost"
	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/plant"
	"github.com/kilianp07/plantsim/core/steplog"
	"github.com/kilianp07/plantsim/infra/monitoring"
	"github.com/kilianp07/plantsim/infra/mqtt"
)

type Config struct {
	Scenario   ScenarioConfig    `json:"scenario"`
	Thermal    ThermalConfig     `json:"thermal"`
	Battery    BatteryConfig     `json:"battery"`
	Grid       GridConfig        `json:"grid"`
	Devices    []device.Spec     `json:"devices"`
	Actions    [][]float64       `json:"actions"`
	Cost       CostConfig        `json:"cost"`
	Metrics    metrics.Config    `json:"metrics"`
	Store      steplog.Config    `json:"store"`
	Telemetry  mqtt.Config       `json:"telemetry"`
	Logging    LoggingConfig     `json:"logging"`
	API        APIConfig         `json:"api"`
	Monitoring monitoring.Config `json:"monitoring"`
}

// APIConfig configures the HTTP endpoint of the serve command.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token, when set, is required as a bearer token.
	Token string `json:"token"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every unset section.
func (c *Config) SetDefaults() {
	c.Scenario.SetDefaults()
	c.Thermal.SetDefaults()
	c.Battery.SetDefaults()
	c.Grid.SetDefaults()
	c.Cost.SetDefaults()
	c.Logging.SetDefaults()
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Telemetry.Enabled {
		c.Telemetry.SetDefaults()
	}
}

// Validate checks every section and builds the device list once to reject
// bad device entries early.
func (c Config) Validate() error {
	if err := c.Thermal.Validate(); err != nil {
		return err
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if err := c.CostParams().Validate(); err != nil {
		return err
	}
	if err := c.Scenario.Validate(); err != nil {
		return err
	}
	devs, err := device.NewAll(c.Devices)
	if err != nil {
		return err
	}
	if len(c.Actions) > 0 {
		if err := device.CheckActions(devs, c.ActionList()); err != nil {
			return fmt.Errorf("actions: %w", err)
		}
	}
	if c.Telemetry.Enabled {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return c.Logging.Validate()
}

// Params converts the thermal, battery and grid sections.
func (c Config) Params() plant.Params {
	return plant.Params{
		Thermal: c.Thermal.Params(),
		Battery: c.Battery.Params(),
		Grid:    c.Grid.Limits(),
	}
}

// CostParams combines the comfort band of the scenario with the cost
// weights.
func (c Config) CostParams() cost.Params {
	return cost.Params{
		SetpointC:     valueOr(c.Scenario.SetpointC, 21),
		ComfortWidthC: valueOr(c.Scenario.ComfortWidthC, 2),
		LambdaTemp:    valueOr(c.Cost.LambdaTemp, cost.DefaultLambdaTemp),
	}
}

// InitialState returns the plant state at step 0.
func (c Config) InitialState() plant.State {
	return plant.NewState(valueOr(c.Scenario.InitialTempC, 19), valueOr(c.Scenario.InitialSoC, 0.5), c.Battery.Params())
}

// ActionList returns the configured constant actions, one per device.
func (c Config) ActionList() []device.Action {
	out := make([]device.Action, len(c.Actions))
	for i, a := range c.Actions {
		out[i] = append(device.Action(nil), a...)
	}
	return out
}
