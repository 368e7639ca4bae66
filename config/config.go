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

	"github.com/kilianp07/hydrodispatch/core/metrics"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/infra/mqtt"
	"github.com/kilianp07/hydrodispatch/infra/runlog"
)

// EnvPrefix marks environment variables overriding file values. Nested keys
// are separated by a double underscore, e.g. K_DISPATCH__EQUAL_STORAGE.
const EnvPrefix = "K_"

type Config struct {
	Plant    model.Plant    `json:"plant"`
	Dispatch DispatchConfig `json:"dispatch"`
	Server   ServerConfig   `json:"server"`
	Metrics  metrics.Config `json:"metrics"`
	RunLog   runlog.Config  `json:"runlog"`
	MQTT     mqtt.Config    `json:"mqtt"`
	Logging  LoggingConfig  `json:"logging"`
}

// ReferencePlant is used when the configuration does not describe a plant.
func ReferencePlant() model.Plant {
	return model.Plant{PMin: 0.5, PMax: 3.0, S0: 25000, SMin: 1000, SMax: 50000, Kappa: 0.667, Inflow: 1.1}
}

// Default returns a configuration with every section defaulted.
func Default() Config {
	cfg := Config{Plant: ReferencePlant(), Dispatch: DispatchConfig{EqualStorage: true}}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.Plant == (model.Plant{}) {
		c.Plant = ReferencePlant()
	}
	c.Dispatch.SetDefaults()
	c.Server.SetDefaults()
	c.RunLog.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Plant.Validate(); err != nil {
		return fmt.Errorf("plant: %w", err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.RunLog.Validate(); err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return c.Logging.Validate()
}

// Load reads the yaml or json file at path, applies K_ environment
// overrides and validates the result. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	// Keys missing from the file fall back to the reference plant with equal
	// storage.
	ref := ReferencePlant()
	for key, v := range map[string]float64{
		"plant.p_min": ref.PMin, "plant.p_max": ref.PMax,
		"plant.s_min": ref.SMin, "plant.s_max": ref.SMax, "plant.s0": ref.S0,
		"plant.kappa": ref.Kappa, "plant.inflow": ref.Inflow,
	} {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}
	if err := k.Set("dispatch.equal_storage", true); err != nil {
		return nil, err
	}
	if path != "" {
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
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
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
