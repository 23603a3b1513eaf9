package main

import (
	"os"
	"path/filepath"

	"go.dedis.ch/piggybank/cli"
	"go.dedis.ch/piggybank/core/chain"
	"go.dedis.ch/piggybank/core/store/kv"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// ConfigFile is the name of the configuration file inside the configuration
// folder.
const ConfigFile = "config.yaml"

const defaultMetricsAddr = ":9100"

// config is the content of the configuration file. Missing keys keep their
// default value.
type config struct {
	Driver      string `yaml:"driver"`
	EnergyPrice uint64 `yaml:"energy_price"`
	EnergyLimit uint64 `yaml:"energy_limit"`
	MetricsAddr string `yaml:"metrics_addr"`
	Tracing     bool   `yaml:"tracing"`
}

func defaultConfig() config {
	return config{
		Driver:      string(kv.BoltDriver),
		EnergyPrice: 1,
		EnergyLimit: chain.DefaultEnergyLimit,
		MetricsAddr: defaultMetricsAddr,
	}
}

// loadConfig reads the configuration file of the folder, if any, and applies
// the global flags on top of it.
func loadConfig(flags cli.Flags) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(filepath.Join(flags.Path("config"), ConfigFile))
	if err != nil && !os.IsNotExist(err) {
		return cfg, xerrors.Errorf("failed to read config: %v", err)
	}

	if err == nil {
		err = yaml.UnmarshalStrict(data, &cfg)
		if err != nil {
			return cfg, xerrors.Errorf("failed to decode config: %v", err)
		}
	}

	if flags.String("driver") != "" {
		cfg.Driver = flags.String("driver")
	}

	if flags.Uint64("energy-price") > 0 {
		cfg.EnergyPrice = flags.Uint64("energy-price")
	}

	if flags.Uint64("energy-limit") > 0 {
		cfg.EnergyLimit = flags.Uint64("energy-limit")
	}

	if flags.Bool("tracing") {
		cfg.Tracing = true
	}

	return cfg, nil
}

// saveConfig writes the configuration file in the folder.
func saveConfig(dir string, cfg config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return xerrors.Errorf("failed to encode config: %v", err)
	}

	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return xerrors.Errorf("failed to create folder: %v", err)
	}

	err = os.WriteFile(filepath.Join(dir, ConfigFile), data, 0600)
	if err != nil {
		return xerrors.Errorf("failed to write config: %v", err)
	}

	return nil
}
