package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// cliConfig is the YAML-loaded configuration for the novadb CLI,
// grounded on internal/config.go's viper.New/SetConfigFile/Unmarshal
// pattern (viper stays confined to the CLI entrypoint; library callers
// configure via engine.Option instead).
type cliConfig struct {
	Storage struct {
		DataDir      string `mapstructure:"data_dir"`
		PoolCapacity int    `mapstructure:"pool_capacity"`
	} `mapstructure:"storage"`
}

// loadConfig reads path as YAML if it exists; a missing file yields the
// zero-value config (every subcommand flag falls back to an explicit
// default in that case), since the CLI should run without requiring a
// config file for a quick poke at the engine.
func loadConfig(path string) (*cliConfig, error) {
	var cfg cliConfig
	if _, err := os.Stat(path); err != nil {
		return &cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("novadb: read config %q: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("novadb: unmarshal config %q: %w", path, err)
	}
	return &cfg, nil
}
