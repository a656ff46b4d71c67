package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Input          string        `yaml:"input"`
	Schema         string        `yaml:"schema"`
	Output         string        `yaml:"output"`
	UnmappedOutput string        `yaml:"unmapped_output"`
	Mapping        string        `yaml:"mapping"`
	Timezone       string        `yaml:"timezone"`
	History        HistoryConfig `yaml:"history"`
}

type HistoryConfig struct {
	Dir      string `yaml:"dir"`
	Disabled bool   `yaml:"disabled"`
}

// Default returns the configuration used when no config file is given.
// The file names match the Gymrun and Strong export conventions.
func Default() *Config {
	return &Config{
		Input:          "gymrun.csv",
		Schema:         "strong.csv",
		Output:         "converted.csv",
		UnmappedOutput: "unmapped.csv",
		Mapping:        "mappings.yaml",
		Timezone:       "Europe/Oslo",
		History:        HistoryConfig{Dir: ".strongbridge"},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. Env vars use the prefix STRONGBRIDGE_:
//
//	STRONGBRIDGE_INPUT, STRONGBRIDGE_SCHEMA, STRONGBRIDGE_OUTPUT,
//	STRONGBRIDGE_UNMAPPED_OUTPUT, STRONGBRIDGE_MAPPING,
//	STRONGBRIDGE_TIMEZONE, STRONGBRIDGE_HISTORY_DIR,
//	STRONGBRIDGE_HISTORY_DISABLED
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STRONGBRIDGE_INPUT"); v != "" {
		cfg.Input = v
	}
	if v := os.Getenv("STRONGBRIDGE_SCHEMA"); v != "" {
		cfg.Schema = v
	}
	if v := os.Getenv("STRONGBRIDGE_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("STRONGBRIDGE_UNMAPPED_OUTPUT"); v != "" {
		cfg.UnmappedOutput = v
	}
	if v := os.Getenv("STRONGBRIDGE_MAPPING"); v != "" {
		cfg.Mapping = v
	}
	if v := os.Getenv("STRONGBRIDGE_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("STRONGBRIDGE_HISTORY_DIR"); v != "" {
		cfg.History.Dir = v
	}
	if v := os.Getenv("STRONGBRIDGE_HISTORY_DISABLED"); v == "true" || v == "1" {
		cfg.History.Disabled = true
	}
}

func (c *Config) validate() error {
	if c.Input == "" {
		return fmt.Errorf("input is required")
	}
	if c.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if c.UnmappedOutput == "" {
		return fmt.Errorf("unmapped_output is required")
	}
	if c.Timezone == "" {
		return fmt.Errorf("timezone is required")
	}
	if !c.History.Disabled && c.History.Dir == "" {
		return fmt.Errorf("history.dir is required unless history is disabled")
	}
	return nil
}
