// Package config holds the settings of the mcslides tool itself, as opposed
// to the machine config it validates.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "MC_"

type Config struct {
	// MachinePath is the machine folder holding config/ and modes/
	MachinePath string `yaml:"machine_path" env:"MACHINE_PATH" jsonschema:"description=Machine folder holding config/ and modes/"`
	// ConfigFiles are read from <machine_path>/config in order
	ConfigFiles []string `yaml:"config_files" env:"CONFIG_FILES" envSeparator:"," jsonschema:"description=Machine config files read in order"`
	// Modes limits which modes are loaded. Empty loads every mode found.
	Modes []string `yaml:"modes,omitempty" env:"MODES" envSeparator:","`
	// Workers bounds concurrent file loading and media probing
	Workers     int    `yaml:"workers" env:"WORKERS" jsonschema:"minimum=1"`
	CheckAssets bool   `yaml:"check_assets" env:"CHECK_ASSETS" jsonschema:"description=Check that image files exist and decode"`
	FFprobePath string `yaml:"ffprobe_path" env:"FFPROBE_PATH"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT" jsonschema:"enum=json,enum=console"`
}

// Default returns the built in settings
func Default() *Config {
	return &Config{
		MachinePath: ".",
		ConfigFiles: []string{"config.yaml"},
		Workers:     runtime.NumCPU(),
		FFprobePath: "ffprobe",
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

// Load reads the defaults, then the YAML file at path if path is not empty,
// then MC_* environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable zero value
func (c *Config) Validate() error {
	if c.MachinePath == "" {
		return fmt.Errorf("machine_path is required")
	}
	if len(c.ConfigFiles) == 0 {
		return fmt.Errorf("config_files must name at least one file")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}

// Schema returns the JSON schema of the tool config
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{FieldNameTag: "yaml"}
	schema := r.Reflect(&Config{})
	schema.Title = "mcslides configuration"
	schema.Description = "Settings of the mcslides slide config tool"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
