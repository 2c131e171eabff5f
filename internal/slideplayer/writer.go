package slideplayer

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteConfig writes normalized config to a YAML file
func WriteConfig(cfg map[string]any, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EncodeConfig writes normalized config as YAML to w
func EncodeConfig(w io.Writer, cfg map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// ReadConfig reads a YAML config file into a map
func ReadConfig(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg map[string]any
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg == nil {
		cfg = make(map[string]any)
	}
	return cfg, nil
}
