package dsl

import (
	"bytes"
	"fmt"

	"go.yaml.in/yaml/v4"
)

// Load parses data as YAML, applies defaults and validates the result.
// Unknown fields are rejected so typos surface at startup instead of
// silently falling back to defaults.
func Load(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
