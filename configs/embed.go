// Package configs carries the embedded default server configuration.
package configs

import (
	"embed"
	"fmt"
)

//go:embed default.yaml
var embedded embed.FS

// Default returns the embedded default YAML configuration.
func Default() ([]byte, error) {
	data, err := embedded.ReadFile("default.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}
	return data, nil
}
