package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config stores environment-driven settings for the server.
type Config struct {
	// ConfigPath is the path to the YAML configuration file. When empty
	// the embedded default config is used.
	ConfigPath string `env:"BROWSER_MCP_CONFIG"`
	// Port is the deployment HTTP port. Its presence selects the HTTP
	// transport by default.
	Port int `env:"PORT"`
	// LogLevel sets the logger level.
	LogLevel string `env:"BROWSER_MCP_LOG_LEVEL" envDefault:"info"`
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration `env:"BROWSER_MCP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses environment variables into Config.
func Load() (Config, error) {
	return env.ParseAs[Config]()
}
