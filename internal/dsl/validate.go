package dsl

import (
	"fmt"
	"strings"
	"time"
)

// Validate applies defaults and verifies required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.Server.Name) == "" {
		cfg.Server.Name = "browser-mcp-server"
	}
	if strings.TrimSpace(cfg.Server.Version) == "" {
		cfg.Server.Version = "0.0.0"
	}
	switch cfg.Server.Transport {
	case "", "http", "stdio":
	default:
		return fmt.Errorf("server.transport must be \"http\" or \"stdio\"")
	}
	if cfg.Server.HTTP.Listen == "" {
		cfg.Server.HTTP.Listen = ":9009"
	}
	if cfg.Server.HTTP.Path == "" {
		cfg.Server.HTTP.Path = "/mcp"
	}
	if cfg.Server.HTTP.WSPath == "" {
		cfg.Server.HTTP.WSPath = "/ws"
	}
	if cfg.Server.HTTP.Path == cfg.Server.HTTP.WSPath {
		return fmt.Errorf("server.http.path and server.http.ws_path must differ")
	}
	if cfg.Server.CallTimeout == "" {
		cfg.Server.CallTimeout = "30s"
	}
	if _, err := time.ParseDuration(cfg.Server.CallTimeout); err != nil {
		return fmt.Errorf("server.call_timeout is invalid: %w", err)
	}
	if cfg.Server.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("server.shutdown_timeout is invalid: %w", err)
		}
	}
	if cfg.Server.RateLimit.PerMinute < 0 {
		return fmt.Errorf("server.rate_limit.per_minute must be >= 0")
	}
	for idx, hook := range cfg.Server.StartupHooks {
		if hook.Timeout == "" {
			continue
		}
		if _, err := time.ParseDuration(hook.Timeout); err != nil {
			return fmt.Errorf("server.startup_hooks[%d].timeout is invalid: %w", idx, err)
		}
	}
	return nil
}
