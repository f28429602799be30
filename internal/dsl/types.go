package dsl

// Config is the top-level YAML configuration.
type Config struct {
	// Server describes the bridge server settings.
	Server ServerConfig `yaml:"server"`
}

// ServerConfig defines bridge server settings.
type ServerConfig struct {
	// Name is the MCP server name.
	Name string `yaml:"name"`
	// Version is the MCP server version.
	Version string `yaml:"version"`
	// Transport selects the server transport ("http" or "stdio"). Empty
	// means auto: HTTP when a deployment port is present, stdio otherwise.
	Transport string `yaml:"transport"`
	// ShutdownTimeout overrides graceful shutdown duration.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	// CallTimeout bounds each correlated exchange with the extension.
	CallTimeout string `yaml:"call_timeout"`
	// RateLimit caps tool invocations over the HTTP transport.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// StartupHooks defines one-time commands executed on start.
	StartupHooks []HookConfig `yaml:"startup_hooks"`
	// HTTP configures the HTTP listener.
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Path is the MCP JSON-RPC endpoint path.
	Path string `yaml:"path"`
	// WSPath is the extension WebSocket endpoint path.
	WSPath string `yaml:"ws_path"`
	// ReadTimeout limits request read time.
	ReadTimeout string `yaml:"read_timeout"`
	// WriteTimeout limits response write time.
	WriteTimeout string `yaml:"write_timeout"`
	// IdleTimeout controls idle connections.
	IdleTimeout string `yaml:"idle_timeout"`
}

// RateLimitConfig caps tool calls per minute. Zero disables the limit.
type RateLimitConfig struct {
	// PerMinute is the allowed number of tool calls per minute per tool.
	PerMinute int `yaml:"per_minute"`
}

// HookConfig defines a one-time command executed on start.
type HookConfig struct {
	// Command is the command to run.
	Command string `yaml:"command"`
	// Args are command arguments.
	Args []string `yaml:"args"`
	// Env sets additional environment variables.
	Env map[string]string `yaml:"env"`
	// Timeout bounds hook execution.
	Timeout string `yaml:"timeout"`
}
