package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load([]byte("server: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "browser-mcp-server", cfg.Server.Name)
	assert.Equal(t, ":9009", cfg.Server.HTTP.Listen)
	assert.Equal(t, "/mcp", cfg.Server.HTTP.Path)
	assert.Equal(t, "/ws", cfg.Server.HTTP.WSPath)
	assert.Equal(t, "30s", cfg.Server.CallTimeout)
	assert.Empty(t, cfg.Server.Transport)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load([]byte(`
server:
  name: bridge
  version: 2.0.0
  transport: http
  call_timeout: 5s
  http:
    listen: ":8900"
    path: /rpc
    ws_path: /extension
  rate_limit:
    per_minute: 60
  startup_hooks:
    - command: "true"
      timeout: 1s
`))
	require.NoError(t, err)
	assert.Equal(t, "bridge", cfg.Server.Name)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, ":8900", cfg.Server.HTTP.Listen)
	assert.Equal(t, 60, cfg.Server.RateLimit.PerMinute)
	require.Len(t, cfg.Server.StartupHooks, 1)
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	_, err := Load([]byte("server:\n  transport: carrier-pigeon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.transport")
}

func TestLoadRejectsBadCallTimeout(t *testing.T) {
	_, err := Load([]byte("server:\n  call_timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call_timeout")
}

func TestLoadRejectsPathCollision(t *testing.T) {
	_, err := Load([]byte("server:\n  http:\n    path: /mcp\n    ws_path: /mcp\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load([]byte("server:\n  nonsense: true\n"))
	require.Error(t, err)
}
