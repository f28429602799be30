package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBytesExpandsEnv(t *testing.T) {
	t.Setenv("BRIDGE_TEST_LISTEN", ":8900")

	out, err := RenderBytes("test", []byte(`listen: "{{ env "BRIDGE_TEST_LISTEN" }}"`))
	require.NoError(t, err)
	assert.Equal(t, `listen: ":8900"`, string(out))
}

func TestRenderBytesEnvOrFallback(t *testing.T) {
	out, err := RenderBytes("test", []byte(`path: {{ envOr "BRIDGE_TEST_UNSET_PATH" "/mcp" }}`))
	require.NoError(t, err)
	assert.Equal(t, "path: /mcp", string(out))
}

func TestRenderBytesReportsMissingEnv(t *testing.T) {
	_, err := RenderBytes("test", []byte(`a: {{ env "BRIDGE_TEST_MISSING_A" }}
b: {{ env "BRIDGE_TEST_MISSING_B" }}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BRIDGE_TEST_MISSING_A, BRIDGE_TEST_MISSING_B")
}

func TestRenderBytesPassesPlainYAMLThrough(t *testing.T) {
	raw := []byte("server:\n  name: bridge\n")
	out, err := RenderBytes("", raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}
