package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyzTogglesWithReadiness(t *testing.T) {
	h := New("1.2.0", nil)

	rr := httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	h.SetReady()
	rr = httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	h.SetNotReady()
	rr = httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestStatusReportsExtensionConnection(t *testing.T) {
	connected := false
	h := New("1.2.0", func() bool { return connected })

	status := func() map[string]any {
		rr := httptest.NewRecorder()
		h.Status(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		return body
	}

	body := status()
	assert.Equal(t, "1.2.0", body["version"])
	assert.Equal(t, false, body["extension_connected"])

	connected = true
	assert.Equal(t, true, status()["extension_connected"])
}
