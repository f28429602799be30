package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Handler serves liveness, readiness and operator status probes.
type Handler struct {
	ready     atomic.Bool
	version   string
	started   time.Time
	connected func() bool
}

// New returns a health handler. connected reports whether the extension
// socket is currently established.
func New(version string, connected func() bool) *Handler {
	return &Handler{
		version:   version,
		started:   time.Now(),
		connected: connected,
	}
}

// SetReady marks the handler as ready.
func (h *Handler) SetReady() {
	h.ready.Store(true)
}

// SetNotReady marks the handler as not ready.
func (h *Handler) SetNotReady() {
	h.ready.Store(false)
}

// Healthz handles liveness probes.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz handles readiness probes.
func (h *Handler) Readyz(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

// Status reports process health and whether an extension connection is
// established. Meant for operators, not protocol clients.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	connected := false
	if h.connected != nil {
		connected = h.connected()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":              "ok",
		"version":             h.version,
		"uptime_seconds":      int64(time.Since(h.started).Seconds()),
		"extension_connected": connected,
	})
}
