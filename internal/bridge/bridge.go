// Package bridge owns the single live socket to the browser extension
// and correlates concurrent request/response exchanges over it. The
// socket delivers unordered frames, so every outgoing request carries a
// fresh correlation identifier that the extension echoes in its reply;
// a pending-call table routes each inbound frame to the caller waiting
// for it.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/codex-k8s/browser-mcp-server/internal/maputil"
	"github.com/codex-k8s/browser-mcp-server/internal/protocol"
)

// DefaultCallTimeout bounds a correlated exchange when no explicit
// timeout is given.
const DefaultCallTimeout = 30 * time.Second

type outcome struct {
	payload json.RawMessage
	err     error
}

type pendingCall struct {
	conn *websocket.Conn
	ch   chan outcome
}

// Bridge manages the extension connection. At most one connection is
// current at any instant; accepting a new one closes the previous
// socket first so two connections can never answer the same pending
// call.
type Bridge struct {
	logger      *slog.Logger
	callTimeout time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]*pendingCall
}

// New creates a Bridge with no current connection.
func New(logger *slog.Logger, callTimeout time.Duration) *Bridge {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Bridge{
		logger:      logger,
		callTimeout: callTimeout,
		pending:     make(map[string]*pendingCall),
	}
}

// HasConnection reports whether an extension socket is currently open.
func (b *Bridge) HasConnection() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// PendingCount returns the number of outstanding correlated calls.
func (b *Bridge) PendingCount() int {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return len(b.pending)
}

// SetConnection installs conn as the current extension socket. Any
// previous socket is closed before the replacement becomes current, and
// its pending calls fail with ErrConnectionLost.
func (b *Bridge) SetConnection(conn *websocket.Conn) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = conn.Close()
		return
	}
	old := b.conn
	if old != nil {
		_ = old.Close()
	}
	b.conn = conn
	b.mu.Unlock()

	if old != nil {
		b.failPending(old, protocol.ErrConnectionLost)
		if b.logger != nil {
			b.logger.Warn("extension connection replaced")
		}
	}
	if b.logger != nil {
		b.logger.Info("extension connected", "remote", conn.RemoteAddr().String())
	}

	go b.readLoop(conn)
}

// Send issues a correlated request to the extension and waits for the
// matching reply. It fails with ErrNoConnection when no socket is
// current, ErrTimeout when the reply does not arrive within timeout
// (callTimeout when timeout <= 0), and ErrConnectionLost when the
// socket closes mid-call.
func (b *Bridge) Send(ctx context.Context, msgType string, payload any, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = b.callTimeout
	}

	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, protocol.ErrNoConnection
	}

	msg := protocol.AgentMessage{ID: uuid.NewString(), Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		msg.Payload = raw
	}

	call := &pendingCall{conn: conn, ch: make(chan outcome, 1)}
	b.pendingMu.Lock()
	b.pending[msg.ID] = call
	b.pendingMu.Unlock()

	if err := b.write(conn, msg); err != nil {
		if _, ok := maputil.Pop(&b.pendingMu, b.pending, msg.ID); ok {
			return nil, fmt.Errorf("write %s: %w", msgType, protocol.ErrConnectionLost)
		}
		// The read loop already resolved this call while the write was
		// failing; report its verdict instead.
		out := <-call.ch
		return out.payload, out.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-call.ch:
		return out.payload, out.err
	case <-timer.C:
		if _, ok := maputil.Pop(&b.pendingMu, b.pending, msg.ID); ok {
			return nil, protocol.ErrTimeout
		}
		out := <-call.ch
		return out.payload, out.err
	case <-ctx.Done():
		if _, ok := maputil.Pop(&b.pendingMu, b.pending, msg.ID); ok {
			return nil, ctx.Err()
		}
		out := <-call.ch
		return out.payload, out.err
	}
}

// Close tears down the current connection and fails every pending call.
// It is idempotent; a closed Bridge rejects subsequent connections.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		b.failPending(conn, protocol.ErrConnectionLost)
	}
	return nil
}

// Handler returns the HTTP handler the extension connects to.
func (b *Bridge) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// The extension connects from a browser-internal origin that
		// differs per vendor; the listener is bound locally.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if b.logger != nil {
				b.logger.Error("websocket upgrade failed", "error", err)
			}
			return
		}
		b.SetConnection(conn)
	})
}

// write serializes concurrent senders; gorilla allows one writer at a time.
func (b *Bridge) write(conn *websocket.Conn, msg protocol.AgentMessage) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		var msg protocol.AgentMessage
		if err := conn.ReadJSON(&msg); err != nil {
			b.handleClose(conn, err)
			return
		}
		if msg.ID == "" {
			if b.logger != nil {
				b.logger.Debug("uncorrelated frame ignored", "type", msg.Type)
			}
			continue
		}
		call, ok := maputil.Pop(&b.pendingMu, b.pending, msg.ID)
		if !ok {
			// Stale reply: the call already timed out or the identifier
			// belonged to a superseded connection.
			if b.logger != nil {
				b.logger.Debug("stale frame discarded", "id", msg.ID, "type", msg.Type)
			}
			continue
		}
		if msg.Error != "" {
			call.ch <- outcome{err: fmt.Errorf("extension reported: %s", msg.Error)}
			continue
		}
		call.ch <- outcome{payload: msg.Payload}
	}
}

func (b *Bridge) handleClose(conn *websocket.Conn, err error) {
	b.mu.Lock()
	current := b.conn == conn
	if current {
		b.conn = nil
	}
	closed := b.closed
	b.mu.Unlock()

	_ = conn.Close()
	b.failPending(conn, protocol.ErrConnectionLost)

	if current && !closed && b.logger != nil {
		b.logger.Info("extension disconnected", "error", err)
	}
}

// failPending resolves every pending call registered against conn.
func (b *Bridge) failPending(conn *websocket.Conn, err error) {
	calls := maputil.PopWhere(&b.pendingMu, b.pending, func(call *pendingCall) bool {
		return call.conn == conn
	})
	for _, call := range calls {
		call.ch <- outcome{err: err}
	}
}
