package protocol

import (
	"encoding/json"
	"errors"
)

// JSON-RPC 2.0 error codes used by the HTTP front door.
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternalError    = -32603
	CodeAgentUnavailable = -32000
	CodeRateLimited      = -32001
)

// Failure modes of a correlated exchange with the browser extension.
var (
	// ErrNoConnection is returned when no extension socket is present.
	ErrNoConnection = errors.New("no browser extension connected")
	// ErrTimeout is returned when the extension does not answer within the call budget.
	ErrTimeout = errors.New("timed out waiting for extension response")
	// ErrConnectionLost is returned when the extension socket closes mid-call.
	ErrConnectionLost = errors.New("extension connection lost")
)

// AgentMessage is the frame exchanged with the extension over the
// persistent socket. A correlated exchange carries an ID that the
// extension echoes in its reply; frames without an ID are events.
type AgentMessage struct {
	// ID is the correlation identifier, empty for uncorrelated frames.
	ID string `json:"id,omitempty"`
	// Type is the message kind ("navigate", "click", "snapshot", ...).
	Type string `json:"type"`
	// Payload carries the message body.
	Payload json.RawMessage `json:"payload,omitempty"`
	// Error is set by the extension when the requested action failed.
	Error string `json:"error,omitempty"`
}

// JSONRPCRequest is an incoming JSON-RPC 2.0 envelope. The ID is kept
// raw so it can be echoed verbatim regardless of its JSON type.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is an outgoing JSON-RPC 2.0 envelope. A nil ID
// marshals as null, which is what a malformed request gets back.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError is the error member of a JSON-RPC 2.0 response.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
