// Package rpc is the HTTP JSON-RPC front door. Each request is
// stateless: the envelope is parsed, the method routed, and the
// dispatcher outcome wrapped into a success or error envelope. Tool
// failures surface as isError results; only malformed requests and
// transport faults become JSON-RPC errors.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/codex-k8s/browser-mcp-server/internal/protocol"
	"github.com/codex-k8s/browser-mcp-server/internal/ratelimit"
	"github.com/codex-k8s/browser-mcp-server/internal/resources"
	"github.com/codex-k8s/browser-mcp-server/internal/tools"
)

// ProtocolVersion is the MCP revision this front door speaks.
const ProtocolVersion = "2024-11-05"

// ServerInfo identifies the server in initialize responses.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Handler serves MCP JSON-RPC over HTTP POST.
type Handler struct {
	dispatcher *tools.Dispatcher
	resources  *resources.Registry
	agent      tools.Caller
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
	info       ServerInfo
}

// NewHandler builds the front door around the shared dispatcher,
// resource registry and agent connection.
func NewHandler(dispatcher *tools.Dispatcher, resourceRegistry *resources.Registry, agent tools.Caller, limiter *ratelimit.Limiter, logger *slog.Logger, info ServerInfo) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		resources:  resourceRegistry,
		agent:      agent,
		limiter:    limiter,
		logger:     logger,
		info:       info,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req protocol.JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, nil, protocol.CodeParseError, fmt.Sprintf("parse error: %v", err))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			if h.logger != nil {
				h.logger.Error("front door panic", "method", req.Method, "panic", rec)
			}
			h.writeError(w, req.ID, protocol.CodeInternalError, "internal error")
		}
	}()

	if req.JSONRPC != "2.0" || req.Method == "" {
		h.writeError(w, req.ID, protocol.CodeInvalidRequest, "invalid request")
		return
	}

	// Dispatched calls are never cancelled by the HTTP client going
	// away; they end by reply, timeout, or connection loss.
	ctx := context.WithoutCancel(r.Context())

	switch req.Method {
	case "initialize":
		h.writeResult(w, req.ID, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": h.info,
		})
	case "notifications/initialized":
		w.WriteHeader(http.StatusAccepted)
	case "ping":
		h.writeResult(w, req.ID, map[string]any{})
	case "tools/list":
		h.writeResult(w, req.ID, map[string]any{"tools": h.listTools()})
	case "tools/call":
		h.handleToolsCall(ctx, w, req)
	case "resources/list":
		h.writeResult(w, req.ID, map[string]any{"resources": h.listResources()})
	case "resources/read":
		h.handleResourcesRead(ctx, w, req)
	default:
		h.writeError(w, req.ID, protocol.CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (h *Handler) handleToolsCall(ctx context.Context, w http.ResponseWriter, req protocol.JSONRPCRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			h.writeError(w, req.ID, protocol.CodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
			return
		}
	}
	if params.Name == "" {
		h.writeError(w, req.ID, protocol.CodeInvalidParams, "missing required parameter: name")
		return
	}
	if !h.agent.HasConnection() {
		h.writeError(w, req.ID, protocol.CodeAgentUnavailable, "no browser extension connected")
		return
	}
	if !h.limiter.Allow(params.Name) {
		h.writeError(w, req.ID, protocol.CodeRateLimited, fmt.Sprintf("rate limit exceeded for %s", params.Name))
		return
	}

	result := h.dispatcher.Call(ctx, params.Name, params.Arguments)
	h.writeResult(w, req.ID, result)
}

func (h *Handler) handleResourcesRead(ctx context.Context, w http.ResponseWriter, req protocol.JSONRPCRequest) {
	var params struct {
		URI string `json:"uri"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			h.writeError(w, req.ID, protocol.CodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
			return
		}
	}
	if params.URI == "" {
		h.writeError(w, req.ID, protocol.CodeInvalidParams, "missing required parameter: uri")
		return
	}

	contents, err := h.resources.Read(ctx, h.agent, params.URI)
	if err != nil {
		h.writeError(w, req.ID, protocol.CodeInternalError, err.Error())
		return
	}
	h.writeResult(w, req.ID, map[string]any{"contents": contents})
}

type toolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"inputSchema"`
}

func (h *Handler) listTools() []toolSummary {
	all := h.dispatcher.Registry().All()
	out := make([]toolSummary, 0, len(all))
	for _, desc := range all {
		out = append(out, toolSummary{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: desc.InputSchema,
		})
	}
	return out
}

type resourceSummary struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

func (h *Handler) listResources() []resourceSummary {
	all := h.resources.All()
	out := make([]resourceSummary, 0, len(all))
	for _, desc := range all {
		out = append(out, resourceSummary{
			URI:         desc.URI,
			Name:        desc.Name,
			Description: desc.Description,
			MIMEType:    desc.MIMEType,
		})
	}
	return out
}

func (h *Handler) writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		h.writeError(w, id, protocol.CodeInternalError, fmt.Sprintf("encode result: %v", err))
		return
	}
	h.writeResponse(w, protocol.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  raw,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	h.writeResponse(w, protocol.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &protocol.JSONRPCError{Code: code, Message: message},
	})
}

func (h *Handler) writeResponse(w http.ResponseWriter, resp protocol.JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil && h.logger != nil {
		h.logger.Error("write response failed", "error", err)
	}
}
