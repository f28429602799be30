package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/codex-k8s/browser-mcp-server/internal/audit"
	"github.com/codex-k8s/browser-mcp-server/internal/security"
)

// Dispatcher resolves a tool name to its descriptor, validates the raw
// arguments, runs the handler, and normalizes every failure into a
// Result with IsError set. Nothing escapes to the transport layer.
type Dispatcher struct {
	registry *Registry
	agent    Caller
	logger   *slog.Logger
	audit    audit.Logger
}

// NewDispatcher wires the registry to the agent connection. Each
// correlated send carries its own timeout inside the bridge, so the
// dispatcher imposes no budget of its own.
func NewDispatcher(registry *Registry, agent Caller, logger *slog.Logger, auditor audit.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		agent:    agent,
		logger:   logger,
		audit:    auditor,
	}
}

// Registry exposes the dispatcher's tool registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Call runs the named tool against rawArgs. The returned Result is
// well-formed in every failure mode: unknown tool, malformed or invalid
// arguments, handler error, and handler panic all yield IsError.
func (d *Dispatcher) Call(ctx context.Context, name string, rawArgs json.RawMessage) (result Result) {
	correlationID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			if d.logger != nil {
				d.logger.Error("tool handler panic", "tool", name, "correlation_id", correlationID, "panic", r)
			}
			result = ErrorResult("internal error running %s: %v", name, r)
			d.record(ctx, "tool_error", name, correlationID, result)
		}
	}()

	desc, ok := d.registry.Lookup(name)
	if !ok {
		result = ErrorResult("unknown tool: %s", name)
		d.record(ctx, "tool_error", name, correlationID, result)
		return result
	}

	args := map[string]any{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			result = ErrorResult("arguments for %s are not a JSON object: %v", name, err)
			d.record(ctx, "tool_error", name, correlationID, result)
			return result
		}
	}

	if d.logger != nil {
		d.logger.Info("tool call", "tool", name, "correlation_id", correlationID, "args", security.RedactArguments(args))
	}
	d.recordEvent(ctx, "tool_call", name, correlationID, "")

	if err := desc.ValidateArgs(args); err != nil {
		result = ErrorResult("invalid arguments for %s: %v", name, err)
		d.record(ctx, "tool_error", name, correlationID, result)
		return result
	}

	result, err := desc.Handler(ctx, d.agent, args)
	if err != nil {
		result = ErrorResult("%s failed: %v", name, err)
		d.record(ctx, "tool_error", name, correlationID, result)
		return result
	}

	if result.IsError {
		d.record(ctx, "tool_error", name, correlationID, result)
	} else {
		d.recordEvent(ctx, "tool_ok", name, correlationID, "")
	}
	return result
}

func (d *Dispatcher) record(ctx context.Context, eventType, tool, correlationID string, result Result) {
	reason := ""
	if len(result.Content) > 0 {
		reason = result.Content[0].Text
	}
	d.recordEvent(ctx, eventType, tool, correlationID, reason)
}

func (d *Dispatcher) recordEvent(ctx context.Context, eventType, tool, correlationID, reason string) {
	if d.audit == nil {
		return
	}
	d.audit.Record(ctx, audit.Event{
		Type:          eventType,
		Tool:          tool,
		CorrelationID: correlationID,
		Reason:        reason,
	})
}
