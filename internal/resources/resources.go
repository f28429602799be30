// Package resources exposes read-only, URI-addressed data items next to
// the tool set. Reads are best-effort: an unknown URI yields an empty
// content list, not an error.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codex-k8s/browser-mcp-server/internal/tools"
)

// ConsoleLogsURI addresses the console log dump of the current page.
const ConsoleLogsURI = "browser://console/logs"

// Content is one element of a resource read result.
type Content struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Reader produces the contents of a resource.
type Reader func(ctx context.Context, agent tools.Caller) ([]Content, error)

// Descriptor describes one resource.
type Descriptor struct {
	// URI uniquely identifies the resource.
	URI string
	// Name is the human-friendly resource name.
	Name string
	// Description explains the resource for the client.
	Description string
	// MIMEType describes the content type.
	MIMEType string
	// Reader reads the resource.
	Reader Reader
}

// Registry is an immutable ordered collection of resource descriptors.
type Registry struct {
	ordered []*Descriptor
	byURI   map[string]*Descriptor
}

// NewRegistry indexes descriptors by URI, rejecting duplicates.
func NewRegistry(descriptors ...*Descriptor) (*Registry, error) {
	registry := &Registry{
		ordered: make([]*Descriptor, 0, len(descriptors)),
		byURI:   make(map[string]*Descriptor, len(descriptors)),
	}
	for _, desc := range descriptors {
		if desc.URI == "" {
			return nil, fmt.Errorf("resource descriptor without a uri")
		}
		if _, exists := registry.byURI[desc.URI]; exists {
			return nil, fmt.Errorf("duplicate resource %q", desc.URI)
		}
		if desc.Reader == nil {
			return nil, fmt.Errorf("resource %s: reader is nil", desc.URI)
		}
		registry.ordered = append(registry.ordered, desc)
		registry.byURI[desc.URI] = desc
	}
	return registry, nil
}

// All returns the descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	return r.ordered
}

// Read returns the contents of the resource at uri. An unknown uri is
// not an error; it reads as empty.
func (r *Registry) Read(ctx context.Context, agent tools.Caller, uri string) ([]Content, error) {
	desc, ok := r.byURI[uri]
	if !ok {
		return []Content{}, nil
	}
	return desc.Reader(ctx, agent)
}

// NewBrowserRegistry builds the static registry of browser resources.
func NewBrowserRegistry() (*Registry, error) {
	return NewRegistry(
		&Descriptor{
			URI:         ConsoleLogsURI,
			Name:        "console-logs",
			Description: "Console log entries of the current page",
			MIMEType:    "text/plain",
			Reader:      consoleLogsReader,
		},
	)
}

// consoleLogsReader asks the extension for the console log dump. With
// no extension connected the resource reads as empty.
func consoleLogsReader(ctx context.Context, agent tools.Caller) ([]Content, error) {
	if !agent.HasConnection() {
		return []Content{}, nil
	}
	raw, err := agent.Send(ctx, "getConsoleLogs", nil, 0)
	if err != nil {
		return nil, fmt.Errorf("read console logs: %w", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode console log payload: %w", err)
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, string(entry))
	}
	return []Content{{
		URI:      ConsoleLogsURI,
		MIMEType: "text/plain",
		Text:     strings.Join(lines, "\n"),
	}}, nil
}
