// Package runtime assembles the MCP server for the line transport. The
// SDK handles stdio framing and protocol bookkeeping; tool and resource
// semantics come from the same dispatcher and registries the HTTP front
// door uses.
package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/browser-mcp-server/internal/resources"
	"github.com/codex-k8s/browser-mcp-server/internal/tools"
)

// Builder constructs an MCP server from the shared registries.
type Builder struct {
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Dispatcher runs tool calls.
	Dispatcher *tools.Dispatcher
	// Resources lists and reads resources.
	Resources *resources.Registry
	// Agent is the extension connection used by resource reads.
	Agent tools.Caller
	// Name is the MCP server name.
	Name string
	// Version is the MCP server version.
	Version string
}

// Build creates an MCP server exposing the registered tools and resources.
func (b Builder) Build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    b.Name,
		Version: b.Version,
	}, nil)

	for _, desc := range b.Dispatcher.Registry().All() {
		descriptor := desc
		server.AddTool(&mcp.Tool{
			Name:        descriptor.Name,
			Description: descriptor.Description,
			InputSchema: descriptor.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result := b.Dispatcher.Call(ctx, descriptor.Name, rawArguments(req))
			return toCallToolResult(result), nil
		})
	}

	for _, res := range b.Resources.All() {
		resource := res
		server.AddResource(&mcp.Resource{
			Name:        resource.Name,
			URI:         resource.URI,
			Description: resource.Description,
			MIMEType:    resource.MIMEType,
		}, func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			contents, err := b.Resources.Read(ctx, b.Agent, resource.URI)
			if err != nil {
				return nil, err
			}
			out := &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{}}
			for _, content := range contents {
				out.Contents = append(out.Contents, &mcp.ResourceContents{
					URI:      content.URI,
					MIMEType: content.MIMEType,
					Text:     content.Text,
				})
			}
			return out, nil
		})
	}

	return server
}

// rawArguments extracts the raw JSON arguments from a call request. The
// SDK delivers wire arguments as json.RawMessage; anything else is
// re-encoded.
func rawArguments(req *mcp.CallToolRequest) json.RawMessage {
	if req == nil || req.Params == nil {
		return nil
	}
	switch args := any(req.Params.Arguments).(type) {
	case nil:
		return nil
	case json.RawMessage:
		return args
	case []byte:
		return args
	default:
		raw, err := json.Marshal(args)
		if err != nil {
			return nil
		}
		return raw
	}
}

func toCallToolResult(result tools.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: result.IsError}
	for _, block := range result.Content {
		switch block.Type {
		case tools.ContentImage:
			data, err := base64.StdEncoding.DecodeString(block.Data)
			if err != nil {
				out.Content = append(out.Content, &mcp.TextContent{Text: "screenshot data was not valid base64"})
				continue
			}
			out.Content = append(out.Content, &mcp.ImageContent{Data: data, MIMEType: block.MIMEType})
		default:
			out.Content = append(out.Content, &mcp.TextContent{Text: block.Text})
		}
	}
	return out
}
