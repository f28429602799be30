package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Wire message types understood by the extension.
const (
	msgNavigate       = "navigate"
	msgGoBack         = "goBack"
	msgGoForward      = "goForward"
	msgWait           = "wait"
	msgPressKey       = "pressKey"
	msgSnapshot       = "snapshot"
	msgClick          = "click"
	msgHover          = "hover"
	msgType           = "type"
	msgSelectOption   = "selectOption"
	msgDrag           = "drag"
	msgScreenshot     = "screenshot"
	msgGetConsoleLogs = "getConsoleLogs"
)

// NewBrowserRegistry builds the static registry of browser tools. The
// registration order is the order tools/list reports.
func NewBrowserRegistry() (*Registry, error) {
	return NewRegistry(
		&Descriptor{
			Name:        "browser_navigate",
			Description: "Navigate to a URL",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"url": {Type: "string", Description: "The URL to navigate to"},
			}, "url"),
			Handler: navigateHandler,
		},
		&Descriptor{
			Name:        "browser_go_back",
			Description: "Go back to the previous page",
			InputSchema: objectSchema(nil),
			Handler:     actionHandler(msgGoBack, func(map[string]any) string { return "Navigated back" }),
		},
		&Descriptor{
			Name:        "browser_go_forward",
			Description: "Go forward to the next page",
			InputSchema: objectSchema(nil),
			Handler:     actionHandler(msgGoForward, func(map[string]any) string { return "Navigated forward" }),
		},
		&Descriptor{
			Name:        "browser_wait",
			Description: "Wait for a specified time in seconds",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"time": {Type: "number", Description: "The time to wait in seconds"},
			}, "time"),
			Handler: actionHandler(msgWait, func(args map[string]any) string {
				return fmt.Sprintf("Waited for %v seconds", args["time"])
			}),
		},
		&Descriptor{
			Name:        "browser_press_key",
			Description: "Press a key on the keyboard",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"key": {Type: "string", Description: "Name of the key to press, such as ArrowLeft or Enter"},
			}, "key"),
			Handler: actionHandler(msgPressKey, func(args map[string]any) string {
				return fmt.Sprintf("Pressed key %v", args["key"])
			}),
		},
		&Descriptor{
			Name:        "browser_snapshot",
			Description: "Capture accessibility snapshot of the current page. Use this for getting references to elements to interact with.",
			InputSchema: objectSchema(nil),
			Handler: func(ctx context.Context, agent Caller, _ map[string]any) (Result, error) {
				return snapshotResult(ctx, agent, "")
			},
		},
		&Descriptor{
			Name:        "browser_click",
			Description: "Perform click on a web page",
			InputSchema: elementSchema(),
			Handler: actionHandler(msgClick, func(args map[string]any) string {
				return fmt.Sprintf("Clicked %q", args["element"])
			}),
		},
		&Descriptor{
			Name:        "browser_hover",
			Description: "Hover over element on page",
			InputSchema: elementSchema(),
			Handler: actionHandler(msgHover, func(args map[string]any) string {
				return fmt.Sprintf("Hovered over %q", args["element"])
			}),
		},
		&Descriptor{
			Name:        "browser_type",
			Description: "Type text into editable element",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"element": {Type: "string", Description: "Human-readable element description used to obtain permission to interact with the element"},
				"ref":     {Type: "string", Description: "Exact target element reference from the page snapshot"},
				"text":    {Type: "string", Description: "Text to type into the element"},
				"submit":  {Type: "boolean", Description: "Whether to submit entered text (press Enter after)"},
			}, "element", "ref", "text", "submit"),
			Handler: actionHandler(msgType, func(args map[string]any) string {
				return fmt.Sprintf("Typed %q into %q", args["text"], args["element"])
			}),
		},
		&Descriptor{
			Name:        "browser_select_option",
			Description: "Select an option in a dropdown",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"element": {Type: "string", Description: "Human-readable element description used to obtain permission to interact with the element"},
				"ref":     {Type: "string", Description: "Exact target element reference from the page snapshot"},
				"values": {
					Type:        "array",
					Description: "Array of values to select in the dropdown.",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			}, "element", "ref", "values"),
			Handler: actionHandler(msgSelectOption, func(args map[string]any) string {
				return fmt.Sprintf("Selected option in %q", args["element"])
			}),
		},
		&Descriptor{
			Name:        "browser_drag",
			Description: "Perform drag and drop between two elements",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"startElement": {Type: "string", Description: "Human-readable source element description"},
				"startRef":     {Type: "string", Description: "Exact source element reference from the page snapshot"},
				"endElement":   {Type: "string", Description: "Human-readable target element description"},
				"endRef":       {Type: "string", Description: "Exact target element reference from the page snapshot"},
			}, "startElement", "startRef", "endElement", "endRef"),
			Handler: actionHandler(msgDrag, func(args map[string]any) string {
				return fmt.Sprintf("Dragged %q to %q", args["startElement"], args["endElement"])
			}),
		},
		&Descriptor{
			Name:        "browser_screenshot",
			Description: "Take a screenshot of the current page",
			InputSchema: objectSchema(nil),
			Handler:     screenshotHandler,
		},
		&Descriptor{
			Name:        "browser_get_console_logs",
			Description: "Get the console logs of the browser",
			InputSchema: objectSchema(nil),
			Handler:     consoleLogsHandler,
		},
	)
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	schema := &jsonschema.Schema{Type: "object"}
	if len(properties) > 0 {
		schema.Properties = properties
	}
	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}

func elementSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"element": {Type: "string", Description: "Human-readable element description used to obtain permission to interact with the element"},
		"ref":     {Type: "string", Description: "Exact target element reference from the page snapshot"},
	}, "element", "ref")
}

// actionHandler sends the action message to the extension and then
// captures a fresh accessibility snapshot so the caller sees the page
// state the action produced.
func actionHandler(msgType string, status func(map[string]any) string) Handler {
	return func(ctx context.Context, agent Caller, args map[string]any) (Result, error) {
		if _, err := agent.Send(ctx, msgType, args, 0); err != nil {
			return Result{}, err
		}
		return snapshotResult(ctx, agent, status(args))
	}
}

func navigateHandler(ctx context.Context, agent Caller, args map[string]any) (Result, error) {
	if _, err := agent.Send(ctx, msgNavigate, args, 0); err != nil {
		return Result{}, err
	}
	return snapshotResult(ctx, agent, fmt.Sprintf("Navigated to %v", args["url"]))
}

// snapshotResult issues a snapshot exchange and folds the status line
// and the returned aria snapshot into one text block.
func snapshotResult(ctx context.Context, agent Caller, status string) (Result, error) {
	raw, err := agent.Send(ctx, msgSnapshot, nil, 0)
	if err != nil {
		return Result{}, err
	}

	var snapshot string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			// Older extensions send the snapshot wrapped in an object.
			var wrapped struct {
				Snapshot string `json:"snapshot"`
			}
			if err := json.Unmarshal(raw, &wrapped); err != nil {
				return Result{}, fmt.Errorf("decode snapshot payload: %w", err)
			}
			snapshot = wrapped.Snapshot
		}
	}

	var text strings.Builder
	if status != "" {
		text.WriteString(status)
		text.WriteString("\n\n")
	}
	text.WriteString("- Page Snapshot\n```yaml\n")
	text.WriteString(snapshot)
	if !strings.HasSuffix(snapshot, "\n") {
		text.WriteString("\n")
	}
	text.WriteString("```")
	return TextResult(text.String()), nil
}

func screenshotHandler(ctx context.Context, agent Caller, _ map[string]any) (Result, error) {
	raw, err := agent.Send(ctx, msgScreenshot, nil, 0)
	if err != nil {
		return Result{}, err
	}
	var data string
	if err := json.Unmarshal(raw, &data); err != nil {
		return Result{}, fmt.Errorf("decode screenshot payload: %w", err)
	}
	return ImageResult(data, "image/png"), nil
}

func consoleLogsHandler(ctx context.Context, agent Caller, _ map[string]any) (Result, error) {
	raw, err := agent.Send(ctx, msgGetConsoleLogs, nil, 0)
	if err != nil {
		return Result{}, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Result{}, fmt.Errorf("decode console log payload: %w", err)
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, string(entry))
	}
	return TextResult(strings.Join(lines, "\n")), nil
}
