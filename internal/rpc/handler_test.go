package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/browser-mcp-server/internal/protocol"
	"github.com/codex-k8s/browser-mcp-server/internal/ratelimit"
	"github.com/codex-k8s/browser-mcp-server/internal/resources"
	"github.com/codex-k8s/browser-mcp-server/internal/tools"
)

type fakeAgent struct {
	mu        sync.Mutex
	sent      []string
	responses map[string]any
	connected bool
}

func (f *fakeAgent) Send(_ context.Context, msgType string, _ any, _ time.Duration) (json.RawMessage, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msgType)
	f.mu.Unlock()
	raw, err := json.Marshal(f.responses[msgType])
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *fakeAgent) HasConnection() bool { return f.connected }

func (f *fakeAgent) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestHandler(t *testing.T, agent *fakeAgent, limiter *ratelimit.Limiter) *Handler {
	t.Helper()
	registry, err := tools.NewBrowserRegistry()
	require.NoError(t, err)
	resourceRegistry, err := resources.NewBrowserRegistry()
	require.NoError(t, err)
	dispatcher := tools.NewDispatcher(registry, agent, nil, nil)
	return NewHandler(dispatcher, resourceRegistry, agent, limiter, nil,
		ServerInfo{Name: "browser-mcp-server", Version: "1.2.0"})
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) protocol.JSONRPCResponse {
	t.Helper()
	var resp protocol.JSONRPCResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestInitialize(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	resp := decode(t, post(t, h, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`))
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "1", string(resp.ID))

	var result struct {
		ProtocolVersion string     `json:"protocolVersion"`
		ServerInfo      ServerInfo `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "browser-mcp-server", result.ServerInfo.Name)
}

func TestPing(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	resp := decode(t, post(t, h, `{"jsonrpc":"2.0","id":"p1","method":"ping"}`))
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{}`, string(resp.Result))
	assert.JSONEq(t, `"p1"`, string(resp.ID))
}

func TestToolsListPreservesRegistrationOrder(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	resp := decode(t, post(t, h, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	require.Nil(t, resp.Error)

	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		"browser_navigate",
		"browser_go_back",
		"browser_go_forward",
		"browser_wait",
		"browser_press_key",
		"browser_snapshot",
		"browser_click",
		"browser_hover",
		"browser_type",
		"browser_select_option",
		"browser_drag",
		"browser_screenshot",
		"browser_get_console_logs",
	}, names)
}

func TestToolsCallWithoutAgent(t *testing.T) {
	agent := &fakeAgent{connected: false}
	h := newTestHandler(t, agent, nil)

	resp := decode(t, post(t, h,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"browser_navigate","arguments":{"url":"https://example.com"}}}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeAgentUnavailable, resp.Error.Code)
	assert.Equal(t, 0, agent.sendCount(), "no socket write may be attempted without a connection")
}

func TestToolsCallSuccess(t *testing.T) {
	agent := &fakeAgent{
		connected: true,
		responses: map[string]any{
			"click":    map[string]any{},
			"snapshot": "- button \"Submit\" [ref=e12]",
		},
	}
	h := newTestHandler(t, agent, nil)

	resp := decode(t, post(t, h,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"browser_click","arguments":{"element":"Submit","ref":"e12"}}}`))
	require.Nil(t, resp.Error)

	var result tools.Result
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.False(t, result.IsError)
	require.NotEmpty(t, result.Content)
	assert.Contains(t, result.Content[0].Text, `Clicked "Submit"`)
}

func TestToolsCallUnknownToolIsToolError(t *testing.T) {
	agent := &fakeAgent{connected: true}
	h := newTestHandler(t, agent, nil)

	resp := decode(t, post(t, h,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"browser_fly"}}`))
	require.Nil(t, resp.Error, "unknown tool is a tool-level failure, not a protocol error")

	var result tools.Result
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "unknown tool")
}

func TestToolsCallMissingName(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{connected: true}, nil)

	resp := decode(t, post(t, h,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"arguments":{"url":"https://example.com"}}}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInvalidParams, resp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	resp := decode(t, post(t, h, `{"jsonrpc":"2.0","id":7,"method":"foo/bar"}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeMethodNotFound, resp.Error.Code)
}

func TestMalformedEnvelope(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	resp := decode(t, post(t, h, `{"jsonrpc":"1.0","id":8,"method":"ping"}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInvalidRequest, resp.Error.Code)
	assert.JSONEq(t, "8", string(resp.ID))
}

func TestMissingMethodUsesNullID(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	rr := post(t, h, `{"jsonrpc":"2.0"}`)
	resp := decode(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInvalidRequest, resp.Error.Code)
	assert.Contains(t, rr.Body.String(), `"id":null`)
}

func TestParseError(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	resp := decode(t, post(t, h, `{not json`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeParseError, resp.Error.Code)
}

func TestInitializedNotificationHasNoBody(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	rr := post(t, h, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestToolsCallRateLimited(t *testing.T) {
	agent := &fakeAgent{
		connected: true,
		responses: map[string]any{"snapshot": "- page"},
	}
	h := newTestHandler(t, agent, ratelimit.New(1))

	body := `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"browser_snapshot"}}`
	first := decode(t, post(t, h, body))
	require.Nil(t, first.Error)

	second := decode(t, post(t, h, body))
	require.NotNil(t, second.Error)
	assert.Equal(t, protocol.CodeRateLimited, second.Error.Code)
}

func TestResourcesListAndRead(t *testing.T) {
	agent := &fakeAgent{
		connected: true,
		responses: map[string]any{"getConsoleLogs": []any{
			map[string]any{"level": "error", "text": "boom"},
		}},
	}
	h := newTestHandler(t, agent, nil)

	listResp := decode(t, post(t, h, `{"jsonrpc":"2.0","id":10,"method":"resources/list"}`))
	require.Nil(t, listResp.Error)
	var list struct {
		Resources []struct {
			URI string `json:"uri"`
		} `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(listResp.Result, &list))
	require.Len(t, list.Resources, 1)
	assert.Equal(t, resources.ConsoleLogsURI, list.Resources[0].URI)

	readResp := decode(t, post(t, h,
		`{"jsonrpc":"2.0","id":11,"method":"resources/read","params":{"uri":"browser://console/logs"}}`))
	require.Nil(t, readResp.Error)
	var read struct {
		Contents []resources.Content `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(readResp.Result, &read))
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, "boom")
}

func TestResourcesReadUnknownURIIsEmpty(t *testing.T) {
	h := newTestHandler(t, &fakeAgent{connected: true}, nil)

	resp := decode(t, post(t, h,
		`{"jsonrpc":"2.0","id":12,"method":"resources/read","params":{"uri":"browser://nope"}}`))
	require.Nil(t, resp.Error)
	var read struct {
		Contents []resources.Content `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &read))
	assert.Empty(t, read.Contents)
}
