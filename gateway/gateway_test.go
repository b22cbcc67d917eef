package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar-agentkit/stellarflow/agui"
	"github.com/stellar-agentkit/stellarflow/retry"
)

const agentStream = "event: RUN_STARTED\ndata: {\"type\":\"RUN_STARTED\"}\n\nevent: RUN_FINISHED\ndata: {\"type\":\"RUN_FINISHED\"}\n\n"

// fakeAgentServer records the run it receives and answers with a fixed
// event stream.
func fakeAgentServer(t *testing.T, got *agui.RunAgentInput) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agents/stellarAgent/stream", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, agentStream)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, baseURL string) http.Handler {
	t.Helper()
	remote, err := NewRemoteAgent(baseURL, "stellarAgent", WithRetry(retry.Disabled()))
	require.NoError(t, err)
	return NewHandler(remote, nil).Routes()
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))
	return rec
}

func TestChatForwardsStream(t *testing.T) {
	var got agui.RunAgentInput
	srv := fakeAgentServer(t, &got)
	h := newGateway(t, srv.URL)

	rec := post(h, `{
		"system": "You are helpful.",
		"messages": [
			{"role": "user", "content": "Create an account"},
			{"role": "assistant", "content": [{"type": "text", "text": "On it"}]}
		],
		"tools": {"confirm": {"description": "Ask the user", "parameters": {"type": "object"}}}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, agentStream, rec.Body.String())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are helpful.", *got.Messages[0].Content)
	assert.Equal(t, "Create an account", *got.Messages[1].Content)
	assert.Equal(t, "On it", *got.Messages[2].Content)

	require.Len(t, got.Tools, 1)
	tool := got.Tools[0].(map[string]any)
	assert.Equal(t, "confirm", tool["name"])
	assert.Equal(t, true, got.ForwardedProps.(map[string]any)["toolCallStreaming"])
}

func TestChatBadRequests(t *testing.T) {
	h := newGateway(t, "http://127.0.0.1:1")

	assert.Equal(t, http.StatusBadRequest, post(h, `{`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"messages": []}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"messages": [{"role":"user","content": 5}]}`).Code)
}

func TestChatAgentUnavailable(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		rec := post(newGateway(t, url), `{"messages":[{"role":"user","content":"hi"}]}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("agent error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		rec := post(newGateway(t, srv.URL), `{"messages":[{"role":"user","content":"hi"}]}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "500")
	})
}

func TestRemoteAgentRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, agentStream)
	}))
	defer srv.Close()

	remote, err := NewRemoteAgent(srv.URL, "stellarAgent",
		WithRetry(retry.Config{MaxAttempts: 2, InitialDelay: 1, MaxDelay: 1, Multiplier: 1}))
	require.NoError(t, err)

	stream, err := remote.Stream(context.Background(), agui.RunAgentInput{})
	require.NoError(t, err)
	defer stream.Body.Close()
	body, _ := io.ReadAll(stream.Body)
	assert.Equal(t, agentStream, string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewRemoteAgent(t *testing.T) {
	a, err := NewRemoteAgent("http://localhost:4111/", "stellarAgent")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4111/api/agents/stellarAgent/stream", a.Endpoint())

	_, err = NewRemoteAgent("localhost", "x")
	assert.Error(t, err)
}

func TestContent(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"plain"}`), &m))
	assert.Equal(t, "plain", m.Content.Text())

	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":[{"type":"text","text":"a"},{"type":"image","text":"x"},{"type":"text","text":"b"}]}`), &m))
	assert.Equal(t, "ab", m.Content.Text())
}

func TestTools(t *testing.T) {
	var list Tools
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"b"},{"name":"a"}]`), &list))
	assert.Equal(t, []string{"b", "a"}, agui.ToolNames(list))

	var byName Tools
	require.NoError(t, json.Unmarshal([]byte(`{"b":{"description":"B"},"a":{}}`), &byName))
	assert.Equal(t, []string{"a", "b"}, agui.ToolNames(byName))
	assert.Equal(t, "B", byName[1].Description)

	assert.Error(t, json.Unmarshal([]byte(`"tools"`), &byName))
}

func TestRunInputToolParts(t *testing.T) {
	req := ChatRequest{Messages: []Message{
		{Role: "user", Content: Content{{Type: "text", Text: "send"}}},
		{Role: "assistant", Content: Content{{Type: "tool-call", ToolCallID: "c1", ToolName: "confirm", Args: json.RawMessage(`{"amount":5}`)}}},
		{Role: "tool", Content: Content{{Type: "tool-result", ToolCallID: "c1", Result: json.RawMessage(`"yes"`)}}},
	}}
	in, err := req.RunInput()
	require.NoError(t, err)
	require.Len(t, in.Messages, 3)

	assert.Nil(t, in.Messages[1].Content)
	require.Len(t, in.Messages[1].ToolCalls, 1)
	assert.Equal(t, `{"amount":5}`, in.Messages[1].ToolCalls[0].Function.Arguments)

	assert.Equal(t, "tool", in.Messages[2].Role)
	assert.Equal(t, "c1", *in.Messages[2].ToolCallID)
	assert.Equal(t, "yes", *in.Messages[2].Content)

	prepared, err := in.Prepare()
	require.NoError(t, err)
	assert.Len(t, prepared.Messages, 3)
}

func TestRunInputNoMessages(t *testing.T) {
	_, err := (&ChatRequest{}).RunInput()
	assert.True(t, errors.Is(err, ErrNoMessages))
}
