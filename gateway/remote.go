package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ai "github.com/stellar-agentkit/stellarflow"
	"github.com/stellar-agentkit/stellarflow/agui"
	"github.com/stellar-agentkit/stellarflow/retry"
)

// Stream is an open agent response.
type Stream struct {
	ContentType string
	Body        io.ReadCloser
}

// Agent streams the answer to an AG-UI run.
type Agent interface {
	Stream(ctx context.Context, input agui.RunAgentInput) (*Stream, error)
}

// RemoteAgent calls an agent on the stellarflow server.
type RemoteAgent struct {
	endpoint string
	client   *http.Client
	retry    retry.Config
}

// RemoteOption configures a RemoteAgent.
type RemoteOption func(*RemoteAgent)

// WithHTTPClient sets the HTTP client. The default has no timeout so long
// streams are not cut off.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(a *RemoteAgent) { a.client = c }
}

// WithRetry sets the retry policy for establishing the stream.
func WithRetry(cfg retry.Config) RemoteOption {
	return func(a *RemoteAgent) { a.retry = cfg }
}

// NewRemoteAgent returns an agent served at {baseURL}/api/agents/{agentID}/stream.
func NewRemoteAgent(baseURL, agentID string, opts ...RemoteOption) (*RemoteAgent, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway: invalid agent url %q", baseURL)
	}
	a := &RemoteAgent{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/agents/" + url.PathEscape(agentID) + "/stream",
		client:   &http.Client{},
		retry:    retry.Config{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second, Multiplier: 2},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Endpoint returns the stream URL.
func (a *RemoteAgent) Endpoint() string { return a.endpoint }

// Stream posts the run and returns the open event stream. Non-2xx answers
// become categorized errors carrying the status code.
func (a *RemoteAgent) Stream(ctx context.Context, input agui.RunAgentInput) (*Stream, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode run: %w", err)
	}
	return retry.Do(ctx, a.retry, func() (*Stream, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", agui.ContentType)

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode/100 != 2 {
			defer resp.Body.Close()
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, ai.NewStatusError(
				fmt.Sprintf("agent answered %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
				resp.StatusCode, 0, nil)
		}
		return &Stream{ContentType: resp.Header.Get("Content-Type"), Body: resp.Body}, nil
	})
}
