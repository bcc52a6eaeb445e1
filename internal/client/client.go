// Package client talks to a running mcp-weather-server over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/i474232898/mcp-weather-server/internal/protocol"
)

const dispatchPath = "/v1/mcp"

// Response is a decoded dispatch envelope. Data is kept raw so callers can
// decode it into the type matching Intent.
type Response struct {
	Status     protocol.Status `json:"status"`
	Intent     string          `json:"intent"`
	City       string          `json:"city"`
	Data       json.RawMessage `json:"data"`
	SessionID  string          `json:"session_id"`
	StreamPath string          `json:"stream_path"`
	Kind       protocol.Kind   `json:"kind"`
	Message    string          `json:"message"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for server, which may omit the scheme or include the
// dispatch path. A nil httpClient means http.DefaultClient.
func New(server string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: NormalizeBaseURL(server), http: httpClient}
}

// NormalizeBaseURL turns "host:port", "http://host/" or "http://host/v1/mcp"
// into "http://host[:port]".
func NormalizeBaseURL(server string) string {
	server = strings.TrimSpace(server)
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	server = strings.TrimRight(server, "/")
	return strings.TrimSuffix(server, dispatchPath)
}

// Ask sends a synchronous query. An error envelope is returned as a
// *protocol.Error.
func (c *Client) Ask(ctx context.Context, query string) (Response, error) {
	resp, err := c.dispatch(ctx, query, false)
	if err != nil {
		return Response{}, err
	}
	if resp.Status != protocol.StatusOK {
		return resp, fmt.Errorf("unexpected status %q", resp.Status)
	}
	return resp, nil
}

// Stream registers a streaming session for query, connects to it and calls fn
// for every frame received until the server closes the stream.
func (c *Client) Stream(ctx context.Context, query string, fn func(protocol.Frame) error) error {
	reg, err := c.dispatch(ctx, query, true)
	if err != nil {
		return err
	}
	if reg.Status != protocol.StatusPending || reg.StreamPath == "" {
		return fmt.Errorf("server did not register a stream (status %q)", reg.Status)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+reg.StreamPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp)
	}
	return protocol.DecodeFrames(resp.Body, fn)
}

func (c *Client) dispatch(ctx context.Context, query string, stream bool) (Response, error) {
	body, err := json.Marshal(protocol.Request{Query: query, Stream: &stream})
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+dispatchPath, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, decodeFailure(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// decodeFailure turns a non-200 reply into a *protocol.Error, falling back to
// a plain error when the body is not an error envelope.
func decodeFailure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var env Response
	if err := json.Unmarshal(raw, &env); err == nil && env.Status == protocol.StatusError && env.Kind != "" {
		return protocol.NewError(env.Kind, env.Message)
	}
	return errors.New(resp.Status + ": " + strings.TrimSpace(string(raw)))
}
