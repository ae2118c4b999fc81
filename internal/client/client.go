// Package client calls the browser-facing proxy routes, the same way the
// chat page's fetch calls do.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mtgstrategist/ui/internal/model/chat"
)

// StatusError reports a non-2xx answer from a proxy route.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error! status: %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running UI server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Chat posts one message. An empty sessionID is sent as null.
func (c *Client) Chat(ctx context.Context, message, sessionID string) (chat.QueryResponse, error) {
	req := chat.ChatRequest{Message: &message}
	if sessionID != "" {
		req.SessionID = &sessionID
	}

	var out chat.QueryResponse
	if err := c.post(ctx, "/api/chat", req, &out); err != nil {
		return chat.QueryResponse{}, err
	}
	return out, nil
}

// Reset asks the server to drop the conversation bound to sessionID.
func (c *Client) Reset(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/api/reset", chat.ResetRequest{SessionID: &sessionID}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody chat.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &errBody)
		return &StatusError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
