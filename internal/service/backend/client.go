package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mtgstrategist/ui/internal/config"
	"github.com/mtgstrategist/ui/internal/model/chat"
)

const (
	queryPath = "/api/query"
	resetPath = "/api/reset"

	// maxResponseBytes caps how much of a backend answer is buffered.
	maxResponseBytes = 4 << 20
)

var (
	// ErrInvalidResponse reports a success status carrying a non-JSON body.
	ErrInvalidResponse = errors.New("backend returned invalid JSON")
	// ErrResponseTooLarge reports a backend body over maxResponseBytes.
	ErrResponseTooLarge = errors.New("backend response too large")
)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error from backend %s: %d", e.Endpoint, e.StatusCode)
}

// Client talks to the Strategist backend over HTTP. Each call is a single
// attempt with no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the configured backend. A zero timeout
// leaves calls bounded only by the caller's context.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Query forwards a message and returns the backend's JSON body untouched.
func (c *Client) Query(ctx context.Context, req chat.QueryRequest) (json.RawMessage, error) {
	body, err := c.post(ctx, queryPath, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, ErrInvalidResponse
	}
	return json.RawMessage(body), nil
}

// Reset asks the backend to drop a conversation. Any 2xx status is success
// and the body is ignored.
func (c *Client) Reset(ctx context.Context, req chat.BackendResetRequest) error {
	_, err := c.post(ctx, resetPath, req)
	return err
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call backend %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read backend %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("read backend %s response: %w (limit %d bytes)", path, ErrResponseTooLarge, maxResponseBytes)
	}

	return body, nil
}

// requestID reuses the inbound request id so backend logs line up with ours.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
