package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mtgstrategist/ui/internal/model/chat"
)

var ErrMessageRequired = errors.New("message is required")

// Backend is the subset of the Strategist backend the proxy forwards to.
type Backend interface {
	Query(ctx context.Context, req chat.QueryRequest) (json.RawMessage, error)
	Reset(ctx context.Context, req chat.BackendResetRequest) error
}

// Service maps browser envelopes onto backend envelopes. It holds no
// conversation state; the backend owns sessions.
type Service struct {
	backend Backend
}

// NewService wires the proxy service to a backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Send forwards a chat turn and returns the backend's JSON unchanged.
func (s *Service) Send(ctx context.Context, req chat.ChatRequest) (json.RawMessage, error) {
	if req.Message == nil {
		return nil, ErrMessageRequired
	}

	body, err := s.backend.Query(ctx, chat.QueryRequest{
		Message:   *req.Message,
		SessionID: chat.OptionalSessionID(req.SessionID),
	})
	if err != nil {
		return nil, fmt.Errorf("query backend: %w", err)
	}
	return body, nil
}

// Reset forwards a reset. A missing session id is passed through as an
// absent key rather than rejected; what the backend does with it is its
// own business.
func (s *Service) Reset(ctx context.Context, req chat.ResetRequest) error {
	if err := s.backend.Reset(ctx, chat.BackendResetRequest{SessionID: req.SessionID}); err != nil {
		return fmt.Errorf("reset backend: %w", err)
	}
	return nil
}
