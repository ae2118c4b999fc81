// Package conversation holds the chat view's state machine: the visible
// transcript, the loading flag that serializes turns, and the session id
// handed out by the backend.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mtgstrategist/ui/internal/model/chat"
)

var (
	// ErrEmptyInput is returned for blank input; nothing is recorded.
	ErrEmptyInput = errors.New("input is empty")
	// ErrBusy is returned while a turn is already in flight.
	ErrBusy = errors.New("a message is already being sent")
)

// Proxy is the view's side of the /api/chat and /api/reset routes.
type Proxy interface {
	Chat(ctx context.Context, message, sessionID string) (chat.QueryResponse, error)
	Reset(ctx context.Context, sessionID string) error
}

// Conversation is safe for concurrent use. At most one turn is in flight
// at a time.
type Conversation struct {
	proxy  Proxy
	logger *slog.Logger

	mu        sync.Mutex
	messages  []chat.Message
	sessionID string
	loading   bool
	// generation increments on every reset so answers to turns started
	// before the reset are dropped.
	generation uint64
}

// New returns a conversation showing only the greeting.
func New(proxy Proxy, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{
		proxy:    proxy,
		logger:   logger,
		messages: []chat.Message{chat.GreetingMessage()},
	}
}

// Messages returns a copy of the transcript in chronological order.
func (c *Conversation) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Message(nil), c.messages...)
}

// SessionID returns the backend session id, or "" before the first answer.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Loading reports whether a turn is in flight.
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Turn is a submitted message waiting for its answer.
type Turn struct {
	conv       *Conversation
	message    string
	sessionID  string
	generation uint64
}

// Begin records the user message and enters the loading state. The caller
// must follow up with Turn.Send.
func (c *Conversation) Begin(input string) (*Turn, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return nil, ErrBusy
	}

	c.messages = append(c.messages, chat.Message{Role: chat.RoleUser, Content: input})
	c.loading = true

	return &Turn{
		conv:       c,
		message:    input,
		sessionID:  c.sessionID,
		generation: c.generation,
	}, nil
}

// Send calls the chat route and records the answer, or the apology when
// the call fails. The loading state is always cleared. The returned error
// is the proxy failure, already reflected in the transcript.
func (t *Turn) Send(ctx context.Context) error {
	c := t.conv
	resp, err := c.proxy.Chat(ctx, t.message, t.sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if t.generation != c.generation {
		return err
	}

	if err != nil {
		c.logger.Error("error sending message", "error", err)
		c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: chat.Apology})
		return err
	}

	if c.sessionID == "" && resp.SessionID != "" {
		c.sessionID = resp.SessionID
	}
	c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: resp.Answer})
	return nil
}

// Submit runs a whole turn synchronously.
func (c *Conversation) Submit(ctx context.Context, input string) error {
	turn, err := c.Begin(input)
	if err != nil {
		return err
	}
	return turn.Send(ctx)
}

// Reset restores the greeting and forgets the session, then tells the
// server to drop that session, if there was one. The local state is reset
// before the call so a turn begun while it is pending starts a fresh
// session. A failed reset call is logged and otherwise ignored.
func (c *Conversation) Reset(ctx context.Context) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.sessionID = ""
	c.messages = []chat.Message{chat.GreetingMessage()}
	c.generation++
	c.mu.Unlock()

	if sessionID == "" {
		return
	}
	if err := c.proxy.Reset(ctx, sessionID); err != nil {
		c.logger.Error("error resetting conversation", "session_id", sessionID, "error", err)
	}
}
