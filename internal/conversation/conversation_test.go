package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtgstrategist/ui/internal/client"
	"github.com/mtgstrategist/ui/internal/config"
	"github.com/mtgstrategist/ui/internal/handler"
	"github.com/mtgstrategist/ui/internal/model/chat"
	"github.com/mtgstrategist/ui/internal/service/backend"
	chatservice "github.com/mtgstrategist/ui/internal/service/chat"
)

type chatCall struct {
	message   string
	sessionID string
}

type fakeProxy struct {
	mu       sync.Mutex
	chats    []chatCall
	resets   []string
	answers  []chat.QueryResponse
	chatErr  error
	resetErr error
	// block, when set, holds Chat until it is closed.
	block chan struct{}
	// resetStarted and resetBlock, when set, signal a Reset call and hold
	// it until resetBlock is closed.
	resetStarted chan struct{}
	resetBlock   chan struct{}
}

func (f *fakeProxy) Chat(_ context.Context, message, sessionID string) (chat.QueryResponse, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatCall{message: message, sessionID: sessionID})
	if f.chatErr != nil {
		return chat.QueryResponse{}, f.chatErr
	}
	answer := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return answer, nil
}

func (f *fakeProxy) Reset(_ context.Context, sessionID string) error {
	if f.resetStarted != nil {
		close(f.resetStarted)
	}
	if f.resetBlock != nil {
		<-f.resetBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sessionID)
	return f.resetErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewShowsGreeting(t *testing.T) {
	conv := New(&fakeProxy{}, quietLogger())

	assert.Equal(t, []chat.Message{chat.GreetingMessage()}, conv.Messages())
	assert.Empty(t, conv.SessionID())
	assert.False(t, conv.Loading())
}

func TestSubmitCapturesFirstSessionOnly(t *testing.T) {
	proxy := &fakeProxy{answers: []chat.QueryResponse{
		{Answer: "Curve out at two and three.", SessionID: "abc123"},
		{Answer: "Sixteen to seventeen lands.", SessionID: "other"},
	}}
	conv := New(proxy, quietLogger())
	ctx := context.Background()

	require.NoError(t, conv.Submit(ctx, "What's a good mana curve?"))
	assert.Equal(t, "abc123", conv.SessionID())

	require.NoError(t, conv.Submit(ctx, "And lands for limited?"))
	assert.Equal(t, "abc123", conv.SessionID())

	require.Len(t, proxy.chats, 2)
	assert.Equal(t, "", proxy.chats[0].sessionID)
	assert.Equal(t, "abc123", proxy.chats[1].sessionID)

	msgs := conv.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, chat.Message{Role: chat.RoleUser, Content: "And lands for limited?"}, msgs[3])
	assert.Equal(t, chat.Message{Role: chat.RoleAssistant, Content: "Sixteen to seventeen lands."}, msgs[4])
}

func TestSubmitBlankInputIsNoop(t *testing.T) {
	proxy := &fakeProxy{}
	conv := New(proxy, quietLogger())

	for _, input := range []string{"", "   ", "\t\n"} {
		assert.ErrorIs(t, conv.Submit(context.Background(), input), ErrEmptyInput)
	}

	assert.Len(t, conv.Messages(), 1)
	assert.Empty(t, proxy.chats)
}

func TestSubmitFailureAppendsApology(t *testing.T) {
	boom := errors.New("HTTP error! status: 500")
	conv := New(&fakeProxy{chatErr: boom}, quietLogger())

	err := conv.Submit(context.Background(), "hi")
	assert.ErrorIs(t, err, boom)

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.Message{Role: chat.RoleAssistant, Content: chat.Apology}, msgs[2])
	assert.False(t, conv.Loading())
	assert.Empty(t, conv.SessionID())
}

func TestBeginWhileLoadingIsBusy(t *testing.T) {
	proxy := &fakeProxy{answers: []chat.QueryResponse{{Answer: "ok", SessionID: "s"}}, block: make(chan struct{})}
	conv := New(proxy, quietLogger())

	turn, err := conv.Begin("first")
	require.NoError(t, err)
	assert.True(t, conv.Loading())

	_, err = conv.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)

	done := make(chan error, 1)
	go func() { done <- turn.Send(context.Background()) }()
	close(proxy.block)
	require.NoError(t, <-done)

	assert.False(t, conv.Loading())
	assert.Len(t, conv.Messages(), 3)
}

func TestResetWithoutSessionSkipsNetwork(t *testing.T) {
	proxy := &fakeProxy{chatErr: errors.New("down")}
	conv := New(proxy, quietLogger())
	_ = conv.Submit(context.Background(), "hi")

	conv.Reset(context.Background())

	assert.Empty(t, proxy.resets)
	assert.Equal(t, []chat.Message{chat.GreetingMessage()}, conv.Messages())
}

func TestResetWithSessionCallsProxyAndIgnoresFailure(t *testing.T) {
	proxy := &fakeProxy{
		answers:  []chat.QueryResponse{{Answer: "ok", SessionID: "abc123"}},
		resetErr: errors.New("HTTP error! status: 500"),
	}
	conv := New(proxy, quietLogger())
	require.NoError(t, conv.Submit(context.Background(), "hi"))

	conv.Reset(context.Background())

	assert.Equal(t, []string{"abc123"}, proxy.resets)
	assert.Empty(t, conv.SessionID())
	assert.Equal(t, []chat.Message{chat.GreetingMessage()}, conv.Messages())
}

func TestAnswerAfterResetIsDropped(t *testing.T) {
	proxy := &fakeProxy{answers: []chat.QueryResponse{{Answer: "late", SessionID: "abc123"}}, block: make(chan struct{})}
	conv := New(proxy, quietLogger())

	turn, err := conv.Begin("hi")
	require.NoError(t, err)

	conv.Reset(context.Background())
	close(proxy.block)
	require.NoError(t, turn.Send(context.Background()))

	assert.Equal(t, []chat.Message{chat.GreetingMessage()}, conv.Messages())
	assert.Empty(t, conv.SessionID())
	assert.False(t, conv.Loading())
}

func TestBeginDuringPendingResetUsesFreshSession(t *testing.T) {
	proxy := &fakeProxy{
		answers: []chat.QueryResponse{
			{Answer: "first", SessionID: "abc123"},
			{Answer: "second", SessionID: "def456"},
		},
		resetStarted: make(chan struct{}),
		resetBlock:   make(chan struct{}),
	}
	conv := New(proxy, quietLogger())
	require.NoError(t, conv.Submit(context.Background(), "hi"))

	resetDone := make(chan struct{})
	go func() {
		conv.Reset(context.Background())
		close(resetDone)
	}()
	<-proxy.resetStarted

	assert.Empty(t, conv.SessionID())
	assert.Equal(t, []chat.Message{chat.GreetingMessage()}, conv.Messages())

	turn, err := conv.Begin("after reset")
	require.NoError(t, err)
	require.NoError(t, turn.Send(context.Background()))

	close(proxy.resetBlock)
	<-resetDone

	require.Len(t, proxy.chats, 2)
	assert.Equal(t, "", proxy.chats[1].sessionID)
	assert.Equal(t, []string{"abc123"}, proxy.resets)
	assert.Equal(t, "def456", conv.SessionID())

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "second", msgs[2].Content)
}

// newStack runs the real proxy in front of a fake Strategist backend.
func newStack(t *testing.T, backendHandler http.HandlerFunc) *Conversation {
	t.Helper()
	strategist := httptest.NewServer(backendHandler)
	t.Cleanup(strategist.Close)

	svc := chatservice.NewService(backend.NewClient(config.BackendConfig{BaseURL: strategist.URL}))
	ui := httptest.NewServer(handler.NewRouter(svc, "*", quietLogger()))
	t.Cleanup(ui.Close)

	return New(client.New(ui.URL, ui.Client()), quietLogger())
}

func TestEndToEndFirstMessage(t *testing.T) {
	var forwarded string
	conv := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		forwarded = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"Most 60-card decks want a curve peaking at two and three.","session_id":"abc123"}`))
	})

	require.NoError(t, conv.Submit(context.Background(), "What's a good mana curve for a 60-card deck?"))

	assert.JSONEq(t, `{"message":"What's a good mana curve for a 60-card deck?","session_id":null}`, forwarded)
	assert.Equal(t, "abc123", conv.SessionID())

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.RoleUser, msgs[1].Role)
	assert.Equal(t, chat.RoleAssistant, msgs[2].Role)
}

func TestEndToEndBackendUnavailable(t *testing.T) {
	conv := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := conv.Submit(context.Background(), "hi")

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "Failed to process request", statusErr.Message)

	msgs := conv.Messages()
	assert.Equal(t, chat.Apology, msgs[len(msgs)-1].Content)
	assert.False(t, conv.Loading())
}
