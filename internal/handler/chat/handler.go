package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mtgstrategist/ui/internal/model/chat"
	chatService "github.com/mtgstrategist/ui/internal/service/chat"
	"github.com/mtgstrategist/ui/pkg/utils"
)

const (
	errProcessRequest = "Failed to process request"
	errResetFailed    = "Failed to reset conversation"
)

// ValidationError 表示浏览器请求体不合法，不会被转发到后端。
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Handler 聊天代理的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	logger  *slog.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger *slog.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/reset", h.handleReset)
}

// handleChat 转发一次提问并原样返回后端的JSON
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.ChatRequest
	if err := decodeBody(r, &payload); err != nil {
		h.rejectInvalid(w, r, err)
		return
	}

	body, err := h.chatSvc.Send(r.Context(), payload)
	if errors.Is(err, chatService.ErrMessageRequired) {
		h.rejectInvalid(w, r, &ValidationError{Reason: err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("error processing chat request",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		utils.RespondError(w, http.StatusInternalServerError, errProcessRequest)
		return
	}

	utils.RespondRawJSON(w, http.StatusOK, body)
}

// handleReset 转发会话重置
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload chat.ResetRequest
	if err := decodeBody(r, &payload); err != nil {
		h.rejectInvalid(w, r, err)
		return
	}

	if payload.SessionID == nil {
		h.logger.Warn("reset forwarded without session id",
			"request_id", middleware.GetReqID(r.Context()),
		)
	}

	if err := h.chatSvc.Reset(r.Context(), payload); err != nil {
		h.logger.Error("error resetting conversation",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		utils.RespondError(w, http.StatusInternalServerError, errResetFailed)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chat.StatusResponse{Status: "success"})
}

func (h *Handler) rejectInvalid(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Info("rejected invalid request body",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	utils.RespondError(w, http.StatusBadRequest, err.Error())
}

// decodeBody accepts exactly one JSON object. A literal null, a non-object
// value, or anything after the object is a ValidationError.
func decodeBody(r *http.Request, dst any) error {
	invalid := &ValidationError{Reason: "invalid request body"}

	dec := json.NewDecoder(r.Body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return invalid
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalid
	}
	if bytes.Equal(raw, []byte("null")) {
		return invalid
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalid
	}
	return nil
}
