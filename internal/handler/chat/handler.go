package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zhouzirui/mindful-chat/backend/internal/logging"
	"github.com/zhouzirui/mindful-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/mindful-chat/backend/internal/service/chat"
	"github.com/zhouzirui/mindful-chat/backend/pkg/utils"
)

const maxBodyBytes = 64 << 10

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc       *chatService.Service
	validate      *validator.Validate
	logger        *slog.Logger
	exposeDetails bool
}

// New 创建聊天处理器. exposeDetails includes internal error causes in
// responses and is meant for development only.
func New(chatSvc *chatService.Service, logger *slog.Logger, exposeDetails bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chatSvc:       chatSvc,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
		exposeDetails: exposeDetails,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleSendMessage)
	r.Post("/session", h.handleCreateSession)
	r.Get("/{sessionId}", h.handleGetHistory)
	r.Delete("/{sessionId}", h.handleDeleteSession)
}

type sendMessageRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=1000"`
	SessionID string `json:"sessionId" validate:"omitempty,uuid"`
}

type sendMessageResponse struct {
	SessionID string    `json:"sessionId"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type fieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// handleSendMessage 发送消息并获取回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload sendMessageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if errs := h.validateStruct(payload); errs != nil {
		utils.RespondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}

	reply, err := h.chatSvc.ProcessMessage(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		h.respondFailure(w, r, "Failed to process message", err)
		return
	}

	utils.RespondSuccess(w, http.StatusOK, "Message processed successfully", sendMessageResponse{
		SessionID: reply.SessionID,
		Message:   reply.Message,
		Response:  reply.Response,
		Timestamp: reply.Timestamp,
	})
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		h.respondFailure(w, r, "Failed to create new chat session", err)
		return
	}

	utils.RespondSuccess(w, http.StatusCreated, "New chat session created successfully",
		map[string]string{"sessionId": sessionID})
}

// handleGetHistory 获取会话历史
func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionParam(w, r)
	if !ok {
		return
	}

	history, found, err := h.chatSvc.History(r.Context(), sessionID)
	if err != nil {
		h.respondFailure(w, r, "Failed to retrieve chat history", err)
		return
	}
	if !found {
		utils.RespondNotFound(w, fmt.Sprintf("Chat session with ID %s not found", sessionID))
		return
	}

	utils.RespondSuccess(w, http.StatusOK, "Chat history retrieved successfully", history)
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.chatSvc.DeleteSession(r.Context(), sessionID)
	if err != nil {
		h.respondFailure(w, r, "Failed to delete chat session", err)
		return
	}
	if !deleted {
		utils.RespondNotFound(w, fmt.Sprintf("Chat session with ID %s not found", sessionID))
		return
	}

	utils.RespondSuccess(w, http.StatusOK, "Chat session deleted successfully", map[string]any{
		"sessionId": sessionID,
		"deleted":   deleted,
	})
}

func (h *Handler) sessionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := h.validate.Var(sessionID, "required,uuid"); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Validation failed", []fieldError{
			{Path: "sessionId", Message: "Invalid session ID format"},
		})
		return "", false
	}
	return sessionID, true
}

func (h *Handler) validateStruct(v any) []fieldError {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Path: "body", Message: err.Error()}}
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Path: jsonFieldName(fe.Field()), Message: describeTag(fe)})
	}
	return out
}

func jsonFieldName(field string) string {
	switch field {
	case "SessionID":
		return "sessionId"
	case "":
		return field
	default:
		return strings.ToLower(field[:1]) + field[1:]
	}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return "Message cannot be empty"
	case "max":
		return "Message is too long (max 1000 characters)"
	case "uuid":
		return "Invalid session ID format"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// respondFailure maps core errors onto the envelope. Causes are logged and
// only echoed back when exposeDetails is set.
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	logger := logging.FromContext(r.Context(), h.logger)

	if errors.Is(err, chat.ErrSessionNotFound) {
		logger.Warn(message, "error", err)
		utils.RespondNotFound(w, "Chat session not found")
		return
	}

	logger.Error(message, "error", err, "timeout", chatService.IsTimeout(err))

	var details any
	if h.exposeDetails {
		details = err.Error()
	}
	utils.RespondError(w, http.StatusInternalServerError, message, details)
}
