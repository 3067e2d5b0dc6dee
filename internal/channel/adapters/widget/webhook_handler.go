package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/conversation/flow"
	"github.com/ain9900/custom-chatbot-saas/internal/identity"
)

type turnHandler interface {
	HandleTurn(ctx context.Context, turn flow.Turn) (flow.Result, error)
}

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// WebhookRequest is the widget message payload.
type WebhookRequest struct {
	Message  string `json:"message"`
	SenderID string `json:"sender_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// WebhookResponse carries the inline reply.
type WebhookResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the widget error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WebhookHandler answers widget messages synchronously.
type WebhookHandler struct {
	logger *slog.Logger
	turns  turnHandler
}

// NewWebhookHandler creates the public widget webhook handler.
func NewWebhookHandler(log *slog.Logger, turns turnHandler) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger: log.With(slog.String("handler", "widget_webhook")),
		turns:  turns,
	}
}

// NewWebhookServerHandler is a DI-friendly constructor using the concrete orchestrator.
func NewWebhookServerHandler(log *slog.Logger, orchestrator *flow.Orchestrator) *WebhookHandler {
	return NewWebhookHandler(log, orchestrator)
}

// Register registers the widget webhook route.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/api/chatbot/webhook/:webhook_key", h.Handle)
}

// Handle processes one widget message and returns the reply inline.
func (h *WebhookHandler) Handle(c echo.Context) error {
	if h.turns == nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "widget webhook not configured"})
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("read body: %v", err)})
	}
	if int64(len(payload)) > webhookMaxBodyBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("payload too large: max %d bytes", webhookMaxBodyBytes)})
	}
	var req WebhookRequest
	if len(strings.TrimSpace(string(payload))) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		}
	}

	result, err := h.turns.HandleTurn(c.Request().Context(), flow.TurnFromInbound(channel.InboundMessage{
		Channel:    Type,
		WebhookKey: strings.TrimSpace(c.Param("webhook_key")),
		SenderID:   senderOf(req),
		Text:       req.Message,
	}))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, WebhookResponse{Reply: result.Reply})
}

func (h *WebhookHandler) writeError(c echo.Context, err error) error {
	var completionErr *flow.CompletionError
	switch {
	case errors.Is(err, identity.ErrChatbotNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Chatbot not found"})
	case errors.Is(err, flow.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message is required"})
	case errors.As(err, &completionErr):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Assistant is unavailable, please retry"})
	default:
		h.logger.Error("widget turn failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
}

// senderOf prefers sender_id, then user_id, then the anonymous sender.
func senderOf(req WebhookRequest) string {
	if s := strings.TrimSpace(req.SenderID); s != "" {
		return s
	}
	if s := strings.TrimSpace(req.UserID); s != "" {
		return s
	}
	return flow.AnonymousSender
}
