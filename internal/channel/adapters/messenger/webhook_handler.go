package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/config"
	"github.com/ain9900/custom-chatbot-saas/internal/conversation/flow"
	"github.com/ain9900/custom-chatbot-saas/internal/dedupe"
	"github.com/ain9900/custom-chatbot-saas/internal/identity"
)

type turnHandler interface {
	HandleTurn(ctx context.Context, turn flow.Turn) (flow.Result, error)
}

type seenCache interface {
	Seen(key string) bool
}

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// WebhookOptions holds the platform secrets.
type WebhookOptions struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 checks when set.
	AppSecret string
}

// WebhookHandler receives messenger page events.
type WebhookHandler struct {
	logger *slog.Logger
	turns  turnHandler
	seen   seenCache
	opts   WebhookOptions
}

// NewWebhookHandler creates the public messenger webhook handler. seen may
// be nil to disable redelivery suppression.
func NewWebhookHandler(log *slog.Logger, turns turnHandler, seen seenCache, opts WebhookOptions) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger: log.With(slog.String("handler", "messenger_webhook")),
		turns:  turns,
		seen:   seen,
		opts:   opts,
	}
}

// NewWebhookServerHandler is a DI-friendly constructor for fx.
func NewWebhookServerHandler(log *slog.Logger, cfg config.Config, orchestrator *flow.Orchestrator, cache *dedupe.Cache) *WebhookHandler {
	return NewWebhookHandler(log, orchestrator, cache, WebhookOptions{
		VerifyToken: cfg.Messenger.VerifyToken,
		AppSecret:   cfg.Messenger.AppSecret,
	})
}

// Register registers the verification and event routes.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/api/fb/webhook/:webhook_key", h.HandleVerify)
	e.POST("/api/fb/webhook/:webhook_key", h.Handle)
}

// HandleVerify answers the platform subscription handshake.
func (h *WebhookHandler) HandleVerify(c echo.Context) error {
	token := c.QueryParam("hub.verify_token")
	if h.opts.VerifyToken == "" || token != h.opts.VerifyToken {
		return c.String(http.StatusForbidden, "Invalid verify token")
	}
	return c.String(http.StatusOK, c.QueryParam("hub.challenge"))
}

type webhookPayload struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

type webhookEntry struct {
	ID        string            `json:"id"`
	Messaging []json.RawMessage `json:"messaging"`
}

type messagingEvent struct {
	Sender    participant   `json:"sender"`
	Recipient participant   `json:"recipient"`
	Timestamp int64         `json:"timestamp"`
	Message   *eventMessage `json:"message"`
}

type participant struct {
	ID string `json:"id"`
}

type eventMessage struct {
	Mid    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo"`
}

// Handle processes a batch of page events. Each event is handled on its
// own; failures are logged and the platform always gets 200.
func (h *WebhookHandler) Handle(c echo.Context) error {
	if h.turns == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "messenger webhook dependencies not configured")
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(payload)) > webhookMaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", webhookMaxBodyBytes))
	}
	if h.opts.AppSecret != "" && !VerifySignature(h.opts.AppSecret, c.Request().Header.Get(signatureHeader), payload) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid messenger signature")
	}
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid messenger webhook payload: %v", err))
	}

	webhookKey := strings.TrimSpace(c.Param("webhook_key"))
	ctx := context.WithoutCancel(c.Request().Context())
	processed := 0
	for _, rawEntry := range body.Entry {
		var entry webhookEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			h.logger.Warn("skipping malformed entry", slog.Any("error", err))
			continue
		}
		for _, rawEvent := range entry.Messaging {
			msg, ok := h.decodeEvent(rawEvent, webhookKey)
			if !ok {
				continue
			}
			h.handleEvent(ctx, msg)
			processed++
		}
	}
	h.logger.Debug("messenger batch handled", slog.Int("events", processed))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) decodeEvent(raw json.RawMessage, webhookKey string) (channel.InboundMessage, bool) {
	var event messagingEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.logger.Warn("skipping malformed event", slog.Any("error", err))
		return channel.InboundMessage{}, false
	}
	if event.Message == nil || event.Message.IsEcho {
		return channel.InboundMessage{}, false
	}
	text := strings.TrimSpace(event.Message.Text)
	sender := strings.TrimSpace(event.Sender.ID)
	if text == "" || sender == "" {
		return channel.InboundMessage{}, false
	}
	// Marked before the turn runs: a redelivery of a failed turn is dropped too.
	if h.seen != nil && h.seen.Seen(event.Message.Mid) {
		h.logger.Info("skipping redelivered message", slog.String("mid", event.Message.Mid))
		return channel.InboundMessage{}, false
	}
	received := time.Now().UTC()
	if event.Timestamp > 0 {
		received = time.UnixMilli(event.Timestamp).UTC()
	}
	return channel.InboundMessage{
		Channel:     Type,
		WebhookKey:  webhookKey,
		SenderID:    sender,
		RecipientID: strings.TrimSpace(event.Recipient.ID),
		Text:        text,
		MessageID:   event.Message.Mid,
		ReceivedAt:  received,
	}, true
}

func (h *WebhookHandler) handleEvent(ctx context.Context, msg channel.InboundMessage) {
	_, err := h.turns.HandleTurn(ctx, flow.TurnFromInbound(msg))
	if err == nil {
		return
	}
	attrs := []any{
		slog.String("sender_id", msg.SenderID),
		slog.String("recipient_id", msg.RecipientID),
		slog.String("mid", msg.MessageID),
		slog.Any("error", err),
	}
	var completionErr *flow.CompletionError
	switch {
	case errors.Is(err, identity.ErrChatbotNotFound):
		h.logger.Warn("no chatbot for messenger event", attrs...)
	case errors.As(err, &completionErr):
		h.logger.Error("messenger turn failed at completion", attrs...)
	default:
		h.logger.Error("messenger turn failed", attrs...)
	}
}
