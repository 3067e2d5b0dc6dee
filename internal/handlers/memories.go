package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/bots"
	"github.com/ain9900/custom-chatbot-saas/internal/memory"
)

type chatbotOwner interface {
	Get(ctx context.Context, tenantID, chatbotID string) (bots.Chatbot, error)
}

type memoryReader interface {
	Get(ctx context.Context, chatbotID, endUserID string) (memory.Memory, error)
	Clear(ctx context.Context, chatbotID, endUserID string) (memory.Memory, error)
}

// MemoryHandler lets a tenant inspect or reset one end user's window.
type MemoryHandler struct {
	chatbots chatbotOwner
	service  memoryReader
	logger   *slog.Logger
}

func NewMemoryHandler(log *slog.Logger, chatbots *bots.Service, service *memory.Service) *MemoryHandler {
	return newMemoryHandler(log, chatbots, service)
}

func newMemoryHandler(log *slog.Logger, chatbots chatbotOwner, service memoryReader) *MemoryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MemoryHandler{
		chatbots: chatbots,
		service:  service,
		logger:   log.With(slog.String("handler", "memory")),
	}
}

func (h *MemoryHandler) Register(e *echo.Echo) {
	group := e.Group("/api/chatbots/:id/memories")
	group.GET("/:end_user_id", h.Get)
	group.DELETE("/:end_user_id", h.Clear)
}

// Get godoc
// @Summary Get an end user's conversation window
// @Tags memory
// @Param id path string true "Chatbot ID"
// @Param end_user_id path string true "End user ID"
// @Success 200 {object} memory.Memory
// @Failure 404 {object} echo.HTTPError
// @Router /api/chatbots/{id}/memories/{end_user_id} [get]
func (h *MemoryHandler) Get(c echo.Context) error {
	chatbotID, endUserID, err := h.requireOwnedPair(c)
	if err != nil {
		return err
	}
	mem, err := h.service.Get(c.Request().Context(), chatbotID, endUserID)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation memory not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, mem)
}

// Clear godoc
// @Summary Clear an end user's conversation window
// @Tags memory
// @Param id path string true "Chatbot ID"
// @Param end_user_id path string true "End user ID"
// @Success 200 {object} memory.Memory
// @Router /api/chatbots/{id}/memories/{end_user_id} [delete]
func (h *MemoryHandler) Clear(c echo.Context) error {
	chatbotID, endUserID, err := h.requireOwnedPair(c)
	if err != nil {
		return err
	}
	mem, err := h.service.Clear(c.Request().Context(), chatbotID, endUserID)
	if err != nil {
		if errors.Is(err, memory.ErrChatbotMissing) {
			return echo.NewHTTPError(http.StatusNotFound, "chatbot not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info("conversation window cleared",
		slog.String("chatbot_id", chatbotID),
		slog.String("end_user_id", endUserID),
	)
	return c.JSON(http.StatusOK, mem)
}

// requireOwnedPair checks the chatbot belongs to the caller before any
// window is touched.
func (h *MemoryHandler) requireOwnedPair(c echo.Context) (string, string, error) {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return "", "", err
	}
	endUserID := strings.TrimSpace(c.Param("end_user_id"))
	if endUserID == "" {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "end user id is required")
	}
	bot, err := h.chatbots.Get(c.Request().Context(), tenantID, c.Param("id"))
	if err != nil {
		return "", "", chatbotError(err)
	}
	return bot.ID, endUserID, nil
}
