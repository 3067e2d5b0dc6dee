package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/bots"
)

type chatbotService interface {
	Create(ctx context.Context, tenantID string, req bots.CreateChatbotRequest) (bots.CreateResult, error)
	List(ctx context.Context, tenantID string) ([]bots.Chatbot, error)
	Get(ctx context.Context, tenantID, chatbotID string) (bots.Chatbot, error)
	Update(ctx context.Context, tenantID, chatbotID string, req bots.UpdateChatbotRequest) (bots.Chatbot, error)
	Delete(ctx context.Context, tenantID, chatbotID string) error
	Ingest(ctx context.Context, tenantID, chatbotID string, documents []string) (bots.IngestionResult, error)
}

// ChatbotsHandler exposes tenant-scoped chatbot management.
type ChatbotsHandler struct {
	service chatbotService
	logger  *slog.Logger
}

func NewChatbotsHandler(log *slog.Logger, service *bots.Service) *ChatbotsHandler {
	return newChatbotsHandler(log, service)
}

func newChatbotsHandler(log *slog.Logger, service chatbotService) *ChatbotsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ChatbotsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "chatbots")),
	}
}

func (h *ChatbotsHandler) Register(e *echo.Echo) {
	group := e.Group("/api/chatbots")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/ingest", h.Ingest)
}

// List godoc
// @Summary List chatbots
// @Tags chatbots
// @Success 200 {object} bots.ListChatbotsResponse
// @Router /api/chatbots [get]
func (h *ChatbotsHandler) List(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context(), tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, bots.ListChatbotsResponse{Items: items})
}

// Create godoc
// @Summary Create a chatbot
// @Description Creates a chatbot and ingests any documents sent with it.
// @Description Ingestion failure is reported in the body and never fails creation.
// @Tags chatbots
// @Param payload body bots.CreateChatbotRequest true "Chatbot payload"
// @Success 201 {object} bots.CreateResult
// @Router /api/chatbots [post]
func (h *ChatbotsHandler) Create(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	var req bots.CreateChatbotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.service.Create(c.Request().Context(), tenantID, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *ChatbotsHandler) Get(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	bot, err := h.service.Get(c.Request().Context(), tenantID, c.Param("id"))
	if err != nil {
		return chatbotError(err)
	}
	return c.JSON(http.StatusOK, bot)
}

// Update godoc
// @Summary Update a chatbot
// @Tags chatbots
// @Param id path string true "Chatbot ID"
// @Param payload body bots.UpdateChatbotRequest true "Fields to change"
// @Success 200 {object} bots.Chatbot
// @Failure 404 {object} echo.HTTPError
// @Router /api/chatbots/{id} [patch]
func (h *ChatbotsHandler) Update(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	var req bots.UpdateChatbotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	bot, err := h.service.Update(c.Request().Context(), tenantID, c.Param("id"), req)
	if err != nil {
		return chatbotError(err)
	}
	return c.JSON(http.StatusOK, bot)
}

func (h *ChatbotsHandler) Delete(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), tenantID, c.Param("id")); err != nil {
		return chatbotError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Ingest godoc
// @Summary Ingest documents for a chatbot
// @Tags chatbots
// @Param id path string true "Chatbot ID"
// @Param payload body bots.IngestRequest true "Documents"
// @Success 200 {object} bots.IngestionResult
// @Router /api/chatbots/{id}/ingest [post]
func (h *ChatbotsHandler) Ingest(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	var req bots.IngestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.service.Ingest(c.Request().Context(), tenantID, c.Param("id"), req.DocumentTexts)
	if err != nil {
		return chatbotError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func chatbotError(err error) error {
	if errors.Is(err, bots.ErrChatbotNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "chatbot not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
