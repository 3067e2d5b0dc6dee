package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/channel/bindings"
)

type bindingService interface {
	Create(ctx context.Context, tenantID string, req bindings.CreateRequest) (bindings.Binding, error)
	List(ctx context.Context, tenantID string) ([]bindings.Binding, error)
	Delete(ctx context.Context, tenantID, bindingID string) error
}

// ChannelBindingsHandler manages the messenger pages a tenant has connected.
type ChannelBindingsHandler struct {
	service bindingService
	logger  *slog.Logger
}

func NewChannelBindingsHandler(log *slog.Logger, service *bindings.Service) *ChannelBindingsHandler {
	return newChannelBindingsHandler(log, service)
}

func newChannelBindingsHandler(log *slog.Logger, service bindingService) *ChannelBindingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ChannelBindingsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "channel_bindings")),
	}
}

func (h *ChannelBindingsHandler) Register(e *echo.Echo) {
	group := e.Group("/api/channel-bindings")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.DELETE("/:id", h.Delete)
}

func (h *ChannelBindingsHandler) List(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context(), tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, bindings.ListResponse{Items: items})
}

// Create godoc
// @Summary Bind a messenger page
// @Description The page access token is sealed before it is stored and never returned.
// @Tags channel
// @Param payload body bindings.CreateRequest true "Page binding"
// @Success 201 {object} bindings.Binding
// @Failure 409 {object} echo.HTTPError
// @Router /api/channel-bindings [post]
func (h *ChannelBindingsHandler) Create(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	var req bindings.CreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	binding, err := h.service.Create(c.Request().Context(), tenantID, req)
	if err != nil {
		if errors.Is(err, bindings.ErrBindingExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, binding)
}

func (h *ChannelBindingsHandler) Delete(c echo.Context) error {
	tenantID, err := requireTenantID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), tenantID, c.Param("id")); err != nil {
		if errors.Is(err, bindings.ErrBindingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
