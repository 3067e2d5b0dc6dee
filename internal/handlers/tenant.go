package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/auth"
)

// requireTenantID resolves the calling tenant from the verified token.
func requireTenantID(c echo.Context) (string, error) {
	tenantID, err := auth.TenantIDFromContext(c)
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "tenant id must be a uuid")
	}
	return tenantID, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
