package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/api/metrics"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

// SystemHandler exposes the database probe and the default-account bootstrap.
type SystemHandler struct {
	store       ports.Pinger
	authService ports.AuthService
	metrics     *metrics.Metrics
}

func NewSystemHandler(store ports.Pinger, authService ports.AuthService, m *metrics.Metrics) *SystemHandler {
	return &SystemHandler{store: store, authService: authService, metrics: m}
}

// TestConnection handles GET /api/test.
//
// @Summary      Check database connectivity
// @Tags         system
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/test [get]
func (h *SystemHandler) TestConnection(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, messageResponse{
			Success: false,
			Message: fmt.Sprintf("database connection failed: %v", err),
		})
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "database connection ok"})
}

// InitDefaultUser handles POST /api/init.
//
// @Summary      Create the default account if missing
// @Tags         system
// @Produce      json
// @Success      200  {object}  bootstrapResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/init [post]
func (h *SystemHandler) InitDefaultUser(c echo.Context) error {
	res, err := h.authService.EnsureDefaultUser(c.Request().Context())
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("user %q already exists", res.Username)
	if res.Created {
		msg = "default user created"
		h.metrics.UsersRegistered.Inc()
	}
	return c.JSON(http.StatusOK, bootstrapResponse{Success: true, Message: msg, Username: res.Username})
}
