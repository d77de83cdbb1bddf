package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/api/metrics"
	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

const msgMissingParams = "missing required parameters"

type AuthHandler struct {
	authService ports.AuthService
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService ports.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m}
}

// bindCredentials collapses every shape problem into one message.
func bindCredentials(c echo.Context) (credentialsRequest, error) {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return req, domain.Invalid(msgMissingParams)
	}
	if err := c.Validate(&req); err != nil {
		return req, domain.Invalid(msgMissingParams)
	}
	return req, nil
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Username and password"
// @Success      200   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	h.metrics.UsersRegistered.Inc()

	return c.JSON(http.StatusOK, registerResponse{
		Success: true,
		Message: "registration successful",
		UserID:  user.ID,
	})
}

// Login checks the password and returns the user id to be used as bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Username and password"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.Logins.WithLabelValues("invalid").Inc()
		} else {
			h.metrics.Logins.WithLabelValues("error").Inc()
		}
		return err
	}
	h.metrics.Logins.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{
		Success:      true,
		Message:      "login successful",
		SessionToken: res.SessionToken,
		UserID:       res.User.ID,
	})
}
