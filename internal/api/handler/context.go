package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/api/middleware"
	"github.com/taskdesk/todo-service/internal/core/domain"
)

// ctxUserID returns the user id stored by the BearerUser middleware. An empty
// value means the route was mounted without it.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.UserIDKey).(string)
	if userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}
