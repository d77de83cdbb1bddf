package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// errorResponse is the envelope for every error the API returns.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler maps domain and store errors to status codes, logs the
// ones it does not recognise and renders {"success":false,"message":...}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Success: false, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("http error")
		}
		// A known path hit with the wrong method is reported as an unknown route.
		if he.Code == http.StatusMethodNotAllowed {
			return http.StatusNotFound, http.StatusText(http.StatusNotFound)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.ErrUnauthorized.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, domain.ErrUserExists.Error()
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return http.StatusConflict, domain.ErrIdempotencyInProgress.Error()
	case errors.Is(err, domain.ErrTodoNotFound):
		return http.StatusNotFound, domain.ErrTodoNotFound.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error()
	}

	event := log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path())

	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		event.Msg("store unavailable")
		return http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Error()
	case errors.Is(err, domain.ErrSchemaMissing):
		event.Msg("schema missing")
		return http.StatusInternalServerError, domain.ErrSchemaMissing.Error()
	case errors.Is(err, domain.ErrStorePermission):
		event.Msg("store permission denied")
		return http.StatusInternalServerError, domain.ErrStorePermission.Error()
	}

	event.Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}
