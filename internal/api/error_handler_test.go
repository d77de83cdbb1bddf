package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", domain.Invalid("title is required"), http.StatusBadRequest, "title is required"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized, please log in"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{"conflict", fmt.Errorf("register: %w", domain.ErrUserExists), http.StatusConflict, "username already exists"},
		{"todo not found", domain.ErrTodoNotFound, http.StatusNotFound, "todo not found"},
		{"store down", fmt.Errorf("list: %w: %w", domain.ErrStoreUnavailable, errors.New("dial")), http.StatusServiceUnavailable, "unable to reach the database"},
		{"schema missing", fmt.Errorf("%w: no such table", domain.ErrSchemaMissing), http.StatusInternalServerError, "database tables are missing, run the migrations"},
		{"permission", domain.ErrStorePermission, http.StatusInternalServerError, "database permission error"},
		{"echo", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large"), http.StatusRequestEntityTooLarge, "Request Entity Too Large"},
		{"wrong method", echo.ErrMethodNotAllowed, http.StatusNotFound, "Not Found"},
		{"key in flight", domain.ErrIdempotencyInProgress, http.StatusConflict, "a request with this Idempotency-Key is still in progress"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/todos", nil), rec)

			h(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Success || body.Message != tc.message {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Body.String() != "done" {
		t.Errorf("body was overwritten: %q", rec.Body.String())
	}
}
