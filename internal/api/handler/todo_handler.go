package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/api/metrics"
	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// TodoHandler serves the authenticated /api/todos routes.
type TodoHandler struct {
	service ports.TodoService
	metrics *metrics.Metrics
}

func NewTodoHandler(service ports.TodoService, m *metrics.Metrics) *TodoHandler {
	return &TodoHandler{service: service, metrics: m}
}

// List handles GET /api/todos.
//
// @Summary      List the caller's todos, newest first
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  todoListResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	todos, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return c.JSON(http.StatusOK, todoListResponse{Success: true, Data: todos})
}

// Get handles GET /api/todos/:id.
//
// @Summary      Get one of the caller's todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo id"
// @Success      200  {object}  todoResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/todos/{id} [get]
func (h *TodoHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	todo, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todoResponse{Success: true, Data: todo})
}

// Create handles POST /api/todos.
//
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replays the first result for a repeated key"
// @Param        body             body      createTodoRequest  true   "Title and optional description"
// @Success      200              {object}  todoResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Router       /api/todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createTodoRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	key := c.Request().Header.Get(headerIdempotencyKey)
	todo, err := h.service.Create(c.Request().Context(), ports.CreateTodoInput{
		UserID:         userID,
		Title:          req.Title,
		Description:    req.Description,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}
	h.metrics.TodoMutations.WithLabelValues("create").Inc()

	return c.JSON(http.StatusOK, todoResponse{Success: true, Data: todo})
}

// Update handles PUT /api/todos. The todo id travels in the body.
//
// @Summary      Update a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateTodoRequest  true  "Id plus the fields to change"
// @Success      200   {object}  todoResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/todos [put]
func (h *TodoHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateTodoRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("invalid request body")
	}

	todo, err := h.service.Update(c.Request().Context(), ports.UpdateTodoInput{
		UserID:      userID,
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return err
	}
	h.metrics.TodoMutations.WithLabelValues("update").Inc()

	return c.JSON(http.StatusOK, todoResponse{Success: true, Data: todo})
}

// Delete handles DELETE /api/todos?id=<id>.
//
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   query     string  true  "Todo id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/todos [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), userID, c.QueryParam("id")); err != nil {
		return err
	}
	h.metrics.TodoMutations.WithLabelValues("delete").Inc()

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "todo deleted"})
}
