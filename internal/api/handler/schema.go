package handler

import "github.com/taskdesk/todo-service/internal/core/domain"

// --- Requests ---

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createTodoRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
}

// updateTodoRequest uses pointers so absent fields stay untouched.
type updateTodoRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// --- Responses ---

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SessionToken string `json:"sessionToken"`
	UserID       string `json:"userId"`
}

type bootstrapResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// todoListResponse keeps Data without omitempty so an empty list renders as [].
type todoListResponse struct {
	Success bool          `json:"success"`
	Data    []domain.Todo `json:"data"`
}

type todoResponse struct {
	Success bool         `json:"success"`
	Data    *domain.Todo `json:"data"`
}

// errorResponse documents the envelope rendered by the central error handler.
type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message"`
}
