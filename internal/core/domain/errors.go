package domain

import "errors"

var (
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized, please log in")
	ErrTodoNotFound       = errors.New("todo not found")

	ErrIdempotencyInProgress = errors.New("a request with this Idempotency-Key is still in progress")

	// Store-level failures surfaced with a dedicated message.
	ErrSchemaMissing    = errors.New("database tables are missing, run the migrations")
	ErrStorePermission  = errors.New("database permission error")
	ErrStoreUnavailable = errors.New("unable to reach the database")

	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a rejected input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a ValidationError carrying msg.
func Invalid(msg string) error {
	return &ValidationError{Message: msg}
}
