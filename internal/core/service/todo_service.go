package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

const (
	idempotencyWait = 5 * time.Second
	idempotencyPoll = 25 * time.Millisecond
)

type TodoService struct {
	repo   ports.TodoRepository
	idem   ports.IdempotencyStore // nil disables Idempotency-Key handling
	logger zerolog.Logger
	now    func() time.Time

	// How long a retry waits for an in-flight request holding the same key.
	idemWait time.Duration
	idemPoll time.Duration
}

func NewTodoService(repo ports.TodoRepository, idem ports.IdempotencyStore, logger zerolog.Logger) *TodoService {
	return &TodoService{
		repo:     repo,
		idem:     idem,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }, // stores keep microseconds
		idemWait: idempotencyWait,
		idemPoll: idempotencyPoll,
	}
}

func (s *TodoService) List(ctx context.Context, userID string) ([]domain.Todo, error) {
	todos, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

func (s *TodoService) Get(ctx context.Context, userID, id string) (*domain.Todo, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	return s.repo.FindByID(ctx, id, userID)
}

// Create stores a new todo. When an idempotency key is supplied and was
// already used by the same user, the todo created the first time is returned.
func (s *TodoService) Create(ctx context.Context, input ports.CreateTodoInput) (*domain.Todo, error) {
	title := domain.CleanText(input.Title, domain.TitleMaxLen)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}

	reserved := false
	if s.idem != nil && input.IdempotencyKey != "" {
		existing, ok, err := s.claim(ctx, input.UserID, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		reserved = ok
	}

	now := s.now()
	todo := &domain.Todo{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Title:       title,
		Description: domain.CleanText(input.Description, domain.DescriptionMaxLen),
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		if reserved {
			if relErr := s.idem.Release(ctx, input.UserID, input.IdempotencyKey); relErr != nil {
				s.logger.Warn().Err(relErr).Str("user_id", input.UserID).Msg("failed to release idempotency key")
			}
		}
		s.logger.Error().Err(err).Str("user_id", input.UserID).Msg("failed to create todo")
		return nil, fmt.Errorf("create todo: %w", err)
	}

	if reserved {
		if err := s.idem.Complete(ctx, input.UserID, input.IdempotencyKey, todo.ID); err != nil {
			s.logger.Warn().Err(err).Str("todo_id", todo.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Str("todo_id", todo.ID).Str("user_id", input.UserID).Msg("todo created")
	return todo, nil
}

// claim reserves key for this request. If another request already owns it,
// claim returns that request's todo, polling while it is still being
// inserted. reserved reports whether the caller must Complete or Release.
func (s *TodoService) claim(ctx context.Context, userID, key string) (*domain.Todo, bool, error) {
	deadline := time.NewTimer(s.idemWait)
	defer deadline.Stop()

	for {
		todoID, reserved, err := s.idem.Reserve(ctx, userID, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("idempotency reserve failed, creating anyway")
			return nil, false, nil
		}
		if reserved {
			return nil, true, nil
		}

		if todoID != "" {
			existing, err := s.repo.FindByID(ctx, todoID, userID)
			switch {
			case err == nil:
				s.logger.Info().Str("idempotency_key", key).Str("todo_id", existing.ID).Msg("idempotent replay")
				return existing, false, nil
			case errors.Is(err, domain.ErrTodoNotFound):
				// The earlier todo was deleted since; the key is taken over.
				return nil, true, nil
			default:
				return nil, false, fmt.Errorf("idempotent replay: %w", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-deadline.C:
			return nil, false, domain.ErrIdempotencyInProgress
		case <-time.After(s.idemPoll):
		}
	}
}

func (s *TodoService) Update(ctx context.Context, input ports.UpdateTodoInput) (*domain.Todo, error) {
	if input.ID == "" {
		return nil, domain.Invalid("todo id is required")
	}
	id, ok := canonicalID(input.ID)
	if !ok {
		return nil, domain.ErrTodoNotFound
	}

	var patch domain.TodoPatch
	if input.Title != nil {
		title := domain.CleanText(*input.Title, domain.TitleMaxLen)
		if title == "" {
			return nil, domain.Invalid("title must not be empty")
		}
		patch.Title = &title
	}
	if input.Description != nil {
		desc := domain.CleanText(*input.Description, domain.DescriptionMaxLen)
		patch.Description = &desc
	}
	if input.Completed != nil {
		done := *input.Completed
		patch.Completed = &done
	}

	todo, err := s.repo.Update(ctx, id, input.UserID, patch, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrTodoNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}

	s.logger.Info().Str("todo_id", todo.ID).Str("user_id", input.UserID).Msg("todo updated")
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return domain.Invalid("todo id is required")
	}
	id, ok := canonicalID(id)
	if !ok {
		return domain.ErrTodoNotFound
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrTodoNotFound) {
			return err
		}
		return fmt.Errorf("delete todo: %w", err)
	}

	s.logger.Info().Str("todo_id", id).Str("user_id", userID).Msg("todo deleted")
	return nil
}

// canonicalID parses any form uuid.Parse accepts and returns the lowercase
// hyphenated form the stores hold.
func canonicalID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
