package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubTodoRepo struct {
	mu          sync.Mutex
	todos       map[string]*domain.Todo
	createErr   error
	createDelay time.Duration
	creates     int
}

func newStubTodoRepo() *stubTodoRepo {
	return &stubTodoRepo{todos: make(map[string]*domain.Todo)}
}

func (r *stubTodoRepo) ListByUser(_ context.Context, userID string) ([]domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Todo
	for _, t := range r.todos {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubTodoRepo) FindByID(_ context.Context, id, userID string) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTodoNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTodoRepo) Create(_ context.Context, todo *domain.Todo) error {
	time.Sleep(r.createDelay)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.creates++
	clone := *todo
	r.todos[todo.ID] = &clone
	return nil
}

func (r *stubTodoRepo) Update(_ context.Context, id, userID string, patch domain.TodoPatch, updatedAt time.Time) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTodoNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = updatedAt
	clone := *t
	return &clone, nil
}

func (r *stubTodoRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return domain.ErrTodoNotFound
	}
	delete(r.todos, id)
	return nil
}

// stubIdempotency mirrors the redis store: Reserve is SETNX of a pending
// marker, Complete overwrites it with the todo id.
type stubIdempotency struct {
	mu       sync.Mutex
	keys     map[string]string
	released int
}

const stubPending = "pending"

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, userID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userID + ":" + key
	v, taken := s.keys[k]
	if !taken {
		s.keys[k] = stubPending
		return "", true, nil
	}
	if v == stubPending {
		return "", false, nil
	}
	return v, false, nil
}

func (s *stubIdempotency) Complete(_ context.Context, userID, key, todoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[userID+":"+key] = todoID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, userID+":"+key)
	s.released++
	return nil
}

func ptr[T any](v T) *T { return &v }

var (
	userA = uuid.NewString()
	userB = uuid.NewString()
)

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTodoService_Create_Sanitizes(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, nil, zerolog.Nop())

	todo, err := svc.Create(context.Background(), ports.CreateTodoInput{
		UserID:      userA,
		Title:       "  " + strings.Repeat("t", 600) + "  ",
		Description: "  notes  ",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(todo.Title) != domain.TitleMaxLen {
		t.Fatalf("expected title cut to %d, got %d", domain.TitleMaxLen, len(todo.Title))
	}
	if todo.Description != "notes" {
		t.Fatalf("expected trimmed description, got %q", todo.Description)
	}
	if todo.Completed {
		t.Fatalf("new todo must not be completed")
	}
	if todo.UserID != userA {
		t.Fatalf("expected owner %s, got %s", userA, todo.UserID)
	}
}

func TestTodoService_Create_RequiresTitle(t *testing.T) {
	svc := NewTodoService(newStubTodoRepo(), nil, zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTodoService_Create_RepositoryError(t *testing.T) {
	repo := newStubTodoRepo()
	repo.createErr = errors.New("boom")
	svc := NewTodoService(repo, nil, zerolog.Nop())

	if _, err := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTodoService_List_IsolatesUsers(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, nil, zerolog.Nop())

	if _, err := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "a's task"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	listB, err := svc.List(context.Background(), userB)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if listB == nil || len(listB) != 0 {
		t.Fatalf("expected empty non-nil list for user B, got %+v", listB)
	}

	listA, _ := svc.List(context.Background(), userA)
	if len(listA) != 1 || listA[0].Title != "a's task" {
		t.Fatalf("unexpected list for user A: %+v", listA)
	}
}

func TestTodoService_Update_PartialAndOwnership(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, nil, zerolog.Nop())

	created, _ := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "write docs", Description: "api"})

	updated, err := svc.Update(context.Background(), ports.UpdateTodoInput{
		UserID:    userA,
		ID:        created.ID,
		Completed: ptr(true),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.Completed || updated.Title != "write docs" || updated.Description != "api" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	_, err = svc.Update(context.Background(), ports.UpdateTodoInput{
		UserID: userB,
		ID:     created.ID,
		Title:  ptr("hijacked"),
	})
	if !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound for foreign todo, got %v", err)
	}
	if repo.todos[created.ID].Title != "write docs" {
		t.Fatalf("foreign update must not change the todo")
	}
}

func TestTodoService_Update_Validation(t *testing.T) {
	svc := NewTodoService(newStubTodoRepo(), nil, zerolog.Nop())

	if _, err := svc.Update(context.Background(), ports.UpdateTodoInput{UserID: userA}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
	if _, err := svc.Update(context.Background(), ports.UpdateTodoInput{UserID: userA, ID: "not-a-uuid"}); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
}

func TestTodoService_Delete_Ownership(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, nil, zerolog.Nop())

	created, _ := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "keep me"})

	if err := svc.Delete(context.Background(), userB, created.ID); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
	if _, ok := repo.todos[created.ID]; !ok {
		t.Fatalf("todo deleted by non-owner")
	}
	if err := svc.Delete(context.Background(), userA, created.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), userA, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
}

func TestTodoService_Create_IdempotentReplay(t *testing.T) {
	repo := newStubTodoRepo()
	idem := newStubIdempotency()
	svc := NewTodoService(repo, idem, zerolog.Nop())

	in := ports.CreateTodoInput{UserID: userA, Title: "once", IdempotencyKey: "k-1"}
	first, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if first.ID != second.ID || repo.creates != 1 {
		t.Fatalf("expected replay of %s, got %s after %d inserts", first.ID, second.ID, repo.creates)
	}

	// Same key, different user: independent.
	other, _ := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userB, Title: "once", IdempotencyKey: "k-1"})
	if other.ID == first.ID {
		t.Fatalf("idempotency keys must be scoped per user")
	}
}

func TestTodoService_Create_ConcurrentRetriesInsertOnce(t *testing.T) {
	repo := newStubTodoRepo()
	repo.createDelay = 20 * time.Millisecond
	svc := NewTodoService(repo, newStubIdempotency(), zerolog.Nop())
	svc.idemPoll = time.Millisecond

	in := ports.CreateTodoInput{UserID: userA, Title: "retry me", IdempotencyKey: "retry-1"}

	const n = 4
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			todo, err := svc.Create(context.Background(), in)
			errs[i] = err
			if todo != nil {
				ids[i] = todo.ID
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Fatalf("expected every retry to return %s, got %v", ids[0], ids)
		}
	}
	if repo.creates != 1 {
		t.Fatalf("expected 1 insert, got %d", repo.creates)
	}
}

func TestTodoService_Create_InFlightKeyTimesOut(t *testing.T) {
	idem := newStubIdempotency()
	idem.keys[userA+":busy"] = stubPending
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, idem, zerolog.Nop())
	svc.idemWait = 10 * time.Millisecond
	svc.idemPoll = time.Millisecond

	_, err := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "x", IdempotencyKey: "busy"})
	if !errors.Is(err, domain.ErrIdempotencyInProgress) {
		t.Fatalf("expected ErrIdempotencyInProgress, got %v", err)
	}
	if repo.creates != 0 {
		t.Fatalf("no insert expected while the key is held, got %d", repo.creates)
	}
}

func TestTodoService_Create_FailedInsertReleasesKey(t *testing.T) {
	repo := newStubTodoRepo()
	repo.createErr = errors.New("boom")
	idem := newStubIdempotency()
	svc := NewTodoService(repo, idem, zerolog.Nop())

	in := ports.CreateTodoInput{UserID: userA, Title: "x", IdempotencyKey: "k-2"}
	if _, err := svc.Create(context.Background(), in); err == nil {
		t.Fatal("expected error")
	}
	if idem.released != 1 || len(idem.keys) != 0 {
		t.Fatalf("expected key released, released=%d keys=%v", idem.released, idem.keys)
	}

	repo.createErr = nil
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if repo.creates != 1 {
		t.Fatalf("expected 1 insert, got %d", repo.creates)
	}
}

func TestTodoService_Create_ReplayAfterDeleteCreatesAgain(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, newStubIdempotency(), zerolog.Nop())

	in := ports.CreateTodoInput{UserID: userA, Title: "again", IdempotencyKey: "k-3"}
	first, _ := svc.Create(context.Background(), in)
	if err := svc.Delete(context.Background(), userA, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create after delete: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh todo once the original was deleted")
	}
	third, _ := svc.Create(context.Background(), in)
	if third.ID != second.ID {
		t.Fatalf("expected replay of %s, got %s", second.ID, third.ID)
	}
}

func TestTodoService_Create_TimestampsMatchStoredPrecision(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, nil, zerolog.Nop())

	todo, err := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "t"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if todo.CreatedAt.Nanosecond()%int(time.Microsecond) != 0 {
		t.Fatalf("created_at carries sub-microsecond digits: %s", todo.CreatedAt.Format(time.RFC3339Nano))
	}
	if !todo.CreatedAt.Equal(todo.UpdatedAt) {
		t.Fatalf("created_at and updated_at differ on create")
	}
}

func TestTodoService_Update_RejectsBlankTitle(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, nil, zerolog.Nop())

	created, _ := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "keep"})

	_, err := svc.Update(context.Background(), ports.UpdateTodoInput{UserID: userA, ID: created.ID, Title: ptr("   ")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.todos[created.ID].Title != "keep" {
		t.Fatalf("title changed to %q", repo.todos[created.ID].Title)
	}
}

func TestTodoService_CanonicalisesTodoID(t *testing.T) {
	repo := newStubTodoRepo()
	svc := NewTodoService(repo, nil, zerolog.Nop())

	created, _ := svc.Create(context.Background(), ports.CreateTodoInput{UserID: userA, Title: "case"})
	upper := strings.ToUpper(created.ID)

	if _, err := svc.Get(context.Background(), userA, upper); err != nil {
		t.Fatalf("get by uppercase id: %v", err)
	}
	if _, err := svc.Update(context.Background(), ports.UpdateTodoInput{UserID: userA, ID: upper, Completed: ptr(true)}); err != nil {
		t.Fatalf("update by uppercase id: %v", err)
	}
	if err := svc.Delete(context.Background(), userA, "{"+created.ID+"}"); err != nil {
		t.Fatalf("delete by braced id: %v", err)
	}
}
