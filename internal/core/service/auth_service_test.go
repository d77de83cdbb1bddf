package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

type stubUserRepo struct {
	users     map[string]*domain.User
	createErr error
	findErr   error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.users[user.Username]; exists {
		return domain.ErrUserExists
	}
	r.users[user.Username] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Ping(context.Context) error { return nil }

func newTestAuthService(repo *stubUserRepo) *AuthService {
	return NewAuthService(repo, DefaultAccount{}, zerolog.Nop())
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	user, err := svc.Register(context.Background(), "alice", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if user.PasswordHash != HashPassword("pass123") {
		t.Fatalf("stored hash does not match password")
	}
	if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Fatalf("unexpected timestamps: %v %v", user.CreatedAt, user.UpdatedAt)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	cases := []struct {
		name     string
		username string
		password string
		want     string
	}{
		{"missing username", "", "secret1", "missing required parameters"},
		{"missing password", "alice", "", "missing required parameters"},
		{"short username", "ab", "secret1", "between 3 and 50"},
		{"long username", strings.Repeat("a", 51), "secret1", "between 3 and 50"},
		{"short password", "alice", "12345", "at least 6"},
		{"bad characters", "alice-smith", "secret1", "letters, digits and underscores"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.username, tc.password)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected message containing %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), "bob", "password"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "password2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_InsertConflict(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = domain.ErrUserExists
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), "racer", "password"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists from insert, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	registered, err := svc.Register(context.Background(), "carol", "s3cret!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "carol", "s3cret!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.ID != registered.ID {
		t.Fatalf("expected user %s, got %s", registered.ID, res.User.ID)
	}
	if len(res.SessionToken) != 2*sessionTokenBytes {
		t.Fatalf("expected %d hex chars, got %q", 2*sessionTokenBytes, res.SessionToken)
	}

	again, err := svc.Login(context.Background(), "carol", "s3cret!")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if again.SessionToken == res.SessionToken {
		t.Fatalf("expected a fresh session token per login")
	}
}

func TestAuthService_Login_GenericFailure(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())
	_, _ = svc.Register(context.Background(), "dave", "goodpass")

	_, wrongPass := svc.Login(context.Background(), "dave", "badpass")
	_, unknownUser := svc.Login(context.Background(), "ghost", "goodpass")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", unknownUser)
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPass.Error(), unknownUser.Error())
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = domain.ErrStoreUnavailable
	svc := newTestAuthService(repo)

	if _, err := svc.Login(context.Background(), "erin", "password"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestAuthService_EnsureDefaultUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, DefaultAccount{Username: "root_user", Password: "changeme"}, zerolog.Nop())

	first, err := svc.EnsureDefaultUser(context.Background())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if !first.Created || first.Username != "root_user" {
		t.Fatalf("unexpected result: %+v", first)
	}

	second, err := svc.EnsureDefaultUser(context.Background())
	if err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	if second.Created {
		t.Fatalf("expected existing user to be reused")
	}

	if _, err := svc.Login(context.Background(), "root_user", "changeme"); err != nil {
		t.Fatalf("login with bootstrap credentials failed: %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	// sha256("admin123")
	const stored = "240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9"
	if !VerifyPassword("admin123", stored) {
		t.Fatalf("expected known digest to verify")
	}
	if !VerifyPassword("admin123", strings.ToUpper(stored)) {
		t.Fatalf("expected uppercase digest to verify")
	}
	if VerifyPassword("admin124", stored) {
		t.Fatalf("expected mismatch")
	}
}
