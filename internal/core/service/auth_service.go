package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

const sessionTokenBytes = 32

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// DefaultAccount holds the credentials used by EnsureDefaultUser.
type DefaultAccount struct {
	Username string
	Password string
}

// AuthService implements registration, login and the admin bootstrap.
type AuthService struct {
	repo     ports.UserRepository
	account  DefaultAccount
	log      zerolog.Logger
	now      func() time.Time
	randRead func([]byte) (int, error)
}

func NewAuthService(repo ports.UserRepository, account DefaultAccount, log zerolog.Logger) *AuthService {
	if account.Username == "" {
		account.Username = "admin"
	}
	if account.Password == "" {
		account.Password = "admin123"
	}
	return &AuthService{
		repo:     repo,
		account:  account,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		randRead: rand.Read,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if err := validateRegistration(username, password); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.createUser(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.Invalid("missing required parameters")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.log.Debug().Str("username", username).Msg("password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.sessionToken()
	if err != nil {
		return nil, fmt.Errorf("login: session token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{SessionToken: token, User: user}, nil
}

// EnsureDefaultUser creates the configured default account unless a user
// with that name already exists.
func (s *AuthService) EnsureDefaultUser(ctx context.Context) (*ports.BootstrapResult, error) {
	existing, err := s.repo.FindByUsername(ctx, s.account.Username)
	if err == nil && existing != nil {
		return &ports.BootstrapResult{Username: existing.Username}, nil
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	user, err := s.createUser(ctx, s.account.Username, s.account.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return &ports.BootstrapResult{Username: s.account.Username}, nil
		}
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("default user created")
	return &ports.BootstrapResult{Username: user.Username, Created: true}, nil
}

func (s *AuthService) createUser(ctx context.Context, username, password string) (*domain.User, error) {
	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: HashPassword(password),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) sessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := s.randRead(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validateRegistration(username, password string) error {
	if username == "" || password == "" {
		return domain.Invalid("missing required parameters")
	}
	if n := utf8.RuneCountInString(username); n < domain.UsernameMinLen || n > domain.UsernameMaxLen {
		return domain.Invalid(fmt.Sprintf("username must be between %d and %d characters",
			domain.UsernameMinLen, domain.UsernameMaxLen))
	}
	if utf8.RuneCountInString(password) < domain.PasswordMinLen {
		return domain.Invalid(fmt.Sprintf("password must be at least %d characters", domain.PasswordMinLen))
	}
	if !usernamePattern.MatchString(username) {
		return domain.Invalid("username may only contain letters, digits and underscores")
	}
	return nil
}
