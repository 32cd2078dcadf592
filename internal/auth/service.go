package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

// usernamePattern enforces the legacy registration bounds: 4-20 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,20}$`)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already taken")
	ErrUsernameInvalid    = errors.New("username must be 4-20 characters, alphanumeric and underscore/hyphen only")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsersUnsupported   = errors.New("the active storage backend has no user support")
)

// Service handles registration and credential checks on top of whatever
// user store the active backend provides.
type Service struct {
	users  storage.UserStore
	caps   storage.Capabilities
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(store storage.Store, cfg config.Auth) *Service {
	return &Service{
		users:  store,
		caps:   store.Capabilities(),
		config: cfg,
	}
}

// Register validates and creates a new account. The password is stored
// bcrypt-hashed.
func (s *Service) Register(ctx context.Context, username, password string) (*storage.User, error) {
	if !s.caps.Users {
		return nil, ErrUsersUnsupported
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user. A missing user
// and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*storage.User, error) {
	if !s.caps.Users {
		return nil, ErrUsersUnsupported
	}

	user, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, user.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UserByID retrieves a user by id.
func (s *Service) UserByID(ctx context.Context, id uint) (*storage.User, error) {
	if !s.caps.Users {
		return nil, ErrUsersUnsupported
	}
	user, err := s.users.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Enabled reports whether the active backend can hold accounts at all.
func (s *Service) Enabled() bool {
	return s.caps.Users
}
