// Package authpw provides username/password authentication against the
// user store.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"costlaw/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingCredentials = errors.New("username and password are required")
)

// Service provides username/password authentication
type Service struct {
	store UserStore
	cost  int
}

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	CreateUser(ctx context.Context, user store.NewUser) (store.User, error)
}

// NewService creates a new auth service. A zero cost uses bcrypt's default.
func NewService(users UserStore, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: users, cost: cost}
}

// AccountRequest contains the fields for a new account
type AccountRequest struct {
	Username string
	Password string
	Email    string
	Name     string
	Role     string
}

// HashPassword returns the bcrypt hash stored in place of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// EnsureAccount creates the account unless the username is already taken,
// in which case the existing user is returned untouched.
func (s *Service) EnsureAccount(ctx context.Context, req AccountRequest) (store.User, bool, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return store.User{}, false, ErrMissingCredentials
	}

	existing, err := s.store.GetUserByUsername(ctx, req.Username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.User{}, false, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return store.User{}, false, err
	}

	user, err := s.store.CreateUser(ctx, store.NewUser{
		Username: req.Username,
		Password: hash,
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		return store.User{}, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

// SignIn authenticates a user
func (s *Service) SignIn(ctx context.Context, username, password string) (store.User, error) {
	if username == "" || password == "" {
		return store.User{}, ErrMissingCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}
