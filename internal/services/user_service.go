package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"fincontrol/internal/auth"
	"fincontrol/internal/storage"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("name, email and password are required")
)

// UserService handles registration and login.
type UserService struct {
	users      UserRepository
	tokens     *auth.TokenService
	bcryptCost int
}

func NewUserService(users UserRepository, tokens *auth.TokenService, bcryptCost int) *UserService {
	return &UserService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (storage.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return storage.User{}, ErrMissingFields
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return storage.User{}, ErrEmailTaken
		}
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "email", email)
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, storage.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", storage.User{}, ErrInvalidCredentials
		}
		return "", storage.User{}, fmt.Errorf("get user: %w", err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", storage.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return "", storage.User{}, fmt.Errorf("generate token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return token, user, nil
}

// GetUser returns the account for an ID.
func (s *UserService) GetUser(ctx context.Context, id string) (storage.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, &NotFoundError{Resource: "user", ID: id}
		}
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
