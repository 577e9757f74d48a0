// Package service contains the business rules of the application.
//
//	Handler (HTTP)  → parses forms, picks the page or redirect
//	Service         → credentials, ownership, orchestration
//	Repository      → reads/writes the database
//
// Services take repository interfaces, never a concrete store, and return
// apperror kinds that the handler layer translates into pages.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/auth"
	"github.com/sakif/feedback/internal/model"
	"github.com/sakif/feedback/internal/repository"
)

// AuthService registers and authenticates users.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is everything needed to create an account.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// NewUser hashes plaintext and returns an unsaved User. It does not check
// whether username is taken; the store does that on insert.
func NewUser(passwords *auth.PasswordService, username, plaintext, email, firstName, lastName string) (*model.User, error) {
	hash, err := passwords.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
	}, nil
}

// Register creates and stores a new account with a single insert.
//
// A taken username comes back from the store as apperror.ErrConflict with
// Field "username"; it is passed through wrapped so errors.As still finds it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	user, err := NewUser(s.passwords, in.Username, in.Password, in.Email, in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("registration rejected: username taken", slog.String("username", in.Username))
		}
		return nil, fmt.Errorf("service/auth: registering %q: %w", in.Username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate returns the user whose username and password match.
//
// An unknown username and a wrong password both return
// apperror.ErrInvalidCredentials, and both spend one bcrypt comparison, so
// neither the error nor the response time reveals which usernames exist.
func (s *AuthService) Authenticate(ctx context.Context, username, plaintext string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(plaintext)
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, plaintext); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password for %q: %w", username, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return user, nil
}

// CurrentUser loads the logged-in user by id.
func (s *AuthService) CurrentUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}
