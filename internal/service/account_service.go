// Package service holds the business logic between the HTTP handlers and the repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"peeps/internal/auth"
	"peeps/internal/middleware"
	"peeps/internal/models"
	"peeps/internal/observability"
	"peeps/internal/repository"
	"peeps/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// AccountService handles signup, login and profile management.
type AccountService struct {
	users     repository.UserRepository
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	tokenTTL  time.Duration
	dummyHash string
}

// NewAccountService returns a new AccountService. tokenTTL is the lifetime of
// login tokens; auth.LoginTokenTTL is used when it is not positive.
func NewAccountService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = auth.LoginTokenTTL
	}
	// Unknown usernames are verified against this hash so both failure paths cost one bcrypt comparison.
	dummy, _ := hasher.Hash("peeps-timing-equalizer")
	return &AccountService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		dummyHash: dummy,
	}
}

// Signup validates req, hashes the password and stores the user.
func (s *AccountService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := validation.ValidateSignup(req); err != nil {
		return nil, err
	}

	existing, err := s.users.GetCredentials(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "password hashing failed", slog.String("error", err.Error()))
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user signed up", slog.String("username", user.Username))
	return user, nil
}

// Login checks the credentials and issues an access token.
func (s *AccountService) Login(ctx context.Context, username, password string) (_ *models.TokenResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "AccountService.Login", attribute.String("user.username", username))
	defer func() { span.Finish(err) }()

	user, err := s.users.GetCredentials(ctx, username)
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.hasher.Verify(password, s.dummyHash)
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, models.NewAuthenticationError("Incorrect username or password")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, models.NewAuthenticationError("Incorrect username or password")
	}

	token, err := s.tokens.Issue(user.Username, s.tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.LoginAttempts.WithLabelValues("success").Inc()
	observability.TokensIssued.Inc()
	return &models.TokenResponse{AccessToken: token, TokenType: auth.TokenType}, nil
}

// GetUser returns the user with id.
func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateUser applies the present fields of req to the user.
func (s *AccountService) UpdateUser(ctx context.Context, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error) {
	if err := validation.ValidateUserUpdate(req); err != nil {
		return nil, err
	}
	return s.users.Update(ctx, id, req)
}

// DeleteUser removes the user together with their peeps and follow edges.
// Tokens already issued to the user stop resolving once the row is gone.
func (s *AccountService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "user deleted", slog.String("user", id.String()))
	return nil
}
