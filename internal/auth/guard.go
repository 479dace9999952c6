package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"peeps/internal/middleware"
	"peeps/internal/models"
	"peeps/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Principal is the authenticated user resolved from a bearer token.
type Principal = models.PublicUser

// UserLookup resolves a username to a user. A missing user is (nil, nil).
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Guard authenticates bearer tokens against the user store.
type Guard struct {
	tokens *TokenService
	users  UserLookup
}

// NewGuard returns a guard validating with tokens and resolving with users.
func NewGuard(tokens *TokenService, users UserLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

var (
	errMissingHeader   = errors.New("missing authorization header")
	errMalformedHeader = errors.New("authorization header must be 'Bearer <token>'")
)

// Authenticate resolves the principal behind rawHeader. Rejections are
// UNAUTHORIZED app errors; storage failures are internal errors.
func (g *Guard) Authenticate(ctx context.Context, rawHeader string) (*Principal, error) {
	token, err := bearerToken(rawHeader)
	if err != nil {
		reason := "malformed_header"
		if errors.Is(err, errMissingHeader) {
			reason = "missing_header"
		}
		return nil, reject(reason, err.Error())
	}

	username, err := g.tokens.Validate(token)
	if err != nil {
		return nil, reject("invalid_token", "Could not validate credentials")
	}

	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, reject("unknown_user", "Could not validate credentials")
	}

	principal := user.Public()
	return &principal, nil
}

// CheckLoggedIn applies the same rule as Authenticate and drops the identity.
func (g *Guard) CheckLoggedIn(ctx context.Context, rawHeader string) bool {
	_, err := g.Authenticate(ctx, rawHeader)
	return err == nil
}

// RequireAuth rejects requests without a valid bearer token. The principal is
// stored in c.Locals("principal") and its id in c.Locals("userID").
func (g *Guard) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := g.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if !models.HasCode(err, models.CodeUnauthorized) {
				middleware.Logger.ErrorContext(c.UserContext(), "principal lookup failed", slog.String("error", err.Error()))
			}
			return models.RespondWithAppError(c, err)
		}

		c.Locals("principal", principal)
		c.Locals("userID", principal.ID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), principal.ID.String()))
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals("principal").(*Principal)
	return p, ok && p != nil
}

func bearerToken(rawHeader string) (string, error) {
	rawHeader = strings.TrimSpace(rawHeader)
	if rawHeader == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(rawHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedHeader
	}
	return token, nil
}

func reject(reason, message string) error {
	observability.AuthRejections.WithLabelValues(reason).Inc()
	return models.NewUnauthorizedError(message)
}
