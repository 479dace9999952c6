package server

import (
	"errors"

	"peeps/internal/auth"
	"peeps/internal/models"
	"peeps/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > service.MaxPageSize {
		limit = service.MaxPageSize
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseUUID extracts a route parameter by name as a UUID.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}

// principal returns the authenticated caller. Routes mounted behind
// RequireAuth always have one.
func principal(c *fiber.Ctx) *auth.Principal {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return &auth.Principal{}
	}
	return p
}

func publicUsers(users []models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
