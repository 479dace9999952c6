package server

import (
	"peeps/internal/models"
	"peeps/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePeep handles POST /api/peeps
// @Summary Publish a peep
// @Tags peeps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePeepRequest true "Peep content"
// @Success 201 {object} object{message=string,peep=models.Peep}
// @Failure 400 {object} models.ErrorResponse
// @Router /peeps [post]
func (s *Server) CreatePeep(c *fiber.Ctx) error {
	var req models.CreatePeepRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	peep, err := s.peeps.Create(c.UserContext(), principal(c).ID, req.Content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Peep created successfully",
		"peep":    peep,
	})
}

// GetPeep handles GET /api/peeps/:id
// @Summary Get a peep
// @Tags peeps
// @Produce json
// @Security BearerAuth
// @Param id path string true "Peep ID"
// @Success 200 {object} models.Peep
// @Failure 404 {object} models.ErrorResponse
// @Router /peeps/{id} [get]
func (s *Server) GetPeep(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	peep, err := s.peeps.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(peep)
}

// DeletePeep handles DELETE /api/peeps/:id
// @Summary Delete a peep
// @Tags peeps
// @Produce json
// @Security BearerAuth
// @Param id path string true "Peep ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /peeps/{id} [delete]
func (s *Server) DeletePeep(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.peeps.Delete(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Peep deleted successfully"})
}

// GetUserPeeps handles GET /api/users/:id/peeps
// @Summary Peeps by a user
// @Tags peeps
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Peep
// @Router /users/{id}/peeps [get]
func (s *Server) GetUserPeeps(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, service.DefaultPageSize)
	peeps, err := s.peeps.ListByUser(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(peeps)
}
