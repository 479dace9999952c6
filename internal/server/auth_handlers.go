package server

import (
	"strings"

	"peeps/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/users/auth/signup
// @Summary User signup
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup request"
// @Success 201 {object} object{message=string,user=models.PublicUser}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accounts.Signup(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user.Public(),
	})
}

// Login handles POST /api/users/auth/login
// @Summary User login
// @Description Exchange username and password for a bearer token (OAuth2 password flow)
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	token, err := s.accounts.Login(c.UserContext(), username, password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(token)
}

// WhoAmI handles GET /api/users/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} models.ErrorResponse
// @Router /users/auth/me [get]
func (s *Server) WhoAmI(c *fiber.Ctx) error {
	return c.JSON(principal(c))
}
