package server

import (
	"peeps/internal/models"
	"peeps/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UpdateUser handles PATCH /api/users/:id
// @Summary Update a user
// @Description Only the fields present in the body are changed
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} object{message=string,user=models.PublicUser}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{id} [patch]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accounts.UpdateUser(c.UserContext(), id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user.Public(),
	})
}

// DeleteUser handles DELETE /api/users/:id
// @Summary Delete a user
// @Description Removes the user, their peeps and every follow edge touching them
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.accounts.DeleteUser(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// Follow handles POST /api/users/:id/follow
// @Summary Follow a user
// @Tags follows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Follower ID"
// @Param request body models.FollowRequest true "Account to follow"
// @Success 201 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	followerID, followeeID, ok := s.followPair(c)
	if !ok {
		return nil
	}
	if err := s.graph.Follow(c.UserContext(), followerID, followeeID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Followed successfully"})
}

// Unfollow handles POST /api/users/:id/unfollow
// @Summary Unfollow a user
// @Tags follows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Follower ID"
// @Param request body models.FollowRequest true "Account to unfollow"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/unfollow [post]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	followerID, followeeID, ok := s.followPair(c)
	if !ok {
		return nil
	}
	if err := s.graph.Unfollow(c.UserContext(), followerID, followeeID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unfollowed successfully"})
}

func (s *Server) followPair(c *fiber.Ctx) (follower, followee uuid.UUID, ok bool) {
	follower, err := parseUUID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	var req models.FollowRequest
	if err := c.BodyParser(&req); err != nil || req.FolloweeID == uuid.Nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("followee_id is required"))
		return uuid.Nil, uuid.Nil, false
	}
	return follower, req.FolloweeID, true
}

// GetFollowing handles GET /api/users/:id/following
// @Summary Accounts a user follows
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {array} models.PublicUser
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.graph.Following(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(publicUsers(users))
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary Accounts following a user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {array} models.PublicUser
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.graph.Followers(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(publicUsers(users))
}

// GetTimeline handles GET /api/users/:id/timeline
// @Summary Timeline
// @Description Peeps of followed accounts within the trailing window, newest first
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param days query int false "Window in days"
// @Success 200 {array} models.TimelineEntry
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{id}/timeline [get]
func (s *Server) GetTimeline(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	window := s.config.TimelineWindowDays
	if window <= 0 {
		window = service.DefaultTimelineWindowDays
	}
	window = c.QueryInt("days", window)

	entries, err := s.feed.BuildTimeline(c.UserContext(), id, window, s.now().UTC())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(entries)
}
