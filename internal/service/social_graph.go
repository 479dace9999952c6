package service

import (
	"context"
	"log/slog"

	"peeps/internal/middleware"
	"peeps/internal/models"
	"peeps/internal/observability"
	"peeps/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SocialGraph manages directed follow edges between users.
type SocialGraph struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

// NewSocialGraph returns a new SocialGraph.
func NewSocialGraph(follows repository.FollowRepository, users repository.UserRepository) *SocialGraph {
	return &SocialGraph{follows: follows, users: users}
}

// Follow makes followerID read followeeID's peeps. Following oneself is
// permitted; a second follow of the same account is a conflict.
func (g *SocialGraph) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	ctx, span := observability.StartSpan(ctx, "SocialGraph.Follow", edgeAttrs(followerID, followeeID)...)
	err := g.follows.Create(ctx, followerID, followeeID)
	span.Finish(err)
	observability.FollowMutations.WithLabelValues("follow", resultLabel(err)).Inc()
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "follow created",
		slog.String("follower", followerID.String()),
		slog.String("followee", followeeID.String()),
	)
	return nil
}

// Unfollow removes the edge, failing with NOT_FOUND when there is none.
func (g *SocialGraph) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	ctx, span := observability.StartSpan(ctx, "SocialGraph.Unfollow", edgeAttrs(followerID, followeeID)...)
	err := g.follows.Delete(ctx, followerID, followeeID)
	span.Finish(err)
	observability.FollowMutations.WithLabelValues("unfollow", resultLabel(err)).Inc()
	return err
}

func edgeAttrs(followerID, followeeID uuid.UUID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("follow.follower_id", followerID.String()),
		attribute.String("follow.followee_id", followeeID.String()),
	}
}

// IsFollowing reports whether the edge followerID -> followeeID exists.
func (g *SocialGraph) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	return g.follows.IsFollowing(ctx, followerID, followeeID)
}

// Following lists the accounts userID follows.
func (g *SocialGraph) Following(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	if _, err := g.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return g.follows.Following(ctx, userID)
}

// Followers lists the accounts following userID.
func (g *SocialGraph) Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	if _, err := g.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return g.follows.Followers(ctx, userID)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case models.HasCode(err, models.CodeConflict):
		return "conflict"
	case models.HasCode(err, models.CodeNotFound):
		return "not_found"
	default:
		return "error"
	}
}
