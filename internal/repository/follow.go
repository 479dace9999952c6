package repository

import (
	"context"
	"errors"

	"peeps/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow graph operations
type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID uuid.UUID) error
	Delete(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Following(ctx context.Context, userID uuid.UUID) ([]models.User, error)
	Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

var errEdgeExists = errors.New("follow edge exists")

// Create inserts the edge after checking that both users exist. A duplicate
// edge is a conflict.
func (r *followRepository) Create(ctx context.Context, followerID, followeeID uuid.UUID) error {
	var missing uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.User{}).
			Where("id IN ?", []uuid.UUID{followerID, followeeID}).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		for _, want := range []uuid.UUID{followerID, followeeID} {
			if !containsID(ids, want) {
				missing = want
				return gorm.ErrRecordNotFound
			}
		}

		var n int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errEdgeExists
		}

		return tx.Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError("User", missing)
	case errors.Is(err, errEdgeExists), isUniqueConstraintError(err):
		return models.NewConflictError("Already following this user")
	case isForeignKeyError(err):
		return models.NewNotFoundError("User", followeeID)
	default:
		return models.NewInternalError(err)
	}
}

// Delete removes the edge; NotFound when there was none.
func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.AppError{Code: models.CodeNotFound, Message: "No follows relation found"}
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// Following lists the users userID follows, by username.
func (r *followRepository) Following(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	return r.neighbours(ctx, "follows.followee_id = users.id", "follows.follower_id = ?", userID)
}

// Followers lists the users following userID, by username.
func (r *followRepository) Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	return r.neighbours(ctx, "follows.follower_id = users.id", "follows.followee_id = ?", userID)
}

func (r *followRepository) neighbours(ctx context.Context, on, where string, userID uuid.UUID) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON "+on).
		Where(where, userID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
