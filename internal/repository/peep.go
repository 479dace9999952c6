package repository

import (
	"context"
	"errors"
	"time"

	"peeps/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PeepRepository defines the interface for peep data operations
type PeepRepository interface {
	Create(ctx context.Context, peep *models.Peep) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Peep, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Peep, error)
	Timeline(ctx context.Context, followerID uuid.UUID, since time.Time) ([]models.TimelineEntry, error)
}

type peepRepository struct {
	db *gorm.DB
}

// NewPeepRepository creates a new peep repository
func NewPeepRepository(db *gorm.DB) PeepRepository {
	return &peepRepository{db: db}
}

// Create stores peep once its author is confirmed to exist.
func (r *peepRepository) Create(ctx context.Context, peep *models.Peep) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", peep.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(peep).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isForeignKeyError(err) {
			return models.NewNotFoundError("User", peep.UserID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *peepRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Peep, error) {
	var peep models.Peep
	if err := r.db.WithContext(ctx).First(&peep, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Peep", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &peep, nil
}

func (r *peepRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Peep{})
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
			return models.NewNotFoundError("Peep", id)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// ListByUser returns a page of userID's peeps, newest first.
func (r *peepRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Peep, error) {
	peeps := []models.Peep{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&peeps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return peeps, nil
}

// Timeline returns peeps authored by accounts followerID follows, created at
// or after since, newest first with the peep id breaking ties.
func (r *peepRepository) Timeline(ctx context.Context, followerID uuid.UUID, since time.Time) ([]models.TimelineEntry, error) {
	entries := []models.TimelineEntry{}
	if err := r.db.WithContext(ctx).
		Table("peeps").
		Select("peeps.id, peeps.content, peeps.created_at").
		Joins("JOIN follows ON follows.followee_id = peeps.user_id").
		Where("follows.follower_id = ? AND peeps.created_at >= ?", followerID, since.UTC()).
		Order("peeps.created_at DESC").
		Order("peeps.id DESC").
		Scan(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
