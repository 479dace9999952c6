package repository

import (
	"context"
	"errors"
	"time"

	"peeps/internal/cache"
	"peeps/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetCredentials(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, changes models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// userRepository implements UserRepository
type userRepository struct {
	db    *gorm.DB
	cache *cache.Store
	ttl   time.Duration
}

// NewUserRepository creates a new user repository. store may be nil or
// disabled, in which case lookups always hit the database.
func NewUserRepository(db *gorm.DB, store *cache.Store, ttl time.Duration) UserRepository {
	if ttl <= 0 {
		ttl = cache.DefaultUserTTL
	}
	return &userRepository{db: db, cache: store, ttl: ttl}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername resolves a username through the cache. The returned user
// never carries the password hash; a missing user is (nil, nil).
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	found, err := r.cache.Aside(ctx, cache.UserKey(username), &user, r.ttl, func() (bool, error) {
		err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !found {
		return nil, nil
	}
	user.PasswordHash = ""
	return &user, nil
}

// GetCredentials loads the user with its password hash, bypassing the cache.
// A missing user is (nil, nil).
func (r *userRepository) GetCredentials(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Update applies the present fields of changes in one transaction.
func (r *userRepository) Update(ctx context.Context, id uuid.UUID, changes models.UpdateUserRequest) (*models.User, error) {
	var user models.User
	var previousUsername string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		previousUsername = user.Username

		updates := map[string]interface{}{}
		if changes.Name != nil {
			user.Name = *changes.Name
			updates["name"] = user.Name
		}
		if changes.Email != nil {
			user.Email = *changes.Email
			updates["email"] = user.Email
		}
		if changes.Username != nil {
			user.Username = *changes.Username
			updates["username"] = user.Username
		}
		user.UpdatedAt = time.Now().UTC()
		updates["updated_at"] = user.UpdatedAt

		return tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, models.NewNotFoundError("User", id)
		case isUniqueConstraintError(err):
			return nil, models.NewConflictError("Username already registered")
		default:
			return nil, models.NewInternalError(err)
		}
	}

	r.cache.InvalidateUser(ctx, previousUsername, user.Username)
	return &user, nil
}

// Delete removes the user's follow edges, then their peeps, then the user,
// all in one transaction.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var user models.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Peep{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
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
			return models.NewNotFoundError("User", id)
		}
		return models.NewInternalError(err)
	}

	r.cache.InvalidateUser(ctx, user.Username)
	return nil
}
