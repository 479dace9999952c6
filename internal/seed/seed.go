package seed

import (
	"context"
	"fmt"
	"log/slog"

	"peeps/internal/auth"
	"peeps/internal/middleware"
	"peeps/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Options configures generated seeding.
type Options struct {
	Users          int
	PeepsPerUser   int
	FollowsPerUser int
	MaxDays        int
	Seed           int64
	// FastHash hashes with the minimum bcrypt cost.
	FastHash bool
}

// Seeder writes demo data.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder returns a seeder writing to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes every follow, peep and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Follow{}, &models.Peep{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Result counts what a seeding run wrote.
type Result struct {
	Users   int
	Follows int
	Peeps   int
}

// Generate creates opts.Users fake users with random follows and peeps in one
// transaction.
func (s *Seeder) Generate(ctx context.Context, opts Options) (*Result, error) {
	if opts.Users <= 0 {
		return &Result{}, nil
	}

	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := auth.NewPasswordHasher(cost).Hash(DefaultPassword)
	if err != nil {
		return nil, err
	}

	f := NewFactory(opts.Seed, opts.MaxDays)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		users = append(users, f.BuildUser(i+1, hash))
	}

	var follows []*models.Follow
	for i, u := range users {
		for _, j := range f.PickFollowees(i, len(users), opts.FollowsPerUser) {
			follows = append(follows, &models.Follow{FollowerID: u.ID, FolloweeID: users[j].ID})
		}
	}

	var peeps []*models.Peep
	for _, u := range users {
		for k := 0; k < opts.PeepsPerUser; k++ {
			peeps = append(peeps, f.BuildPeep(u))
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(users, 100).Error; err != nil {
			return fmt.Errorf("create users: %w", err)
		}
		if len(follows) > 0 {
			if err := tx.CreateInBatches(follows, 500).Error; err != nil {
				return fmt.Errorf("create follows: %w", err)
			}
		}
		if len(peeps) > 0 {
			if err := tx.CreateInBatches(peeps, 500).Error; err != nil {
				return fmt.Errorf("create peeps: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Users: len(users), Follows: len(follows), Peeps: len(peeps)}
	middleware.Logger.InfoContext(ctx, "seeded generated data",
		slog.Int("users", res.Users),
		slog.Int("follows", res.Follows),
		slog.Int("peeps", res.Peeps),
	)
	return res, nil
}
