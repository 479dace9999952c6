package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"peeps/internal/models"

	"github.com/google/uuid"
)

type userRepoStub struct {
	createFn         func(context.Context, *models.User) error
	getByIDFn        func(context.Context, uuid.UUID) (*models.User, error)
	getByUsernameFn  func(context.Context, string) (*models.User, error)
	getCredentialsFn func(context.Context, string) (*models.User, error)
	updateFn         func(context.Context, uuid.UUID, models.UpdateUserRequest) (*models.User, error)
	deleteFn         func(context.Context, uuid.UUID) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetCredentials(ctx context.Context, username string) (*models.User, error) {
	return s.getCredentialsFn(ctx, username)
}
func (s *userRepoStub) Update(ctx context.Context, id uuid.UUID, changes models.UpdateUserRequest) (*models.User, error) {
	return s.updateFn(ctx, id, changes)
}
func (s *userRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

type followRepoStub struct {
	createFn      func(context.Context, uuid.UUID, uuid.UUID) error
	deleteFn      func(context.Context, uuid.UUID, uuid.UUID) error
	isFollowingFn func(context.Context, uuid.UUID, uuid.UUID) (bool, error)
	followingFn   func(context.Context, uuid.UUID) ([]models.User, error)
	followersFn   func(context.Context, uuid.UUID) ([]models.User, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return s.createFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return s.deleteFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) Following(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	return s.followingFn(ctx, userID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	return s.followersFn(ctx, userID)
}

type peepRepoStub struct {
	createFn     func(context.Context, *models.Peep) error
	getByIDFn    func(context.Context, uuid.UUID) (*models.Peep, error)
	deleteFn     func(context.Context, uuid.UUID) error
	listByUserFn func(context.Context, uuid.UUID, int, int) ([]models.Peep, error)
	timelineFn   func(context.Context, uuid.UUID, time.Time) ([]models.TimelineEntry, error)
}

func (s *peepRepoStub) Create(ctx context.Context, peep *models.Peep) error {
	return s.createFn(ctx, peep)
}
func (s *peepRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Peep, error) {
	return s.getByIDFn(ctx, id)
}
func (s *peepRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}
func (s *peepRepoStub) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Peep, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *peepRepoStub) Timeline(ctx context.Context, followerID uuid.UUID, since time.Time) ([]models.TimelineEntry, error) {
	return s.timelineFn(ctx, followerID, since)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:         func(context.Context, *models.User) error { return nil },
		getByIDFn:        func(context.Context, uuid.UUID) (*models.User, error) { return &models.User{}, nil },
		getByUsernameFn:  func(context.Context, string) (*models.User, error) { return nil, nil },
		getCredentialsFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		updateFn: func(_ context.Context, id uuid.UUID, _ models.UpdateUserRequest) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		deleteFn: func(context.Context, uuid.UUID) error { return nil },
	}
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:      func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
		deleteFn:      func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
		isFollowingFn: func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil },
		followingFn:   func(context.Context, uuid.UUID) ([]models.User, error) { return nil, nil },
		followersFn:   func(context.Context, uuid.UUID) ([]models.User, error) { return nil, nil },
	}
}

func noopPeepRepo() *peepRepoStub {
	return &peepRepoStub{
		createFn:     func(context.Context, *models.Peep) error { return nil },
		getByIDFn:    func(context.Context, uuid.UUID) (*models.Peep, error) { return &models.Peep{}, nil },
		deleteFn:     func(context.Context, uuid.UUID) error { return nil },
		listByUserFn: func(context.Context, uuid.UUID, int, int) ([]models.Peep, error) { return nil, nil },
		timelineFn: func(context.Context, uuid.UUID, time.Time) ([]models.TimelineEntry, error) {
			return nil, nil
		},
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s app error, got %#v", code, err)
	}
}
