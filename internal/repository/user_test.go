package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"peeps/internal/cache"
	"peeps/internal/models"
	"peeps/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserRepository_CreateAndLookups(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db, nil, 0)
	ctx := context.Background()

	user := &models.User{Name: "Bob", Email: "bob@example.com", Username: "bob", PasswordHash: "$2a$04$hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	dup := &models.User{Name: "Other Bob", Email: "other@example.com", Username: "bob", PasswordHash: "x"}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeConflict), "got %v", err)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", byID.Username)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	byName, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Empty(t, byName.PasswordHash)

	creds, err := repo.GetCredentials(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$hash", creds.PasswordHash)

	missing, err := repo.GetByUsername(ctx, "Bob")
	require.NoError(t, err)
	assert.Nil(t, missing, "usernames are case-sensitive")

	missing, err = repo.GetCredentials(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_Update(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db, nil, 0)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "carol")

	updated, err := repo.Update(ctx, alice.ID, models.UpdateUserRequest{Name: strPtr("Alice Liddell")})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email, "absent fields are untouched")
	assert.Equal(t, "alice", updated.Username)

	stored, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", stored.Name)

	_, err = repo.Update(ctx, alice.ID, models.UpdateUserRequest{Username: strPtr("carol")})
	assert.True(t, models.HasCode(err, models.CodeConflict), "got %v", err)

	_, err = repo.Update(ctx, uuid.New(), models.UpdateUserRequest{Name: strPtr("x")})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db, nil, 0)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	testutil.Follow(t, db, alice, bob)
	testutil.Follow(t, db, bob, alice)
	testutil.CreatePeep(t, db, bob, "hello", time.Now())
	testutil.CreatePeep(t, db, alice, "hi", time.Now())

	require.NoError(t, repo.Delete(ctx, bob.ID))

	var follows, peeps, users int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, db.Model(&models.Peep{}).Where("user_id = ?", bob.ID).Count(&peeps).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, follows)
	assert.Zero(t, peeps)
	assert.EqualValues(t, 1, users)

	var alicePeeps int64
	require.NoError(t, db.Model(&models.Peep{}).Where("user_id = ?", alice.ID).Count(&alicePeeps).Error)
	assert.EqualValues(t, 1, alicePeeps)

	err := repo.Delete(ctx, bob.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_DeleteRollsBackOnFailure(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewUserRepository(db, nil, 0)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(id.String(), "bob"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "follows"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "peeps"`)).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), id)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateMapsPostgresUniqueViolation(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewUserRepository(db, nil, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_users_username\""})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "bob", Name: "Bob", Email: "b@example.com", PasswordHash: "x"})
	assert.True(t, models.HasCode(err, models.CodeConflict), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CachedLookupsInvalidate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewUserRepository(db, cache.NewStore(client), time.Minute)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, mr.Exists(cache.UserKey("alice")))

	cached, err := mr.Get(cache.UserKey("alice"))
	require.NoError(t, err)
	assert.NotContains(t, cached, "placeholder", "password hash never reaches the cache")

	_, err = repo.Update(ctx, alice.ID, models.UpdateUserRequest{Username: strPtr("alicia")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.UserKey("alice")))

	stale, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, stale)

	_, err = repo.GetByUsername(ctx, "alicia")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.UserKey("alicia")))

	require.NoError(t, repo.Delete(ctx, alice.ID))
	assert.False(t, mr.Exists(cache.UserKey("alicia")))

	gone, err := repo.GetByUsername(ctx, "alicia")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
