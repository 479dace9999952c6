package repository

import (
	"context"
	"testing"
	"time"

	"peeps/internal/models"
	"peeps/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeepRepository_CRUD(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPeepRepository(db)
	ctx := context.Background()

	bob := testutil.CreateUser(t, db, "bob")

	peep := &models.Peep{UserID: bob.ID, Content: "hello"}
	require.NoError(t, repo.Create(ctx, peep))
	assert.NotEqual(t, uuid.Nil, peep.ID)
	assert.Equal(t, time.UTC, peep.CreatedAt.Location())

	got, err := repo.GetByID(ctx, peep.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, bob.ID, got.UserID)

	orphan := &models.Peep{UserID: uuid.New(), Content: "lost"}
	err = repo.Create(ctx, orphan)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	require.NoError(t, repo.Delete(ctx, peep.ID))
	_, err = repo.GetByID(ctx, peep.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.True(t, models.HasCode(repo.Delete(ctx, peep.ID), models.CodeNotFound))
}

func TestPeepRepository_ListByUser(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPeepRepository(db)
	ctx := context.Background()

	bob := testutil.CreateUser(t, db, "bob")
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, content := range []string{"one", "two", "three"} {
		testutil.CreatePeep(t, db, bob, content, base.Add(time.Duration(i)*time.Hour))
	}

	page, err := repo.ListByUser(ctx, bob.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "three", page[0].Content)
	assert.Equal(t, "two", page[1].Content)

	page, err = repo.ListByUser(ctx, bob.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "one", page[0].Content)
}

func TestPeepRepository_Timeline(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPeepRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	dave := testutil.CreateUser(t, db, "dave")
	testutil.Follow(t, db, alice, bob)
	testutil.Follow(t, db, alice, carol)

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tie := since.Add(10 * time.Hour)

	testutil.CreatePeep(t, db, bob, "too old", since.Add(-time.Second))
	testutil.CreatePeep(t, db, bob, "at boundary", since)
	first := testutil.CreatePeep(t, db, bob, "tie a", tie)
	second := testutil.CreatePeep(t, db, carol, "tie b", tie)
	testutil.CreatePeep(t, db, carol, "latest", since.Add(20*time.Hour))
	testutil.CreatePeep(t, db, dave, "not followed", since.Add(30*time.Hour))
	testutil.CreatePeep(t, db, alice, "own peep", since.Add(30*time.Hour))

	entries, err := repo.Timeline(ctx, alice.ID, since)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "latest", entries[0].Content)
	assert.Equal(t, "at boundary", entries[3].Content)
	assert.True(t, entries[3].CreatedAt.Equal(since))

	// Equal timestamps come back in descending id order.
	tied := []string{entries[1].Content, entries[2].Content}
	if first.ID.String() > second.ID.String() {
		assert.Equal(t, []string{"tie a", "tie b"}, tied)
	} else {
		assert.Equal(t, []string{"tie b", "tie a"}, tied)
	}

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt))
	}

	again, err := repo.Timeline(ctx, alice.ID, since)
	require.NoError(t, err)
	assert.Equal(t, entries, again)

	empty, err := repo.Timeline(ctx, dave.ID, since)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
