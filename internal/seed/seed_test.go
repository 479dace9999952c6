package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"peeps/internal/models"
	"peeps/internal/repository"
	"peeps/internal/testutil"
	"peeps/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceBobScenario = `
users:
  - {username: alice, name: Alice, email: alice@example.com, password: wonderland}
  - {username: bob, name: Bob, email: bob@example.com, password: builder1}
follows:
  - {follower: alice, followee: bob}
peeps:
  - {author: bob, content: hello, ago: 1h}
  - {author: bob, content: ancient, ago: 168h}
  - {author: alice, content: "not in my own feed"}
`

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(aliceBobScenario))
	require.NoError(t, err)
	assert.Len(t, sc.Users, 2)
	assert.Len(t, sc.Follows, 1)
	assert.Len(t, sc.Peeps, 3)
	assert.Equal(t, "1h", sc.Peeps[0].Ago)
}

func TestLoadScenarioRejectsUnknownKeys(t *testing.T) {
	_, err := LoadScenario(strings.NewReader("users:\n  - {username: alice, admin: true}\n"))
	assert.Error(t, err)
}

func TestLoadScenarioEmpty(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sc.Users)
}

func TestApplyScenario(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	sc, err := LoadScenario(strings.NewReader(aliceBobScenario))
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	res, err := NewSeeder(db).ApplyScenario(context.Background(), sc, now, true)
	require.NoError(t, err)
	assert.Equal(t, &Result{Users: 2, Follows: 1, Peeps: 3}, res)

	users := repository.NewUserRepository(db, nil, 0)
	alice, err := users.GetCredentials(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.NotEqual(t, "wonderland", alice.PasswordHash)

	entries, err := repository.NewPeepRepository(db).Timeline(context.Background(), alice.ID, now.AddDate(0, 0, -5))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Content)
	assert.Equal(t, now.Add(-time.Hour), entries[0].CreatedAt.UTC())
}

func TestApplyScenarioRollsBackOnUnknownAuthor(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	sc := &Scenario{
		Users: []ScenarioUser{{Username: "alice", Name: "Alice", Email: "alice@example.com", Password: "wonderland"}},
		Peeps: []ScenarioPeep{{Author: "ghost", Content: "boo"}},
	}

	_, err := NewSeeder(db).ApplyScenario(context.Background(), sc, time.Now(), true)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApplyScenarioValidatesUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	sc := &Scenario{Users: []ScenarioUser{{Username: "a", Name: "A", Email: "a@example.com", Password: "wonderland"}}}

	_, err := NewSeeder(db).ApplyScenario(context.Background(), sc, time.Now(), true)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestGenerateAndClear(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db)

	res, err := s.Generate(context.Background(), Options{
		Users:          6,
		PeepsPerUser:   3,
		FollowsPerUser: 2,
		MaxDays:        3,
		Seed:           42,
		FastHash:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, &Result{Users: 6, Follows: 12, Peeps: 18}, res)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 6)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.NoError(t, validation.ValidateEmail(u.Email), u.Email)
	}

	require.NoError(t, s.ClearAll(context.Background()))
	var count int64
	require.NoError(t, db.Model(&models.Peep{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFactoryPickFolloweesExcludesSelf(t *testing.T) {
	f := NewFactory(7, 1)
	picked := f.PickFollowees(2, 4, 10)
	assert.Len(t, picked, 3)
	assert.NotContains(t, picked, 2)
}

func TestFactoryBuildPeepWithinRange(t *testing.T) {
	f := NewFactory(7, 2)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	author := &models.User{}
	for i := 0; i < 50; i++ {
		p := f.BuildPeep(author)
		assert.False(t, p.CreatedAt.After(now))
		assert.True(t, p.CreatedAt.After(now.Add(-48*time.Hour)))
		_, err := validation.NormalizePeepContent(p.Content)
		assert.NoError(t, err)
	}
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "okeefe99", sanitizeUsername("O'Keefe 99"))
	assert.Equal(t, "", sanitizeUsername("__--"))
}
