// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"peeps/internal/database"
	"peeps/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a private in-memory SQLite database with the schema applied.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := database.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// NewMockDB returns a Postgres-dialect gorm DB backed by sqlmock.
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open gorm over sqlmock: %v", err)
	}
	return db, mock
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         username,
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "$2a$04$placeholder",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreatePeep inserts a peep by author at createdAt.
func CreatePeep(t *testing.T, db *gorm.DB, author *models.User, content string, createdAt time.Time) *models.Peep {
	t.Helper()
	p := &models.Peep{UserID: author.ID, Content: content, CreatedAt: createdAt}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create peep: %v", err)
	}
	return p
}

// Follow inserts the edge follower -> followee.
func Follow(t *testing.T, db *gorm.DB, follower, followee *models.User) {
	t.Helper()
	if err := db.Create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
}
