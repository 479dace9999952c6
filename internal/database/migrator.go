package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peeps/internal/middleware"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Ledger records which migrations a database has applied.
type Ledger interface {
	Applied(ctx context.Context) ([]int, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

// SchemaMigration is a row of the ledger table.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName keeps the ledger apart from the application tables.
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger keeps the ledger in db's schema_migrations table.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) Applied(ctx context.Context) ([]int, error) {
	var versions []int
	err := l.db.WithContext(ctx).Model(&SchemaMigration{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		if isUndefinedTable(err) {
			return []int{}, nil
		}
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return versions, nil
}

// Apply runs the up script and records it atomically.
func (l *gormLedger) Apply(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.Up).Error; err != nil {
			return err
		}
		return tx.Create(&SchemaMigration{Version: m.Version, Name: m.Name}).Error
	})
}

// Revert runs the down script and forgets the version atomically.
func (l *gormLedger) Revert(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.Down).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", m.Version).Delete(&SchemaMigration{}).Error
	})
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return strings.Contains(err.Error(), "no such table")
}

// Migrator moves a database through a Catalog.
type Migrator struct {
	ledger  Ledger
	catalog Catalog
}

// NewMigrator returns a Migrator recording progress in ledger.
func NewMigrator(ledger Ledger, catalog Catalog) *Migrator {
	return &Migrator{ledger: ledger, catalog: catalog}
}

// MigratorFor returns a Migrator over the embedded scripts, creating db's
// ledger table when it is missing.
func MigratorFor(ctx context.Context, db *gorm.DB) (*Migrator, error) {
	catalog, err := EmbeddedCatalog()
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	return NewMigrator(NewLedger(db), catalog), nil
}

// Up applies every pending migration in order and returns those it ran. It
// stops at the first failure and refuses to run at all when the database has
// versions the catalog does not know, which means the binary is older than
// the schema.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	applied, err := m.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if unknown := m.catalog.Unknown(applied); len(unknown) > 0 {
		return nil, fmt.Errorf("database has migrations this build does not know: %v", unknown)
	}

	var ran []Migration
	for _, mig := range m.catalog.Pending(applied) {
		middleware.Logger.InfoContext(ctx, "applying migration", slog.String("migration", mig.String()))
		if err := m.ledger.Apply(ctx, mig); err != nil {
			return ran, fmt.Errorf("apply %s: %w", mig, err)
		}
		ran = append(ran, mig)
	}
	return ran, nil
}

// Down reverts the applied migration with version.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig, ok := m.catalog.Find(version)
	if !ok {
		return fmt.Errorf("no migration with version %d", version)
	}
	applied, err := m.ledger.Applied(ctx)
	if err != nil {
		return err
	}
	for _, v := range applied {
		if v != version {
			continue
		}
		middleware.Logger.InfoContext(ctx, "reverting migration", slog.String("migration", mig.String()))
		if err := m.ledger.Revert(ctx, mig); err != nil {
			return fmt.Errorf("revert %s: %w", mig, err)
		}
		return nil
	}
	return fmt.Errorf("migration %s is not applied", mig)
}

// Status returns the applied versions and the migrations still to run.
func (m *Migrator) Status(ctx context.Context) ([]int, []Migration, error) {
	applied, err := m.ledger.Applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	return applied, m.catalog.Pending(applied), nil
}
