package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"peeps/internal/config"
	"peeps/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMode selects how ApplySchema brings the tables up to date.
type SchemaMode string

const (
	// SchemaModeHybrid runs the SQL migrations, then AutoMigrate outside production.
	SchemaModeHybrid SchemaMode = "hybrid"
	SchemaModeSQL    SchemaMode = "sql"
	SchemaModeAuto   SchemaMode = "auto"
)

// ParseSchemaMode reads DB_SCHEMA_MODE. Empty means hybrid.
func ParseSchemaMode(s string) (SchemaMode, error) {
	switch mode := SchemaMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return SchemaModeHybrid, nil
	case SchemaModeHybrid, SchemaModeSQL, SchemaModeAuto:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported DB_SCHEMA_MODE %q", s)
	}
}

// SchemaPlan is what ApplySchema will do for a configuration.
type SchemaPlan struct {
	Mode        SchemaMode
	SQL         bool
	AutoMigrate bool
}

// PlanSchema decides the schema steps for cfg. The SQL scripts are written
// for Postgres, so SQLite is always auto-migrated. AutoMigrate alone is
// refused in production, where only reviewed SQL may change tables.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode, err := ParseSchemaMode(cfg.DBSchemaMode)
	if err != nil {
		return SchemaPlan{}, err
	}
	plan := SchemaPlan{Mode: mode}

	if strings.EqualFold(cfg.DBDriver, "sqlite") {
		plan.AutoMigrate = true
		return plan, nil
	}

	switch mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if cfg.IsProduction() {
			return SchemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.AutoMigrate = !cfg.IsProduction()
	}
	return plan, nil
}

// AutoMigrate creates or updates tables for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		m, err := MigratorFor(ctx, db)
		if err != nil {
			return err
		}
		ran, err := m.Up(ctx)
		if err != nil {
			return err
		}
		middleware.Logger.InfoContext(ctx, "sql migrations up to date", slog.Int("applied", len(ran)))
	}

	if plan.AutoMigrate {
		middleware.Logger.InfoContext(ctx, "running gorm automigrate",
			slog.String("mode", string(plan.Mode)),
			slog.String("driver", cfg.DBDriver),
		)
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus pairs the plan with the ledger state. Applied and Pending are
// only filled when the plan runs SQL migrations.
type SchemaStatus struct {
	SchemaPlan
	Applied []int
	Pending []Migration
}

// GetSchemaStatus reports what ApplySchema would do against db.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	m, err := MigratorFor(ctx, db)
	if err != nil {
		return nil, err
	}
	status.Applied, status.Pending, err = m.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status, nil
}
