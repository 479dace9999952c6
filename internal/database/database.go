// Package database handles database connections and migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peeps/internal/config"
	"peeps/internal/middleware"
	"peeps/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialector picks the GORM driver for cfg. Postgres goes through pgx; SQLite
// takes DB_NAME as its DSN and gets foreign keys switched on.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.DBDriver) {
	case "", "postgres":
		sslMode := cfg.DBSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			sslMode,
		)
		return postgres.New(postgres.Config{DSN: dsn}), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(cfg.DBName)), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// SQLiteDSN appends the foreign key pragma to name unless already present.
func SQLiteDSN(name string) string {
	if strings.Contains(name, "_foreign_keys") || strings.Contains(name, "_fk=") {
		return name
	}
	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + "_foreign_keys=1"
}

// Connect opens a database connection using the provided configuration and
// returns the gorm DB instance. Schema changes are left to ApplySchema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if strings.EqualFold(cfg.DBDriver, "sqlite") {
		// SQLite serializes writers; one connection keeps in-memory DSNs coherent.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	middleware.Logger.Info("Database connected successfully", slog.String("driver", cfg.DBDriver))
	return db, nil
}

// Open wraps gorm.Open with the slog logger, error translation and query metrics.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newQueryLogger(middleware.Logger, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := observability.InstrumentDB(db); err != nil {
		return nil, fmt.Errorf("failed to register query metrics: %w", err)
	}
	return db, nil
}

// Ping checks that the database answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
