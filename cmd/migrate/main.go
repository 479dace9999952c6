// Command migrate applies, inspects and reverts the SQL schema migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"peeps/internal/config"
	"peeps/internal/database"
	"peeps/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|auto|status|down> [version]")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.Configure(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	log := middleware.Logger
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		m, err := database.MigratorFor(ctx, db)
		if err != nil {
			return err
		}
		ran, err := m.Up(ctx)
		if err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Info("sql migrations applied", slog.Int("count", len(ran)))
	case "auto":
		cfg.DBSchemaMode = string(database.SchemaModeAuto)
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Info("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Info("schema status",
			slog.String("mode", string(status.Mode)),
			slog.String("env", cfg.Env),
			slog.Bool("run_sql", status.SQL),
			slog.Bool("run_auto", status.AutoMigrate),
			slog.Int("applied", len(status.Applied)),
			slog.Int("pending", len(status.Pending)),
		)
		for _, m := range status.Pending {
			log.Info("pending migration", slog.String("migration", m.String()))
		}
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		m, err := database.MigratorFor(ctx, db)
		if err != nil {
			return err
		}
		if err := m.Down(ctx, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Info("rolled back migration", slog.Int("version", version))
	default:
		return usage()
	}

	return nil
}
