// Command seed fills the database with demo data, either from a YAML
// scenario file or generated with fake content.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"peeps/internal/config"
	"peeps/internal/database"
	"peeps/internal/middleware"
	"peeps/internal/seed"
)

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	scenario := flag.String("scenario", "", "YAML scenario file; when set the generator flags are ignored")
	numUsers := flag.Int("users", 50, "Number of users to generate")
	peepsPerUser := flag.Int("peeps", 10, "Peeps per generated user")
	followsPerUser := flag.Int("follows", 8, "Follows per generated user")
	maxDays := flag.Int("days", 7, "Spread generated peeps over this many days")
	fakerSeed := flag.Int64("seed", 0, "Faker seed; 0 picks a random one")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.Configure(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	s := seed.NewSeeder(db)
	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
	}

	if *scenario != "" {
		f, err := os.Open(*scenario)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		sc, err := seed.LoadScenario(f)
		if err != nil {
			return err
		}
		_, err = s.ApplyScenario(ctx, sc, time.Now().UTC(), *fast)
		return err
	}

	_, err = s.Generate(ctx, seed.Options{
		Users:          *numUsers,
		PeepsPerUser:   *peepsPerUser,
		FollowsPerUser: *followsPerUser,
		MaxDays:        *maxDays,
		Seed:           *fakerSeed,
		FastHash:       *fast,
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("generated users share one password", slog.String("password", seed.DefaultPassword))
	return nil
}
