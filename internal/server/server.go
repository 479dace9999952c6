// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "peeps/docs" // swagger docs
	"peeps/internal/auth"
	"peeps/internal/cache"
	"peeps/internal/config"
	"peeps/internal/database"
	"peeps/internal/middleware"
	"peeps/internal/models"
	"peeps/internal/repository"
	"peeps/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config   *config.Config
	db       *gorm.DB
	redis    *redis.Client
	app      *fiber.App
	registry *prometheus.Registry
	prom     *fiberprometheus.FiberPrometheus
	now      func() time.Time

	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	peepRepo   repository.PeepRepository

	tokens   *auth.TokenService
	guard    *auth.Guard
	accounts *service.AccountService
	graph    *service.SocialGraph
	feed     *service.FeedBuilder
	peeps    *service.PeepService
}

// NewServer connects to the database and Redis described by cfg, applies the
// schema and returns a server using them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	// Redis is optional; without it user lookups go straight to the database.
	redisClient := cache.Connect(ctx, cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	store := cache.NewStore(redisClient)
	userRepo := repository.NewUserRepository(db, store, cfg.UserCacheTTL())
	followRepo := repository.NewFollowRepository(db)
	peepRepo := repository.NewPeepRepository(db)

	registry := prometheus.NewRegistry()
	s := &Server{
		config:     cfg,
		db:         db,
		redis:      redisClient,
		registry:   registry,
		prom:       fiberprometheus.NewWithRegistry(registry, "peeps-api", "http", "", nil),
		now:        time.Now,
		userRepo:   userRepo,
		followRepo: followRepo,
		peepRepo:   peepRepo,
		tokens:     tokens,
		guard:      auth.NewGuard(tokens, userRepo),
	}
	s.accounts = service.NewAccountService(userRepo, auth.NewPasswordHasher(bcrypt.DefaultCost), tokens, cfg.AccessTokenTTL())
	s.graph = service.NewSocialGraph(followRepo, userRepo)
	s.feed = service.NewFeedBuilder(peepRepo)
	s.peeps = service.NewPeepService(peepRepo)
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID (after tracing)
	app.Use(middleware.ContextMiddleware())

	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "WWW-Authenticate, X-Request-ID, X-Trace-ID",
		MaxAge:        86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Exposes the process-wide collectors alongside the HTTP metrics of this server.
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, s.registry},
		promhttp.HandlerOpts{},
	)))
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	requireAuth := s.guard.RequireAuth()

	authRoutes := api.Group("/users/auth")
	authRoutes.Post("/signup", s.Signup)
	authRoutes.Post("/login", s.Login)
	authRoutes.Get("/me", requireAuth, s.WhoAmI)

	// Define specific /:id/:resource routes BEFORE generic /:id route
	users := api.Group("/users", requireAuth)
	users.Post("/:id/follow", s.Follow)
	users.Post("/:id/unfollow", s.Unfollow)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/timeline", s.GetTimeline)
	users.Get("/:id/peeps", s.GetUserPeeps)
	users.Patch("/:id", s.UpdateUser)
	users.Delete("/:id", s.DeleteUser)

	peeps := api.Group("/peeps", requireAuth)
	peeps.Post("/", s.CreatePeep)
	peeps.Get("/:id", s.GetPeep)
	peeps.Delete("/:id", s.DeletePeep)
}

// App builds the Fiber application with all middleware and routes mounted.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Peeps API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   s.now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional and only
// reported; the database must answer.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": s.now().UTC(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
