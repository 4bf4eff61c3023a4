package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"

	"notes-service/cmd/api/infrastructure"
	"notes-service/cmd/api/server"
	"notes-service/internal/adapter/db/postgres"
	ginhandler "notes-service/internal/adapter/gin/handler"
	"notes-service/internal/adapter/gin/middleware"
	"notes-service/internal/adapter/gin/router"
	grpcadapter "notes-service/internal/adapter/grpc"
	grpcmiddleware "notes-service/internal/adapter/grpc/middleware"
	"notes-service/internal/config"
	"notes-service/internal/usecase/auth"
	"notes-service/internal/usecase/note"
	redisclient "notes-service/pkg/redis"
	"notes-service/pkg/security"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil unless the redis rate limiter is enabled
	AuthUC      auth.Usecase
	NoteUC      note.Usecase
	Router      *gin.Engine
	GRPCServer  *grpc.Server                // nil when GRPC_ENABLED is false
	Health      *grpcadapter.HealthChecker // nil when GRPC_ENABLED is false
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	if cfg.DB.AutoMigrate {
		if err := infrastructure.MigrateDatabase(db, l); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var (
		rateLimiter router.RateLimiter
		limiter     grpcmiddleware.Limiter
	)
	if cfg.RateLimit.Enabled {
		limits := middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
		}
		switch cfg.RateLimit.Backend {
		case "memory":
			rl := middleware.NewMemoryRateLimiter(limits, l)
			rateLimiter, limiter = rl, rl
		default:
			rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
			if err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("failed to initialize Redis: %w", err)
			}
			c.RedisClient = rdb
			rl := middleware.NewRateLimiter(rdb.Client, limits, l)
			rateLimiter, limiter = rl, rl
		}
		l.Info("rate limiting enabled", zap.String("backend", cfg.RateLimit.Backend))
	}

	// Stores
	userRepo := postgres.NewUserRepoPG(db, l)
	noteRepo := postgres.NewNoteRepoPG(db, l)

	// Use cases
	tokens := security.NewTokenManager(security.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL(),
		Issuer: cfg.Auth.JWTIssuer,
	})
	authUC := auth.New(userRepo, tokens, security.NewPasswordHasher(cfg.Auth.BcryptCost), l)
	noteUC := note.New(noteRepo, l)
	c.AuthUC = authUC
	c.NoteUC = noteUC

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sqlDB, err := db.DB()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	reg.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.DB.Driver))

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	c.Router = router.SetupRouter(router.Dependencies{
		AuthHandler:    ginhandler.NewAuthHandler(authUC, l),
		NoteHandler:    ginhandler.NewNoteHandler(noteUC, l),
		Verifier:       authUC,
		RateLimiter:    rateLimiter,
		Metrics:        middleware.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		DB:             sqlDB,
		RequestTimeout: cfg.App.RequestTimeout(),
		MaxBodyBytes:   cfg.App.MaxBodyBytes,
		SwaggerFile:    cfg.App.SwaggerFile,
		Log:            l,
	})

	if cfg.App.GRPCEnabled {
		var grpcLimiter *grpcmiddleware.RateLimiter
		if limiter != nil {
			grpcLimiter = grpcmiddleware.NewRateLimiter(limiter, l)
		}
		c.Health = grpcadapter.NewHealthChecker(health.NewServer(), sqlDB, cfg.App.HealthCheckInterval(), l)
		c.GRPCServer = server.SetupGRPC(c.Health.Server(), grpcLimiter, l)
	}

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
