package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"notes-service/cmd/api/di"
	"notes-service/cmd/api/infrastructure"
	"notes-service/cmd/api/server"
	"notes-service/internal/config"
	"notes-service/pkg/logger"
)

// App represents the application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *server.Server
	Container *di.Container
}

// New loads configuration from configPath and builds every dependency.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, l, err := Bootstrap(configPath)
	if err != nil {
		return nil, err
	}

	container, err := di.NewContainer(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	srv := server.New(cfg.App.HTTPPort, container.Router, l)
	if container.GRPCServer != nil {
		srv.WithGRPC(cfg.App.GRPCPort, container.GRPCServer)
	}

	return &App{
		Config:    cfg,
		Logger:    l,
		Server:    srv,
		Container: container,
	}, nil
}

// Bootstrap loads configuration and builds the logger.
func Bootstrap(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.NewWithConfig(logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      cfg.Env,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, l, nil
}

// Run serves HTTP, and gRPC when enabled, until ctx is canceled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", a.Config.Env),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Start(gctx)
	})

	if a.Server.GRPC != nil {
		g.Go(func() error {
			return a.Server.StartGRPC(gctx)
		})
	}

	if a.Container != nil && a.Container.Health != nil {
		g.Go(func() error {
			return a.Container.Health.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

// shutdown gracefully shuts down the application
func (a *App) shutdown() error {
	timeout := a.Config.App.ShutdownTimeout()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Logger.Info("starting graceful shutdown", zap.Duration("timeout", timeout))

	var errs []error

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("failed to shutdown servers", zap.Error(err))
		errs = append(errs, err)
	}

	if a.Container != nil {
		a.Logger.Info("closing container resources...")
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	a.Logger.Info("application shutdown complete")
	syncLogger(a.Logger)

	return errors.Join(errs...)
}

// Migrate brings the schema up to date without starting the server.
func Migrate(ctx context.Context, configPath string) error {
	cfg, l, err := Bootstrap(configPath)
	if err != nil {
		return err
	}
	defer syncLogger(l)

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = infrastructure.CloseDatabase(db) }()

	return infrastructure.MigrateDatabase(db, l)
}

// syncLogger flushes buffered entries. Syncing a terminal fails with EINVAL,
// which is ignored.
func syncLogger(l *zap.Logger) {
	if err := l.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		l.Error("failed to sync logger", zap.Error(err))
	}
}
