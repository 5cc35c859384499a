package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"AssignmentBoard/internal/config"
	"AssignmentBoard/internal/infrastructure/backend"
	"AssignmentBoard/internal/infrastructure/httpapi"
	"AssignmentBoard/internal/infrastructure/scheduler"
	"AssignmentBoard/internal/infrastructure/telegram"
	"AssignmentBoard/internal/logging"
	"AssignmentBoard/internal/ports"
	"AssignmentBoard/internal/source"
	"AssignmentBoard/internal/usecase"
)

const stopGrace = 5 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	catalog  *usecase.Catalog
	reminder *usecase.Reminder
	closers  []io.Closer
}

// New builds the backend adapters, the fallback chain and the use cases.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry := source.NewRegistry()
	backend.Register(registry, nil, baseLogger)

	a := &Application{cfg: cfg, logger: baseLogger}

	primary, err := a.buildSource(registry, cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("primary backend: %w", err)
	}

	var src ports.AssignmentSource = primary
	if cfg.Fallback.Enabled() {
		secondary, err := a.buildSource(registry, cfg.Fallback)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("fallback backend: %w", err)
		}
		src = backend.NewFallbackSource(primary, secondary, baseLogger.With("component", "fallback"))
	}

	a.catalog = usecase.NewCatalog(src, baseLogger.With("component", "catalog"))

	if notifier := telegram.FromConfig(cfg.Notifications.Telegram); notifier != nil {
		a.reminder = usecase.NewReminder(a.catalog, notifier, baseLogger.With("component", "reminder"))
	}

	return a, nil
}

func (a *Application) buildSource(registry *source.Registry, bc config.BackendConfig) (*backend.CourseSource, error) {
	adapter, err := registry.Build(source.Settings{
		Flavor:  bc.Flavor,
		BaseURL: bc.URL,
		Token:   bc.Token,
		Timeout: bc.TimeoutDuration(),
		Options: bc.Options,
	})
	if err != nil {
		return nil, err
	}
	if closer, ok := adapter.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}
	return backend.NewCourseSource(adapter, a.cfg.Catalog.Concurrency, a.logger.With("component", "source."+bc.Flavor)), nil
}

// Catalog exposes the read side for one-shot commands.
func (a *Application) Catalog() *usecase.Catalog {
	return a.catalog
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Serve runs the JSON read API next to a periodic refresh until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		AssignmentHandler: httpapi.NewAssignmentHandler(a.logger.With("component", "httpapi"), a.catalog),
		Logger:            a.logger.With("component", "httpapi"),
	})
	server := httpapi.NewServer(a.cfg.HTTP.Addr, router, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runScheduler(gctx, nil)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	return g.Wait()
}

// Watch refreshes on the configured interval and publishes reminders until ctx is done.
func (a *Application) Watch(ctx context.Context) error {
	if a.reminder == nil {
		a.logger.Warn("telegram is not configured, reminders are disabled")
	}
	return a.runScheduler(ctx, a.reminder)
}

func (a *Application) runScheduler(ctx context.Context, reminder *usecase.Reminder) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.IntervalDuration(), a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.catalog, reminder, a.logger.With("component", "scheduler"))

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.IntervalDuration())

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopGrace)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases backend resources such as database handles.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
