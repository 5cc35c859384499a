package usecase

import (
	"context"
	"log/slog"
	"time"

	"AssignmentBoard/internal/ports"
)

// Scheduler wires the interval driver with the catalog refresh and reminders.
type Scheduler struct {
	driver   ports.Scheduler
	catalog  *Catalog
	reminder *Reminder
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring refreshes. A nil
// reminder only refreshes.
func NewScheduler(driver ports.Scheduler, catalog *Catalog, reminder *Reminder, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, catalog: catalog, reminder: reminder, logger: logger}
}

// Start registers the refresh job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.catalog == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) {
		s.Tick(ctx, trigger)
	})
}

// Tick runs one refresh followed by the reminder.
func (s *Scheduler) Tick(ctx context.Context, trigger time.Time) {
	if _, err := s.catalog.Refresh(ctx); err != nil {
		s.warn("refresh failed", "trigger", trigger, "error", err)
		return
	}
	if s.reminder == nil {
		return
	}
	if err := s.reminder.Run(ctx); err != nil {
		s.warn("reminder failed", "trigger", trigger, "error", err)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
