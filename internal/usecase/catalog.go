package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/ports"
	"AssignmentBoard/internal/reconcile"
)

// Snapshot is the reconciled state of one load cycle.
type Snapshot struct {
	Backend  string
	Courses  []domain.CourseRecord
	Records  []domain.AssignmentRecord
	Failures int
	LoadedAt time.Time
}

// Catalog loads assignments from the configured source, reconciles them and
// serves read queries from the latest snapshot.
type Catalog struct {
	source ports.AssignmentSource
	logger *slog.Logger
	now    func() time.Time

	flight   singleflight.Group
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewCatalog constructs the catalog use case.
func NewCatalog(source ports.AssignmentSource, logger *slog.Logger) *Catalog {
	return &Catalog{source: source, logger: logger, now: time.Now}
}

// Refresh runs one load cycle and replaces the snapshot. On failure the
// previous snapshot is kept. Concurrent callers share one load cycle.
func (c *Catalog) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, _ := c.flight.Do("refresh", func() (any, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (c *Catalog) refresh(ctx context.Context) (Snapshot, error) {
	if c.source == nil {
		return Snapshot{}, fmt.Errorf("assignment source is not configured")
	}

	col, err := c.source.Collect(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("collect assignments: %w", err)
	}

	merger := reconcile.NewMerger()
	for _, batch := range col.Batches {
		merger.Add(batch...)
	}
	records := merger.Records()

	courses := col.Courses
	if len(courses) == 0 {
		courses = coursesOf(records)
	}

	snap := Snapshot{
		Backend:  col.Backend,
		Courses:  courses,
		Records:  records,
		Failures: col.Failures,
		LoadedAt: c.now(),
	}

	c.mu.Lock()
	c.snapshot = &snap
	c.mu.Unlock()

	c.info("catalog refreshed",
		"backend", snap.Backend,
		"courses", len(snap.Courses),
		"assignments", len(snap.Records),
		"failures", snap.Failures)
	return snap, nil
}

// Snapshot returns the latest snapshot, loading one when none exists yet.
func (c *Catalog) Snapshot(ctx context.Context) (Snapshot, error) {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	if snap != nil {
		return *snap, nil
	}
	return c.Refresh(ctx)
}

// List filters the snapshot and returns the grouped view.
func (c *Catalog) List(ctx context.Context, q reconcile.Query) ([]domain.Group, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile.Group(reconcile.Filter(snap.Records, q)), nil
}

// Get returns a single reconciled assignment.
func (c *Catalog) Get(ctx context.Context, courseID, id string) (domain.AssignmentRecord, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return domain.AssignmentRecord{}, err
	}
	return reconcile.Find(snap.Records, courseID, id)
}

// Courses lists the courses of the latest snapshot.
func (c *Catalog) Courses(ctx context.Context) ([]domain.CourseRecord, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Courses, nil
}

// Simulate returns the assignment as it would look after moving to status.
// The snapshot is left untouched.
func (c *Catalog) Simulate(ctx context.Context, courseID, id string, status domain.Status) (domain.AssignmentRecord, error) {
	rec, err := c.Get(ctx, courseID, id)
	if err != nil {
		return domain.AssignmentRecord{}, err
	}
	return domain.Advance(rec, status, c.now()), nil
}

// coursesOf derives course entries from records, in first-seen order.
func coursesOf(records []domain.AssignmentRecord) []domain.CourseRecord {
	seen := map[string]bool{}
	var courses []domain.CourseRecord
	for _, rec := range records {
		if seen[rec.CourseID] {
			continue
		}
		seen[rec.CourseID] = true
		courses = append(courses, domain.CourseRecord{
			ID:          rec.CourseID,
			Code:        rec.CourseCode,
			Name:        rec.CourseName,
			IntakeLabel: rec.IntakeLabel,
			IntakeOrder: rec.IntakeOrder,
		})
	}
	return courses
}

func (c *Catalog) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
