package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/ports"
	"AssignmentBoard/internal/source"
)

// CourseSource implements AssignmentSource by listing courses and querying
// each course's assignments concurrently.
type CourseSource struct {
	adapter     source.Adapter
	concurrency int
	logger      *slog.Logger
}

var _ ports.AssignmentSource = (*CourseSource)(nil)

// NewCourseSource wires an adapter; concurrency below 1 means one query at a time.
func NewCourseSource(adapter source.Adapter, concurrency int, log *slog.Logger) *CourseSource {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CourseSource{
		adapter:     adapter,
		concurrency: concurrency,
		logger:      log,
	}
}

// Collect gathers one batch per course. A failing course is logged and
// skipped; only a failing course listing aborts the cycle. Batches keep course
// order, whatever order the queries finish in.
func (s *CourseSource) Collect(ctx context.Context) (ports.Collection, error) {
	if s.adapter == nil {
		return ports.Collection{}, fmt.Errorf("backend adapter is not configured")
	}

	col := ports.Collection{Backend: s.adapter.Name()}

	courses, err := s.adapter.ListCourses(ctx)
	if err != nil {
		return col, fmt.Errorf("list courses: %w", err)
	}
	col.Courses = courses
	s.debug("collect", "backend", col.Backend, "courses", len(courses))

	if len(courses) == 0 {
		records, err := s.adapter.ListAssignments(ctx, "")
		if err != nil {
			return col, fmt.Errorf("list assignments: %w", err)
		}
		col.Batches = [][]domain.AssignmentRecord{records}
		return col, nil
	}

	batches := make([][]domain.AssignmentRecord, len(courses))
	var failures atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, course := range courses {
		g.Go(func() error {
			records, err := s.adapter.ListAssignments(gctx, course.ID)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures.Add(1)
				s.warn("course skipped", "backend", col.Backend, "course", course.ID, "error", err)
				return nil
			}
			batches[i] = withCourse(records, course)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return col, err
	}

	col.Batches = batches
	col.Failures = int(failures.Load())
	s.debug("collect done", "backend", col.Backend, "records", len(col.Records()), "failures", col.Failures)
	return col, nil
}

// withCourse fills course metadata the backend left out of its records.
func withCourse(records []domain.AssignmentRecord, course domain.CourseRecord) []domain.AssignmentRecord {
	for i := range records {
		rec := &records[i]
		if rec.CourseID == "" {
			rec.CourseID = course.ID
		}
		if rec.CourseCode == "" {
			rec.CourseCode = course.Code
		}
		if rec.CourseName == "" {
			rec.CourseName = course.Name
		}
		if rec.IntakeLabel == "" {
			rec.IntakeLabel = course.IntakeLabel
		}
		if rec.IntakeOrder == 0 {
			rec.IntakeOrder = course.IntakeOrder
		}
	}
	return records
}

func (s *CourseSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *CourseSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
