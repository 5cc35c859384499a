package ports

import (
	"context"
	"time"

	"AssignmentBoard/internal/domain"
)

// AssignmentSource yields every assignment observation of one load cycle.
type AssignmentSource interface {
	Collect(ctx context.Context) (Collection, error)
}

// Collection is the raw output of one load cycle, before reconciliation.
type Collection struct {
	Backend  string
	Courses  []domain.CourseRecord
	Batches  [][]domain.AssignmentRecord
	Failures int
}

// Records flattens the batches in their collection order.
func (c Collection) Records() []domain.AssignmentRecord {
	var out []domain.AssignmentRecord
	for _, batch := range c.Batches {
		out = append(out, batch...)
	}
	return out
}

// Notifier streams reminder digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
