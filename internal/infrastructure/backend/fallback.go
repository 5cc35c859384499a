package backend

import (
	"context"
	"errors"
	"log/slog"

	"AssignmentBoard/internal/ports"
)

// FallbackSource picks the data source once per load cycle: the primary
// unless it fails or comes back empty.
type FallbackSource struct {
	primary   ports.AssignmentSource
	secondary ports.AssignmentSource
	logger    *slog.Logger
}

var _ ports.AssignmentSource = (*FallbackSource)(nil)

// NewFallbackSource wires both sources; a nil secondary disables the fallback.
func NewFallbackSource(primary, secondary ports.AssignmentSource, log *slog.Logger) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary, logger: log}
}

// Collect returns the primary's collection when it has records, otherwise
// the secondary's. It fails only when both sources fail.
func (f *FallbackSource) Collect(ctx context.Context) (ports.Collection, error) {
	col, err := f.primary.Collect(ctx)
	if err == nil && len(col.Records()) > 0 {
		return col, nil
	}
	if f.secondary == nil || ctx.Err() != nil {
		return col, err
	}

	if err != nil {
		f.log(slog.LevelWarn, "primary backend failed, using fallback", "backend", col.Backend, "error", err)
	} else {
		f.log(slog.LevelInfo, "primary backend returned no assignments, using fallback", "backend", col.Backend)
	}

	fb, fbErr := f.secondary.Collect(ctx)
	if fbErr != nil {
		if err != nil {
			return fb, errors.Join(err, fbErr)
		}
		f.log(slog.LevelWarn, "fallback backend failed", "backend", fb.Backend, "error", fbErr)
		return col, nil
	}
	return fb, nil
}

func (f *FallbackSource) log(level slog.Level, msg string, args ...any) {
	if f.logger != nil {
		f.logger.Log(context.Background(), level, msg, args...)
	}
}
