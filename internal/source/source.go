package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"AssignmentBoard/internal/domain"
)

// Adapter turns one backend's raw shape into normalized records. An empty
// slice is the not-found signal; errors are reserved for transport failures.
type Adapter interface {
	Name() string
	ListCourses(ctx context.Context) ([]domain.CourseRecord, error)
	ListAssignments(ctx context.Context, courseID string) ([]domain.AssignmentRecord, error)
}

// Factory builds an adapter for a configured backend.
type Factory func(cfg Settings) (Adapter, error)

// Settings carries backend-independent connection parameters.
type Settings struct {
	Flavor  string
	BaseURL string
	Token   string
	Timeout time.Duration
	Options map[string]string
}

// Option returns a backend-specific option or def when unset.
func (s Settings) Option(key, def string) string {
	if v, ok := s.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Registry keeps a mapping from backend flavors to adapter factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for a flavor.
func (r *Registry) Register(flavor string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[flavor] = factory
}

// Flavors lists registered flavor names in sorted order.
func (r *Registry) Flavors() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves the flavor and constructs its adapter.
func (r *Registry) Build(cfg Settings) (Adapter, error) {
	factory, ok := r.factories[cfg.Flavor]
	if !ok {
		return nil, fmt.Errorf("backend %q: %w", cfg.Flavor, domain.ErrUnknownBackend)
	}
	adapter, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("build backend %s: %w", cfg.Flavor, err)
	}
	return adapter, nil
}
