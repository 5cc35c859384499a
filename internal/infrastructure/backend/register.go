package backend

import (
	"log/slog"
	"net/http"

	"AssignmentBoard/internal/source"
)

// Register adds every built-in adapter flavor to the registry. A nil client
// lets each adapter build its own with the configured timeout.
func Register(reg *source.Registry, client *http.Client, logger *slog.Logger) {
	reg.Register(FlavorNBGrader, func(cfg source.Settings) (source.Adapter, error) {
		return NewNBGrader(cfg, client, componentLogger(logger, FlavorNBGrader)), nil
	})
	reg.Register(FlavorREST, func(cfg source.Settings) (source.Adapter, error) {
		return NewREST(cfg, client, componentLogger(logger, FlavorREST)), nil
	})
	reg.Register(FlavorContents, func(cfg source.Settings) (source.Adapter, error) {
		return NewContents(cfg, client, componentLogger(logger, FlavorContents)), nil
	})
	reg.Register(FlavorGradebook, func(cfg source.Settings) (source.Adapter, error) {
		return OpenGradebook(cfg, componentLogger(logger, FlavorGradebook))
	})
}

func componentLogger(logger *slog.Logger, flavor string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With("component", "backend."+flavor)
}
