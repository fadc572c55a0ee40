// Package registry maps source type names to their factories.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/notabot/notabot/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	sourceFactories map[string]protocol.SourceFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		sourceFactories: make(map[string]protocol.SourceFactory),
	}
}

// RegisterSource adds a factory, keyed by its ID. Registering the same ID
// twice replaces the earlier factory.
func (r *Registry) RegisterSource(factory protocol.SourceFactory) {
	r.sourceFactories[factory.ID()] = factory
}

// CreateSource instantiates a source of the given type from its raw config
// block. Unknown types and factory validation failures are configuration
// errors: the caller treats them as fatal at startup.
func (r *Registry) CreateSource(sourceType string, config map[string]any) (protocol.Source, error) {
	factory, ok := r.sourceFactories[sourceType]
	if !ok {
		return nil, fmt.Errorf("source type '%s' not registered", sourceType)
	}

	return factory.Create(config, r.logger)
}

// SourceFactory returns the factory for a type, if registered.
func (r *Registry) SourceFactory(sourceType string) (protocol.SourceFactory, bool) {
	factory, ok := r.sourceFactories[sourceType]

	return factory, ok
}

// SourceIDs returns the registered type names, sorted for stable output.
func (r *Registry) SourceIDs() []string {
	ids := make([]string, 0, len(r.sourceFactories))
	for id := range r.sourceFactories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
