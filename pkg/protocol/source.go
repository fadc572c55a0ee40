// Package protocol defines the contracts between the event sources, the
// source manager and the dispatcher.
package protocol

import (
	"context"
	"log/slog"
)

// EventCallback is called when a source emits a decoded JSON event. The
// callback publishes the event to the shared queue and blocks while the
// queue is full (backpressure). A returned eventbus.ErrClosed means the
// consumer side is gone and the source should stop producing.
type EventCallback func(ctx context.Context, payload any) error

// Source is a running event source instance. Sources are long-running
// producers that translate an external medium (file, directory, socket,
// broker, timer) into JSON events.
type Source interface {
	// Start begins producing events, invoking callback for each one.
	// Start must not block: it spawns the source's goroutines and
	// returns. A non-nil error means the source could not acquire its
	// resources (e.g. a failed bind) and is not running.
	Start(ctx context.Context, callback EventCallback) error

	// Stop shuts the source down and blocks until its goroutines have
	// joined (bounded by ctx).
	Stop(ctx context.Context) error

	// Validate checks the source's configuration without starting it.
	Validate() error
}

// SourceFactory creates Source instances from raw configuration. One
// factory is registered per source type.
type SourceFactory interface {
	// Create instantiates a new Source with the given configuration.
	// The config map contains the source-specific keys described by
	// Schema.
	Create(config map[string]any, logger *slog.Logger) (Source, error)

	// ID returns the source type discriminator used in the config's
	// sources list (e.g. "file", "tcp").
	ID() string

	// Name returns a human-readable name for this source type.
	Name() string

	// Description returns a short description of what this source does.
	Description() string

	// Schema returns a JSON Schema describing the configuration keys
	// this source accepts.
	Schema() map[string]any
}
