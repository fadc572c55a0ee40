package cmd

import (
	"log/slog"

	"github.com/notabot/notabot/pkg/capabilities"
	"github.com/notabot/notabot/pkg/capabilities/desktop"
	"github.com/notabot/notabot/pkg/capabilities/dryrun"
)

// NewCapabilityProvider selects the action backend: the real desktop
// provider, or the logging dry-run provider when dryRun is set.
//
// nolint:ireturn // Callers program against the Provider interface.
func NewCapabilityProvider(dryRun bool, logger *slog.Logger) capabilities.Provider {
	if dryRun {
		return dryrun.NewProvider(logger)
	}

	return desktop.NewProvider(logger)
}
