// Package dryrun provides a capability provider that logs every effect
// instead of executing it. Used for rehearsing workflows against live
// event traffic without touching the desktop.
package dryrun

import (
	"context"
	"log/slog"

	"github.com/notabot/notabot/pkg/models"
)

type Provider struct {
	logger *slog.Logger
}

func NewProvider(logger *slog.Logger) *Provider {
	return &Provider{logger: logger.With("module", "dryrun")}
}

func (p *Provider) MoveTo(_ context.Context, x, y int) error {
	p.logger.Info("DRY-RUN mouse_move", "x", x, "y", y)

	return nil
}

func (p *Provider) Click(_ context.Context, button models.MouseButton, count int) error {
	if count < 1 {
		count = 1
	}

	p.logger.Info("DRY-RUN mouse_click", "button", string(button), "count", count)

	return nil
}

func (p *Provider) Scroll(_ context.Context, deltaX, deltaY int) error {
	p.logger.Info("DRY-RUN mouse_scroll", "delta_x", deltaX, "delta_y", deltaY)

	return nil
}

func (p *Provider) SendKeys(_ context.Context, text string) error {
	p.logger.Info("DRY-RUN key_seq", "text", text)

	return nil
}

func (p *Provider) TypeText(_ context.Context, text string) error {
	p.logger.Info("DRY-RUN type_text", "text", text)

	return nil
}

// Sleep logs the requested pause and returns immediately, so dry runs
// replay workflows at full speed.
func (p *Provider) Sleep(_ context.Context, ms int64) error {
	p.logger.Info("DRY-RUN sleep", "ms", ms)

	return nil
}

// FocusWindow reports false, surfacing the same no-matching-window
// warning a desktop without the window would produce.
func (p *Provider) FocusWindow(_ context.Context, titleContains string) (bool, error) {
	p.logger.Info("DRY-RUN focus_window", "title_contains", titleContains)

	return false, nil
}

// OcrCheck reports true, letting dry runs proceed past guard checks.
func (p *Provider) OcrCheck(_ context.Context, region *models.Rect, mustContain string) (bool, error) {
	p.logger.Info("DRY-RUN ocr_check", "region", region, "must_contain", mustContain)

	return true, nil
}

func (p *Provider) CaptureScreen(_ context.Context, path string, region *models.Rect) error {
	p.logger.Info("DRY-RUN capture_screen", "path", path, "region", region)

	return nil
}
