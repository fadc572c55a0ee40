// Package capabilities defines the effect surface workflows execute
// against: pointer and keyboard input, pauses, window focus and screen
// inspection. The runtime interprets action trees and delegates every
// side effect to a Provider, so swapping the provider swaps the whole
// effect layer (real desktop input vs. dry-run logging).
package capabilities

import (
	"context"

	"github.com/notabot/notabot/pkg/models"
)

// Provider executes the leaf effects of a workflow. Implementations must
// be safe for sequential reuse across runs; the runtime never calls a
// provider concurrently.
type Provider interface {
	// MoveTo moves the pointer to absolute screen coordinates.
	MoveTo(ctx context.Context, x, y int) error

	// Click presses a mouse button count times. A count below one means
	// a single click.
	Click(ctx context.Context, button models.MouseButton, count int) error

	// Scroll turns the wheel. Positive deltas scroll down and right.
	Scroll(ctx context.Context, deltaX, deltaY int) error

	// SendKeys sends a key sequence, understanding chord syntax such as
	// "ctrl+shift+t" and named keys such as "enter".
	SendKeys(ctx context.Context, text string) error

	// TypeText types literal unicode text.
	TypeText(ctx context.Context, text string) error

	// Sleep pauses for the given number of milliseconds, returning early
	// with the context error if ctx is cancelled.
	Sleep(ctx context.Context, ms int64) error

	// FocusWindow brings a window whose title contains the substring to
	// the foreground. It reports whether a window was focused; not
	// finding one is not an error.
	FocusWindow(ctx context.Context, titleContains string) (bool, error)

	// OcrCheck scans a screen region (full screen when nil) and reports
	// whether the recognized text contains mustContain.
	OcrCheck(ctx context.Context, region *models.Rect, mustContain string) (bool, error)

	// CaptureScreen writes a screenshot of the region (full screen when
	// nil) to path.
	CaptureScreen(ctx context.Context, path string, region *models.Rect) error
}
