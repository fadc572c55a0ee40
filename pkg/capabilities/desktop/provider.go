// Package desktop implements the capability provider that drives the real
// mouse and keyboard through robotgo.
package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/notabot/notabot/pkg/models"
)

// namedKeys are tokens SendKeys taps instead of typing. The names follow
// robotgo's key map.
var namedKeys = map[string]bool{
	"enter": true, "return": true, "tab": true, "space": true,
	"backspace": true, "delete": true, "insert": true,
	"escape": true, "esc": true,
	"up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "pageup": true, "pagedown": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true, "f6": true,
	"f7": true, "f8": true, "f9": true, "f10": true, "f11": true, "f12": true,
}

type Provider struct {
	logger *slog.Logger
}

func NewProvider(logger *slog.Logger) *Provider {
	return &Provider{logger: logger.With("module", "desktop")}
}

func (p *Provider) MoveTo(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debug("Moving pointer", "x", x, "y", y)
	robotgo.Move(x, y)

	return nil
}

func (p *Provider) Click(ctx context.Context, button models.MouseButton, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if count < 1 {
		count = 1
	}

	name := buttonName(button)
	p.logger.Debug("Clicking", "button", name, "count", count)

	for range count {
		robotgo.Click(name, false)
	}

	return nil
}

func (p *Provider) Scroll(ctx context.Context, deltaX, deltaY int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debug("Scrolling", "delta_x", deltaX, "delta_y", deltaY)
	// robotgo treats positive vertical scroll as up; the action contract
	// is positive-down.
	robotgo.Scroll(deltaX, -deltaY)

	return nil
}

// SendKeys taps a chord ("ctrl+shift+t"), a named key ("enter") or a
// single character; anything else is typed as literal text.
func (p *Provider) SendKeys(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debug("Sending keys", "text", text)

	if key, mods, ok := parseChord(text); ok {
		err := robotgo.KeyTap(key, mods...)
		if err != nil {
			return fmt.Errorf("key tap %q failed: %w", text, err)
		}

		return nil
	}

	token := strings.ToLower(text)
	if len(text) == 1 || namedKeys[token] {
		err := robotgo.KeyTap(token)
		if err != nil {
			return fmt.Errorf("key tap %q failed: %w", text, err)
		}

		return nil
	}

	robotgo.TypeStr(text)

	return nil
}

func (p *Provider) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debug("Typing text", "length", len(text))
	robotgo.TypeStr(text)

	return nil
}

func (p *Provider) Sleep(ctx context.Context, ms int64) error {
	if ms <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FocusWindow activates the first process whose name contains the
// substring, case-insensitively.
func (p *Provider) FocusWindow(ctx context.Context, titleContains string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	processes, err := robotgo.Process()
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}

	needle := strings.ToLower(titleContains)

	for _, proc := range processes {
		if !strings.Contains(strings.ToLower(proc.Name), needle) {
			continue
		}

		err := robotgo.ActivePid(proc.Pid)
		if err != nil {
			return false, fmt.Errorf("failed to activate %q (pid %d): %w", proc.Name, proc.Pid, err)
		}

		p.logger.Debug("Focused window", "process", proc.Name, "pid", proc.Pid)

		return true, nil
	}

	return false, nil
}

// OcrCheck is not implemented for the desktop provider yet; it reports
// false so workflows can branch on the miss.
func (p *Provider) OcrCheck(ctx context.Context, region *models.Rect, mustContain string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p.logger.Warn("ocr_check not implemented, reporting no match",
		"region", region, "must_contain", mustContain)

	return false, nil
}

// CaptureScreen is not implemented for the desktop provider yet.
func (p *Provider) CaptureScreen(ctx context.Context, path string, region *models.Rect) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Warn("capture_screen not implemented, skipping",
		"path", path, "region", region)

	return nil
}

func buttonName(button models.MouseButton) string {
	switch button {
	case models.ButtonMiddle:
		return "center"
	case models.ButtonRight:
		return "right"
	case models.ButtonLeft:
		return "left"
	}

	return "left"
}

// parseChord splits "ctrl+shift+t" into a key and its modifiers. Returns
// ok=false for text without modifiers, including a bare "+".
func parseChord(text string) (string, []any, bool) {
	if !strings.Contains(text, "+") || len(text) == 1 {
		return "", nil, false
	}

	parts := strings.Split(text, "+")
	if len(parts) < 2 {
		return "", nil, false
	}

	for _, part := range parts {
		if part == "" {
			return "", nil, false
		}
	}

	key := strings.ToLower(parts[len(parts)-1])
	mods := make([]any, 0, len(parts)-1)

	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(mod) {
		case "command", "cmd", "super":
			mods = append(mods, "command")
		case "control", "ctrl":
			mods = append(mods, "control")
		case "alt", "option":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		default:
			mods = append(mods, strings.ToLower(mod))
		}
	}

	return key, mods, true
}
