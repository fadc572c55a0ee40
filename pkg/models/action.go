// Package models defines the action tree executed by the runtime and the
// configuration aggregate it is loaded from. Actions form a closed set:
// the decoder, the loader's reference walk and the runtime's dispatch all
// switch exhaustively over the same kinds.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action kinds as they appear in the JSON "type" discriminator.
const (
	KindSequence      = "sequence"
	KindRef           = "ref"
	KindMouseMove     = "mouse_move"
	KindMouseClick    = "mouse_click"
	KindMouseScroll   = "mouse_scroll"
	KindKeySeq        = "key_seq"
	KindTypeText      = "type_text"
	KindSleepMs       = "sleep_ms"
	KindSleepRandMs   = "sleep_rand_ms"
	KindFocusWindow   = "focus_window"
	KindSetVar        = "set_var"
	KindConditional   = "conditional"
	KindLog           = "log"
	KindOcrCheck      = "ocr_check"
	KindCaptureScreen = "capture_screen"
)

var (
	ErrMissingActionType = errors.New("action is missing string field 'type'")
	ErrUnknownActionType = errors.New("unknown action type")
)

// Action is one node in the executable tree: a leaf effect, a sequence, a
// reference to a named action, or a conditional. String-bearing fields are
// interpolated at execution time, never at parse time.
type Action interface {
	// Kind returns the JSON discriminator for this action.
	Kind() string

	isAction()
}

// MouseButton selects which mouse button a click action presses.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonMiddle MouseButton = "middle"
	ButtonRight  MouseButton = "right"
)

// Valid reports whether the button is one of the known values.
func (b MouseButton) Valid() bool {
	switch b {
	case ButtonLeft, ButtonMiddle, ButtonRight:
		return true
	}

	return false
}

// LogLevel is the severity of a workflow log action.
type LogLevel string

const (
	LevelTrace LogLevel = "trace"
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}

	return false
}

// Rect is a screen region in pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Sequence executes its steps in order, aborting on the first failure.
type Sequence struct {
	Steps []Action `json:"steps"`
}

// Ref executes a named action from the actions table.
type Ref struct {
	Name string `json:"name"`
}

// MouseMove moves the pointer to absolute screen coordinates.
type MouseMove struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MouseClick presses a mouse button Count times (zero means once).
type MouseClick struct {
	Button MouseButton `json:"button"`
	Count  int         `json:"count,omitempty"`
}

// MouseScroll scrolls the wheel; positive deltas scroll down/right.
type MouseScroll struct {
	DeltaX int `json:"delta_x,omitempty"`
	DeltaY int `json:"delta_y,omitempty"`
}

// KeySeq sends a raw key sequence, including special-key syntax such as
// "{ENTER}". The text is interpolated before dispatch.
type KeySeq struct {
	Text string `json:"text"`
}

// TypeText types literal (unicode) text.
type TypeText struct {
	Text string `json:"text"`
}

// SleepMs pauses the run for a fixed number of milliseconds.
type SleepMs struct {
	Ms int64 `json:"ms"`
}

// SleepRandMs pauses for a random duration within [min, max] milliseconds.
// Reversed bounds are swapped at execution time.
type SleepRandMs struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// FocusWindow tries to focus a window whose title contains the substring.
type FocusWindow struct {
	TitleContains string `json:"title_contains"`
}

// SetVar inserts or overwrites a run-scoped variable. Both name and value
// are interpolated first.
type SetVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Conditional compares the interpolated When and Equals strings for exact
// equality, executing Then on a match and Else (when present) otherwise.
type Conditional struct {
	When   string `json:"when"`
	Equals string `json:"equals"`
	Then   Action `json:"then"`
	Else   Action `json:"else,omitempty"`
}

// Log emits a message through the run's logger at the given level.
type Log struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

// OcrCheck scans a screen region (full screen when nil) for text.
type OcrCheck struct {
	Region      *Rect  `json:"region,omitempty"`
	MustContain string `json:"must_contain"`
}

// CaptureScreen writes a screenshot of the region (full screen when nil).
type CaptureScreen struct {
	Path   string `json:"path"`
	Region *Rect  `json:"region,omitempty"`
}

func (*Sequence) Kind() string      { return KindSequence }
func (*Ref) Kind() string           { return KindRef }
func (*MouseMove) Kind() string     { return KindMouseMove }
func (*MouseClick) Kind() string    { return KindMouseClick }
func (*MouseScroll) Kind() string   { return KindMouseScroll }
func (*KeySeq) Kind() string        { return KindKeySeq }
func (*TypeText) Kind() string      { return KindTypeText }
func (*SleepMs) Kind() string       { return KindSleepMs }
func (*SleepRandMs) Kind() string   { return KindSleepRandMs }
func (*FocusWindow) Kind() string   { return KindFocusWindow }
func (*SetVar) Kind() string        { return KindSetVar }
func (*Conditional) Kind() string   { return KindConditional }
func (*Log) Kind() string           { return KindLog }
func (*OcrCheck) Kind() string      { return KindOcrCheck }
func (*CaptureScreen) Kind() string { return KindCaptureScreen }

func (*Sequence) isAction()      {}
func (*Ref) isAction()           {}
func (*MouseMove) isAction()     {}
func (*MouseClick) isAction()    {}
func (*MouseScroll) isAction()   {}
func (*KeySeq) isAction()        {}
func (*TypeText) isAction()      {}
func (*SleepMs) isAction()       {}
func (*SleepRandMs) isAction()   {}
func (*FocusWindow) isAction()   {}
func (*SetVar) isAction()        {}
func (*Conditional) isAction()   {}
func (*Log) isAction()           {}
func (*OcrCheck) isAction()      {}
func (*CaptureScreen) isAction() {}

// UnmarshalAction decodes one action from its tagged JSON form.
func UnmarshalAction(data []byte) (Action, error) {
	var probe struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}

	if probe.Type == "" {
		return nil, ErrMissingActionType
	}

	var action Action

	switch probe.Type {
	case KindSequence:
		action = &Sequence{}
	case KindRef:
		action = &Ref{}
	case KindMouseMove:
		action = &MouseMove{}
	case KindMouseClick:
		action = &MouseClick{}
	case KindMouseScroll:
		action = &MouseScroll{}
	case KindKeySeq:
		action = &KeySeq{}
	case KindTypeText:
		action = &TypeText{}
	case KindSleepMs:
		action = &SleepMs{}
	case KindSleepRandMs:
		action = &SleepRandMs{}
	case KindFocusWindow:
		action = &FocusWindow{}
	case KindSetVar:
		action = &SetVar{}
	case KindConditional:
		action = &Conditional{}
	case KindLog:
		action = &Log{}
	case KindOcrCheck:
		action = &OcrCheck{}
	case KindCaptureScreen:
		action = &CaptureScreen{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, probe.Type)
	}

	if err := json.Unmarshal(data, action); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", probe.Type, err)
	}

	return action, nil
}

func (s *Sequence) UnmarshalJSON(data []byte) error {
	var raw struct {
		Steps []json.RawMessage `json:"steps"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Steps = make([]Action, 0, len(raw.Steps))

	for i, stepData := range raw.Steps {
		step, err := UnmarshalAction(stepData)
		if err != nil {
			return fmt.Errorf("sequence step %d: %w", i, err)
		}

		s.Steps = append(s.Steps, step)
	}

	return nil
}

func (c *Conditional) UnmarshalJSON(data []byte) error {
	var raw struct {
		When   string          `json:"when"`
		Equals string          `json:"equals"`
		Then   json.RawMessage `json:"then"`
		Else   json.RawMessage `json:"else"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.When = raw.When
	c.Equals = raw.Equals

	if len(raw.Then) == 0 {
		return errors.New("conditional is missing 'then' action")
	}

	then, err := UnmarshalAction(raw.Then)
	if err != nil {
		return fmt.Errorf("conditional 'then' branch: %w", err)
	}

	c.Then = then

	if len(raw.Else) > 0 {
		elseAction, err := UnmarshalAction(raw.Else)
		if err != nil {
			return fmt.Errorf("conditional 'else' branch: %w", err)
		}

		c.Else = elseAction
	}

	return nil
}

// tagged wraps a payload with the "type" discriminator for encoding.
func tagged(kind string, payload any) ([]byte, error) {
	fields, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	typeField, err := json.Marshal(map[string]string{"type": kind})
	if err != nil {
		return nil, err
	}

	if len(fields) == 2 { // "{}"
		return typeField, nil
	}

	// Splice `"type":"<kind>",` into the payload object.
	out := make([]byte, 0, len(typeField)+len(fields))
	out = append(out, typeField[:len(typeField)-1]...)
	out = append(out, ',')
	out = append(out, fields[1:]...)

	return out, nil
}

func (s *Sequence) MarshalJSON() ([]byte, error) {
	type plain Sequence

	return tagged(KindSequence, (*plain)(s))
}

func (r *Ref) MarshalJSON() ([]byte, error) {
	type plain Ref

	return tagged(KindRef, (*plain)(r))
}

func (m *MouseMove) MarshalJSON() ([]byte, error) {
	type plain MouseMove

	return tagged(KindMouseMove, (*plain)(m))
}

func (m *MouseClick) MarshalJSON() ([]byte, error) {
	type plain MouseClick

	return tagged(KindMouseClick, (*plain)(m))
}

func (m *MouseScroll) MarshalJSON() ([]byte, error) {
	type plain MouseScroll

	return tagged(KindMouseScroll, (*plain)(m))
}

func (k *KeySeq) MarshalJSON() ([]byte, error) {
	type plain KeySeq

	return tagged(KindKeySeq, (*plain)(k))
}

func (t *TypeText) MarshalJSON() ([]byte, error) {
	type plain TypeText

	return tagged(KindTypeText, (*plain)(t))
}

func (s *SleepMs) MarshalJSON() ([]byte, error) {
	type plain SleepMs

	return tagged(KindSleepMs, (*plain)(s))
}

func (s *SleepRandMs) MarshalJSON() ([]byte, error) {
	type plain SleepRandMs

	return tagged(KindSleepRandMs, (*plain)(s))
}

func (f *FocusWindow) MarshalJSON() ([]byte, error) {
	type plain FocusWindow

	return tagged(KindFocusWindow, (*plain)(f))
}

func (s *SetVar) MarshalJSON() ([]byte, error) {
	type plain SetVar

	return tagged(KindSetVar, (*plain)(s))
}

func (c *Conditional) MarshalJSON() ([]byte, error) {
	type plain Conditional

	return tagged(KindConditional, (*plain)(c))
}

func (l *Log) MarshalJSON() ([]byte, error) {
	type plain Log

	return tagged(KindLog, (*plain)(l))
}

func (o *OcrCheck) MarshalJSON() ([]byte, error) {
	type plain OcrCheck

	return tagged(KindOcrCheck, (*plain)(o))
}

func (c *CaptureScreen) MarshalJSON() ([]byte, error) {
	type plain CaptureScreen

	return tagged(KindCaptureScreen, (*plain)(c))
}
