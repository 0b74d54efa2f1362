// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package step

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the discriminator of a step record.
type Type string

const (
	TypeNote          Type = "note"
	TypeSleep         Type = "sleep"
	TypeADBShell      Type = "adb_shell"
	TypeADBInput      Type = "adb_input"
	TypeADBTap        Type = "adb_tap"
	TypeADBSwipe      Type = "adb_swipe"
	TypeADBKeyEvent   Type = "adb_keyevent"
	TypeAppLaunch     Type = "app_launch"
	TypeAutoglmPrompt Type = "autoglm_prompt"
	TypeApp           Type = "app"
)

// Default field values applied when a record omits them.
const (
	DefaultSleepMS         = 500
	DefaultSwipeDurationMS = 300
	DefaultLaunchAction    = "auto"
)

// Step is one declarative action. The concrete types below are the
// complete set of variants.
type Step interface {
	// StepType returns the record's discriminator.
	StepType() Type

	isStep()
}

// Note writes text to the log.
type Note struct {
	Text string `json:"text"`
}

// Sleep pauses for MS milliseconds.
type Sleep struct {
	MS int `json:"ms"`
}

// Shell runs a device shell command.
type Shell struct {
	Command string `json:"command"`
}

// Input types text on the device.
type Input struct {
	Text string `json:"text"`
}

// Tap taps the device screen.
type Tap struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Swipe swipes across the device screen.
type Swipe struct {
	X1         int `json:"x1"`
	Y1         int `json:"y1"`
	X2         int `json:"x2"`
	Y2         int `json:"y2"`
	DurationMS int `json:"duration_ms"`
}

// KeyEvent sends a key event.
type KeyEvent struct {
	Key string `json:"key"`
}

// AppLaunch starts an installed app.
type AppLaunch struct {
	Package  string `json:"package"`
	Activity string `json:"activity,omitempty"`
	Action   string `json:"action,omitempty"`
}

// Prompt sends a natural-language instruction to the agent.
type Prompt struct {
	Text string `json:"text"`
}

// App runs another stored app's steps in place.
type App struct {
	AppID string `json:"app_id"`
}

// Unknown preserves a step whose type this package does not know.
type Unknown struct {
	Type string `json:"type"`
}

func (Note) StepType() Type      { return TypeNote }
func (Sleep) StepType() Type     { return TypeSleep }
func (Shell) StepType() Type     { return TypeADBShell }
func (Input) StepType() Type     { return TypeADBInput }
func (Tap) StepType() Type       { return TypeADBTap }
func (Swipe) StepType() Type     { return TypeADBSwipe }
func (KeyEvent) StepType() Type  { return TypeADBKeyEvent }
func (AppLaunch) StepType() Type { return TypeAppLaunch }
func (Prompt) StepType() Type    { return TypeAutoglmPrompt }
func (App) StepType() Type       { return TypeApp }
func (u Unknown) StepType() Type { return Type(u.Type) }

func (Note) isStep()      {}
func (Sleep) isStep()     {}
func (Shell) isStep()     {}
func (Input) isStep()     {}
func (Tap) isStep()       {}
func (Swipe) isStep()     {}
func (KeyEvent) isStep()  {}
func (AppLaunch) isStep() {}
func (Prompt) isStep()    {}
func (App) isStep()       {}
func (Unknown) isStep()   {}

// Sequence is an ordered list of steps with a tagged JSON encoding.
type Sequence []Step

// UnmarshalJSON decodes a JSON array of step records.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("steps must be an array: %w", err)
	}

	steps := make(Sequence, 0, len(raws))
	for index, raw := range raws {
		decoded, err := Decode(raw)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		steps = append(steps, decoded)
	}
	*s = steps
	return nil
}

// MarshalJSON encodes each step with its "type" discriminator first.
func (s Sequence) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('[')
	for index, item := range s {
		if index > 0 {
			buffer.WriteByte(',')
		}
		encoded, err := Encode(item)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", index, err)
		}
		buffer.Write(encoded)
	}
	buffer.WriteByte(']')
	return buffer.Bytes(), nil
}

// Encode marshals one step as a flat object with a "type" field.
func Encode(item Step) ([]byte, error) {
	if unknown, ok := item.(Unknown); ok {
		return json.Marshal(unknown)
	}
	fields, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	typeField, err := json.Marshal(string(item.StepType()))
	if err != nil {
		return nil, err
	}
	if bytes.Equal(fields, []byte("{}")) {
		return []byte(`{"type":` + string(typeField) + `}`), nil
	}
	return append([]byte(`{"type":`+string(typeField)+`,`), fields[1:]...), nil
}

// Decode reads one step record. Only malformed JSON or a field of the
// wrong shape is an error; an unrecognized type becomes Unknown.
func Decode(data []byte) (Step, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decoding step: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding step: %w", err)
	}
	record := &fieldReader{fields: fields}

	var decoded Step
	switch Type(header.Type) {
	case TypeNote:
		decoded = Note{Text: record.str("text")}
	case TypeSleep:
		decoded = Sleep{MS: record.integer("ms", DefaultSleepMS)}
	case TypeADBShell:
		decoded = Shell{Command: record.str("command")}
	case TypeADBInput:
		decoded = Input{Text: record.str("text")}
	case TypeADBTap:
		decoded = Tap{X: record.integer("x", 0), Y: record.integer("y", 0)}
	case TypeADBSwipe:
		decoded = Swipe{
			X1:         record.integer("x1", 0),
			Y1:         record.integer("y1", 0),
			X2:         record.integer("x2", 0),
			Y2:         record.integer("y2", 0),
			DurationMS: record.integer("duration_ms", DefaultSwipeDurationMS),
		}
	case TypeADBKeyEvent:
		decoded = KeyEvent{Key: record.str("key")}
	case TypeAppLaunch:
		action := record.str("action")
		if action == "" {
			action = DefaultLaunchAction
		}
		decoded = AppLaunch{
			Package:  record.str("package"),
			Activity: record.str("activity"),
			Action:   action,
		}
	case TypeAutoglmPrompt:
		decoded = Prompt{Text: record.str("text")}
	case TypeApp:
		decoded = App{AppID: record.str("app_id")}
	default:
		decoded = Unknown{Type: header.Type}
	}
	if record.err != nil {
		return nil, fmt.Errorf("%s step: %w", header.Type, record.err)
	}
	return decoded, nil
}

// fieldReader reads loosely-typed fields. The first shape error
// sticks in err; later reads still return defaults so the decoding
// switch stays linear.
type fieldReader struct {
	fields map[string]json.RawMessage
	err    error
}

func (r *fieldReader) str(name string) string {
	raw, ok := r.fields[name]
	if !ok || string(raw) == "null" {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}
	// Numbers and booleans are accepted and kept verbatim.
	return strings.TrimSpace(string(raw))
}

// integer accepts a JSON number or a numeric string (web forms post
// numbers as strings). Fractions are truncated. A missing, null, or
// blank field yields fallback.
func (r *fieldReader) integer(name string, fallback int) int {
	raw, ok := r.fields[name]
	if !ok || string(raw) == "null" {
		return fallback
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			r.fail(fmt.Errorf("field %q: not a number", name))
			return fallback
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return fallback
		}
		number = json.Number(text)
	}
	if integer, err := strconv.Atoi(string(number)); err == nil {
		return integer
	}
	floating, err := strconv.ParseFloat(string(number), 64)
	if err != nil {
		r.fail(fmt.Errorf("field %q: %q is not a number", name, string(number)))
		return fallback
	}
	switch {
	case math.IsNaN(floating):
		r.fail(fmt.Errorf("field %q: %q is not a number", name, string(number)))
		return fallback
	case floating >= math.MaxInt:
		return math.MaxInt
	case floating <= math.MinInt:
		return math.MinInt
	}
	return int(floating)
}

func (r *fieldReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
