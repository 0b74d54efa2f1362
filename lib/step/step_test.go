// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package step

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestSequenceDecodesEveryType(t *testing.T) {
	data := `[
		{"type": "note", "text": "hi {name}"},
		{"type": "sleep", "ms": 10},
		{"type": "adb_shell", "command": "getprop"},
		{"type": "adb_input", "text": "hello"},
		{"type": "adb_tap", "x": 100, "y": "200"},
		{"type": "adb_swipe", "x1": 1, "y1": 2, "x2": 3, "y2": 4},
		{"type": "adb_keyevent", "key": "KEYCODE_BACK"},
		{"type": "app_launch", "package": "com.tencent.mm"},
		{"type": "autoglm_prompt", "text": "open WeChat"},
		{"type": "app", "app_id": "abc"},
		{"type": "teleport", "where": "mars"}
	]`

	var steps Sequence
	if err := json.Unmarshal([]byte(data), &steps); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := Sequence{
		Note{Text: "hi {name}"},
		Sleep{MS: 10},
		Shell{Command: "getprop"},
		Input{Text: "hello"},
		Tap{X: 100, Y: 200},
		Swipe{X1: 1, Y1: 2, X2: 3, Y2: 4, DurationMS: DefaultSwipeDurationMS},
		KeyEvent{Key: "KEYCODE_BACK"},
		AppLaunch{Package: "com.tencent.mm", Action: DefaultLaunchAction},
		Prompt{Text: "open WeChat"},
		App{AppID: "abc"},
		Unknown{Type: "teleport"},
	}
	if len(steps) != len(want) {
		t.Fatalf("decoded %d steps, want %d", len(steps), len(want))
	}
	for index := range want {
		if steps[index] != want[index] {
			t.Errorf("steps[%d] = %#v, want %#v", index, steps[index], want[index])
		}
	}
	if steps[10].StepType() != "teleport" {
		t.Errorf("unknown StepType() = %q", steps[10].StepType())
	}
}

func TestDecodeDefaults(t *testing.T) {
	decoded, err := Decode([]byte(`{"type": "sleep"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != (Sleep{MS: DefaultSleepMS}) {
		t.Errorf("sleep default = %#v", decoded)
	}

	decoded, err = Decode([]byte(`{"type": "adb_swipe", "duration_ms": ""}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.(Swipe).DurationMS != DefaultSwipeDurationMS {
		t.Errorf("blank duration_ms = %d, want default", decoded.(Swipe).DurationMS)
	}

	decoded, err = Decode([]byte(`{"type": "sleep", "ms": 12.7}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.(Sleep).MS != 12 {
		t.Errorf("fractional ms = %d, want 12", decoded.(Sleep).MS)
	}
}

func TestDecodeSaturatesHugeNumbers(t *testing.T) {
	decoded, err := Decode([]byte(`{"type": "sleep", "ms": 1e30}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.(Sleep).MS != math.MaxInt {
		t.Errorf("ms = %d, want math.MaxInt", decoded.(Sleep).MS)
	}

	decoded, err = Decode([]byte(`{"type": "adb_tap", "x": "-1e30", "y": 1}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.(Tap).X != math.MinInt {
		t.Errorf("x = %d, want math.MinInt", decoded.(Tap).X)
	}
}

func TestDecodeRejectsBadNumbers(t *testing.T) {
	for _, data := range []string{
		`{"type": "sleep", "ms": "NaN"}`,
		`{"type": "adb_tap", "x": "left", "y": 1}`,
		`{"type": "sleep", "ms": [1]}`,
	} {
		if _, err := Decode([]byte(data)); err == nil {
			t.Errorf("Decode(%s) succeeded", data)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	var steps Sequence
	if err := json.Unmarshal([]byte(`{"type": "note"}`), &steps); err == nil {
		t.Error("non-array steps decoded")
	}
	if err := json.Unmarshal([]byte(`[{"type": 5}]`), &steps); err == nil {
		t.Error("numeric type decoded")
	}
}

func TestSequenceRoundTrip(t *testing.T) {
	original := Sequence{
		Note{Text: "start"},
		Tap{X: 1, Y: 2},
		AppLaunch{Package: "com.x", Activity: ".Main", Action: "am"},
		Unknown{Type: "future_step"},
	}

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(encoded), `{"type":"adb_tap","x":1,"y":2}`) {
		t.Errorf("encoded = %s", encoded)
	}

	var decoded Sequence
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for index := range original {
		if decoded[index] != original[index] {
			t.Errorf("step %d = %#v, want %#v", index, decoded[index], original[index])
		}
	}
}
