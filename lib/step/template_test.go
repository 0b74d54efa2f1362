// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package step

import (
	"errors"
	"testing"
)

func TestRender(t *testing.T) {
	params := Params{
		"name":  "Bob",
		"count": float64(3),
		"ratio": 0.5,
		"flag":  true,
		"none":  nil,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"single", "hi {name}", "hi Bob"},
		{"repeated", "{name} and {name}", "Bob and Bob"},
		{"integral number", "{count} items", "3 items"},
		{"fraction", "{ratio}", "0.5"},
		{"bool", "{flag}", "True"},
		{"null", "{none}", "None"},
		{"escaped braces", "{{literal}} {name}", "{literal} Bob"},
		{"unicode", "打开{name}的微信", "打开Bob的微信"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Render(test.template, params)
			if err != nil {
				t.Fatalf("Render(%q): %v", test.template, err)
			}
			if got != test.want {
				t.Errorf("Render(%q) = %q, want %q", test.template, got, test.want)
			}
		})
	}
}

func TestRenderFailuresReturnLiteral(t *testing.T) {
	params := Params{"name": "Bob"}

	tests := []struct {
		name     string
		template string
		wantErr  error
	}{
		{"missing param", "hi {who}", ErrMissingParam},
		{"one of two missing", "{name} meets {who}", ErrMissingParam},
		{"unclosed", "hi {name", ErrMalformedTemplate},
		{"lone close", "hi name}", ErrMalformedTemplate},
		{"positional", "hi {}", ErrMalformedTemplate},
		{"numeric", "hi {0}", ErrMalformedTemplate},
		{"conversion", "hi {name!r}", ErrMalformedTemplate},
		{"format spec", "hi {name:>10}", ErrMalformedTemplate},
		{"nested", "hi {na{me}}", ErrMalformedTemplate},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Render(test.template, params)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("Render(%q) error = %v, want %v", test.template, err, test.wantErr)
			}
			if got != test.template {
				t.Errorf("Render(%q) = %q, want the literal template", test.template, got)
			}
		})
	}
}

func TestRenderNilParams(t *testing.T) {
	got, err := Render("{x}", nil)
	if !errors.Is(err, ErrMissingParam) || got != "{x}" {
		t.Errorf("Render with nil params = (%q, %v)", got, err)
	}
}
