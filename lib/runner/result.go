// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import "encoding/json"

// Result is the outcome of one step. Composite app steps carry the
// results of the app's own steps in Children; every other step carries
// its text in Output.
type Result struct {
	Type     string
	OK       bool
	Output   string
	AppID    string
	Children []Result
}

// Composite reports whether the result nests child results.
func (r Result) Composite() bool { return r.Children != nil }

// MarshalJSON encodes {"type","ok","output"}, where output is a string
// or, for a composite result, the list of child results alongside an
// "app_id" field.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Composite() {
		return json.Marshal(struct {
			Type   string   `json:"type"`
			AppID  string   `json:"app_id"`
			OK     bool     `json:"ok"`
			Output []Result `json:"output"`
		}{r.Type, r.AppID, r.OK, r.Children})
	}
	return json.Marshal(struct {
		Type   string `json:"type"`
		AppID  string `json:"app_id,omitempty"`
		OK     bool   `json:"ok"`
		Output string `json:"output"`
	}{r.Type, r.AppID, r.OK, r.Output})
}

// AllOK reports whether every result succeeded. A composite result is
// OK only when all of its children are.
func AllOK(results []Result) bool {
	for _, result := range results {
		if !result.OK {
			return false
		}
	}
	return true
}
