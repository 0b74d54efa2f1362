// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/autoglm-web/autoglm-web/lib/step"
)

// templateParams are the --param / --params flags of the run commands.
type templateParams struct {
	Pairs  []string `flag:"param,p" desc:"template parameter as key=value (repeatable)"`
	Object string   `flag:"params" desc:"template parameters as a JSON object"`
}

// resolve merges the JSON object with the key=value pairs; pairs win.
// Pair values are always strings.
func (p templateParams) resolve() (step.Params, error) {
	params := step.Params{}
	if strings.TrimSpace(p.Object) != "" {
		if err := json.Unmarshal(jsonc.ToJSON([]byte(p.Object)), &params); err != nil {
			return nil, fmt.Errorf("--params must be a JSON object: %w", err)
		}
	}
	for _, pair := range p.Pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("--param %q: expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
