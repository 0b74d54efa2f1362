// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package step

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrMissingParam reports a {name} with no value in the params.
	ErrMissingParam = errors.New("missing parameter")

	// ErrMalformedTemplate reports unbalanced braces, positional
	// fields, or format features this renderer does not implement.
	ErrMalformedTemplate = errors.New("malformed template")
)

// Params maps placeholder names to values. Values come from decoded
// JSON, so they may be strings, numbers, booleans, or nil.
type Params map[string]any

// Render substitutes {name} placeholders in template with values from
// params, following Python str.format rules for named fields: {{ and }}
// are literal braces, a lone } is an error, and every field must name
// a parameter. Conversions (!r), format specs (:>10), attribute and
// index access are not supported and are reported as malformed.
//
// On any error the returned string is template itself, unchanged, so a
// caller that chooses to ignore the error gets the literal text.
func Render(template string, params Params) (string, error) {
	if !strings.ContainsAny(template, "{}") {
		return template, nil
	}

	var builder strings.Builder
	builder.Grow(len(template))
	var missing []string

	for index := 0; index < len(template); {
		character := template[index]
		switch character {
		case '{':
			if index+1 < len(template) && template[index+1] == '{' {
				builder.WriteByte('{')
				index += 2
				continue
			}
			closing := strings.IndexAny(template[index+1:], "{}")
			if closing < 0 || template[index+1+closing] != '}' {
				return template, fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformedTemplate, index)
			}
			name := template[index+1 : index+1+closing]
			if err := checkFieldName(name); err != nil {
				return template, err
			}
			value, exists := params[name]
			if !exists {
				missing = append(missing, name)
			} else {
				builder.WriteString(formatValue(value))
			}
			index += closing + 2
		case '}':
			if index+1 < len(template) && template[index+1] == '}' {
				builder.WriteByte('}')
				index += 2
				continue
			}
			return template, fmt.Errorf("%w: single '}' at offset %d", ErrMalformedTemplate, index)
		default:
			builder.WriteByte(character)
			index++
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return template, fmt.Errorf("%w: %s", ErrMissingParam, strings.Join(missing, ", "))
	}
	return builder.String(), nil
}

func checkFieldName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: positional field {}", ErrMalformedTemplate)
	case strings.ContainsAny(name, "!:.["):
		return fmt.Errorf("%w: unsupported field syntax {%s}", ErrMalformedTemplate, name)
	}
	if _, err := strconv.Atoi(name); err == nil {
		return fmt.Errorf("%w: positional field {%s}", ErrMalformedTemplate, name)
	}
	return nil
}

// formatValue renders a parameter the way str() would render the
// decoded JSON value on the original web front end: integral numbers
// without a fraction, booleans as True/False, null as None.
func formatValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case nil:
		return "None"
	case bool:
		if typed {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	case fmt.Stringer:
		return typed.String()
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	}
}
