// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package step defines the declarative step model that app and task
// records are made of, and the {name} template syntax their string
// fields use.
//
// A [Step] is a closed sum type: one Go struct per step type, each
// carrying only its own fields, all implementing the unexported
// isStep marker so no other package can add variants. Records are
// decoded through [Sequence], which reads the "type" discriminator
// first and then the variant's fields. A type name this package does
// not know decodes to [Unknown] rather than failing the whole record,
// so a newer front end cannot make an older engine refuse to load.
//
// [Render] implements Python str.format-style named substitution
// ({name}, with {{ and }} as literal braces). It reports failure
// through its error; callers that want the "fall back to the literal
// string" behavior do so explicitly.
package step
