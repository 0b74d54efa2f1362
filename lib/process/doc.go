// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint error handler. It is
// the one place outside the CLI that writes to stderr directly, for
// errors that surface before or after the structured logger exists.
package process
