// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run().
func Fatal(err error) {
	Report(os.Stderr, err)
	os.Exit(1)
}

// Report writes the "error: err" line Fatal prints. Multi-line errors
// (usage text appended to a message) are written unchanged.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
