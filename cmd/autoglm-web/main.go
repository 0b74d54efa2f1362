// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// autoglm-web is the command-line front end of the AutoGLM control
// plane: it starts and stops the agent, tails its log, runs stored apps
// and tasks against the device, and holds interactive sessions.
package main

import (
	"errors"
	"os"

	"github.com/autoglm-web/autoglm-web/lib/process"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// Commands that already printed their outcome return an error
		// carrying only an exit code.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run(args []string) error {
	return rootCommand().Execute(args)
}
