// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "autoglm-web",
		Summary: "Control plane for the Open-AutoGLM phone agent",
		Description: `Control plane for the Open-AutoGLM phone agent.

State lives under $AUTOGLM_HOME (default ~/.autoglm): the agent's pid
file, its log, its input pipe, stored apps and tasks, and config.yaml.
The agent itself runs from $AUTOGLM_DIR (default ~/Open-AutoGLM).`,
		Subcommands: []*cli.Command{
			statusCommand(),
			startCommand(),
			stopCommand(),
			logsCommand(),
			sendCommand(),
			promptCommand(),
			appCommand(),
			taskCommand(),
			interactiveCommand(),
			adbCommand(),
			configCommand(),
			versionCommand(),
		},
	}
}
