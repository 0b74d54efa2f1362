// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/runner"
	"github.com/autoglm-web/autoglm-web/lib/step"
)

type statusParams struct {
	globalParams
	cli.JSONOutput
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show whether the agent is running",
		Usage:   "autoglm-web status [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			env, err := params.open()
			if err != nil {
				return err
			}

			status := env.supervisor.Status()
			if done, err := params.EmitJSON(status); done {
				return err
			}
			if status.Running {
				fmt.Fprintf(cli.Stdout, "running (pid %d)\n", status.PID)
			} else {
				fmt.Fprintln(cli.Stdout, "not running")
			}
			fmt.Fprintf(cli.Stdout, "log:     %s\n", status.LogPath)
			fmt.Fprintf(cli.Stdout, "workdir: %s\n", status.WorkDir)
			return nil
		},
	}
}

type lifecycleParams struct {
	globalParams
}

func startCommand() *cli.Command {
	var params lifecycleParams

	return &cli.Command{
		Name:    "start",
		Summary: "Start the agent in the background",
		Description: `Start the agent in the background with the launch parameters from
config.yaml. Its output is appended to the shared log. Fails if the
agent is already running, the API key is not configured, or the
Open-AutoGLM checkout is missing.`,
		Usage: "autoglm-web start [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("start", &params)
		},
		Run: func(args []string) error {
			env, err := params.open()
			if err != nil {
				return err
			}
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			message, err := env.supervisor.Start(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Stdout, message)
			return nil
		},
	}
}

func stopCommand() *cli.Command {
	var params lifecycleParams

	return &cli.Command{
		Name:    "stop",
		Summary: "Stop the agent",
		Usage:   "autoglm-web stop [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("stop", &params)
		},
		Run: func(args []string) error {
			env, err := params.open()
			if err != nil {
				return err
			}
			message, err := env.supervisor.Stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Stdout, message)
			return nil
		},
	}
}

func sendCommand() *cli.Command {
	var params lifecycleParams

	return &cli.Command{
		Name:    "send",
		Summary: "Write a line to the running agent's input",
		Usage:   "autoglm-web send [flags] <text>...",
		Examples: []cli.Example{
			{Description: "Answer the agent's confirmation question", Command: "autoglm-web send yes"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("send", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("text is required\n\nusage: autoglm-web send [flags] <text>...")
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			message, err := env.supervisor.SendInput(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Stdout, message)
			return nil
		},
	}
}

type promptParams struct {
	globalParams
	cli.JSONOutput
}

func promptCommand() *cli.Command {
	var params promptParams

	return &cli.Command{
		Name:    "prompt",
		Summary: "Run one natural-language instruction through a transient agent",
		Description: `Run one instruction through a transient agent process and print its
output. The long-running agent is not started or touched.`,
		Usage: "autoglm-web prompt [flags] <text>...",
		Examples: []cli.Example{
			{Description: "Ask the agent to do something on the phone", Command: `autoglm-web prompt "open Settings and enable Wi-Fi"`},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("prompt", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("text is required\n\nusage: autoglm-web prompt [flags] <text>...")
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			engine, err := env.engine()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			results, err := engine.RunSteps(ctx, step.Sequence{step.Prompt{Text: strings.Join(args, " ")}}, nil)
			if err != nil {
				return err
			}
			return reportResults(&params.JSONOutput, results)
		},
	}
}

// reportResults prints step results and turns a failed step into exit
// code 1.
func reportResults(output *cli.JSONOutput, results []runner.Result) error {
	done, err := output.EmitJSON(results)
	if err != nil {
		return err
	}
	if !done {
		printResults(cli.Stdout, results, 0)
	}
	if !runner.AllOK(results) {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
