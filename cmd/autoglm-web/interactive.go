// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/session"
	"github.com/autoglm-web/autoglm-web/lib/sessionui"
)

type interactiveParams struct {
	globalParams
}

func interactiveCommand() *cli.Command {
	var params interactiveParams

	return &cli.Command{
		Name:    "interactive",
		Summary: "Converse with the running agent",
		Description: `Open an interactive session with the agent, starting it if needed.
Each line typed is sent to the agent's input; whatever the agent
prints in response within about five seconds is shown. On a terminal
this is a full-screen view; otherwise lines are read from stdin. Type
/quit, press Esc, or close stdin to leave. The agent keeps running
afterwards.`,
		Usage: "autoglm-web interactive [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("interactive", &params)
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
			message, err := env.supervisor.EnsureRunning(cfg)
			if err != nil {
				return err
			}

			manager := session.NewManager(session.Config{
				Agent:  env.supervisor,
				Log:    env.log,
				Logger: env.logger.With("component", "session"),
			})
			id := manager.New()

			ctx, cancel := signalContext()
			defer cancel()

			if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
				model := sessionui.NewModel(ctx, manager, id, "agent "+message)
				_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
				if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
					return nil
				}
				return err
			}
			fmt.Fprintf(cli.Stdout, "agent %s; session %s\n", message, id)
			return converse(ctx, manager, id, os.Stdin, cli.Stdout)
		},
	}
}

// converse is the line-mode session used when stdin or stdout is not
// a terminal: one input line per send, replies printed as they come.
func converse(ctx context.Context, sender sessionui.Sender, id string, input io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		transcript, err := sender.Send(ctx, id, line)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintf(output, "error: %v\n", err)
			continue
		}
		for _, reply := range repliesAfter(transcript, "> "+line) {
			fmt.Fprintln(output, reply)
		}
	}
	return scanner.Err()
}

// repliesAfter returns the transcript lines that follow the last
// occurrence of echo.
func repliesAfter(transcript []string, echo string) []string {
	for index := len(transcript) - 1; index >= 0; index-- {
		if transcript[index] == echo {
			return transcript[index+1:]
		}
	}
	return transcript
}
