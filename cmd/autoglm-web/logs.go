// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/logstore"
)

type logsParams struct {
	globalParams
	cli.JSONOutput
	Offset int64 `flag:"offset" desc:"byte offset to read from; negative means the last 32000 bytes" default:"-1"`
	Follow bool  `flag:"follow,f" desc:"keep printing as the log grows"`
}

// logChunk is the --json form of one read.
type logChunk struct {
	Offset int64  `json:"offset"`
	Text   string `json:"text"`
}

func logsCommand() *cli.Command {
	var params logsParams

	return &cli.Command{
		Name:    "logs",
		Summary: "Print the agent log",
		Description: `Print the shared log from a byte offset. The offset to pass next time
is printed to stderr (or included in --json output), so a script can
poll incrementally. With --follow, keep printing as lines arrive until
interrupted.`,
		Usage: "autoglm-web logs [flags]",
		Examples: []cli.Example{
			{Description: "Show the recent log", Command: "autoglm-web logs"},
			{Description: "Read everything after byte 4096", Command: "autoglm-web logs --offset 4096 --json"},
			{Description: "Follow the log", Command: "autoglm-web logs -f"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("logs", &params)
		},
		Run: func(args []string) error {
			env, err := params.open()
			if err != nil {
				return err
			}
			if !params.Follow {
				offset, text := env.supervisor.Tail(params.Offset)
				if done, err := params.EmitJSON(logChunk{Offset: offset, Text: text}); done {
					return err
				}
				io.WriteString(cli.Stdout, text)
				fmt.Fprintf(os.Stderr, "next offset: %d\n", offset)
				return nil
			}

			ctx, cancel := signalContext()
			defer cancel()
			return followLog(ctx, env, params.Offset, func(chunk logChunk) error {
				if done, err := params.EmitJSON(chunk); done {
					return err
				}
				_, err := io.WriteString(cli.Stdout, chunk.Text)
				return err
			})
		},
	}
}

// followLog tails the log from offset, calling emit for every non-empty
// chunk, until ctx is cancelled.
func followLog(ctx context.Context, env *environment, offset int64, emit func(logChunk) error) error {
	if err := env.paths.EnsureStateDir(); err != nil {
		return err
	}
	changes, err := env.log.Watch(ctx)
	if err != nil {
		return err
	}

	for {
		next, text := env.supervisor.Tail(offset)
		offset = next
		if text != "" {
			if err := emit(logChunk{Offset: offset, Text: text}); err != nil {
				return err
			}
		}
		// A full chunk means there is probably more to read already.
		if len(text) >= logstore.MaxChunk {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		}
	}
}
