// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/store"
)

type recordListParams struct {
	globalParams
	cli.JSONOutput
}

type recordIDParams struct {
	globalParams
}

type recordSaveParams struct {
	globalParams
	ID string `flag:"id" desc:"store under this id, replacing any record with it"`
}

type recordRunParams struct {
	globalParams
	cli.JSONOutput
	templateParams
}

func appCommand() *cli.Command {
	return &cli.Command{
		Name:    "app",
		Summary: "Manage and run stored apps",
		Description: `Apps are named, reusable step sequences stored in apps.json. Tasks
include them with {"type": "app", "app_id": "..."} steps.`,
		Subcommands: []*cli.Command{
			appListCommand(),
			appShowCommand(),
			appSaveCommand(),
			appDeleteCommand(),
			appRunCommand(),
		},
	}
}

func appListCommand() *cli.Command {
	var params recordListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List stored apps",
		Usage:   "autoglm-web app list [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			env, err := params.open()
			if err != nil {
				return err
			}
			apps, err := env.records.ListApps()
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(apps); done {
				return err
			}

			tw := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTEPS\tDESCRIPTION")
			for _, app := range apps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", app.ID, app.Name, describeSteps(app.Steps), app.Description)
			}
			return tw.Flush()
		},
	}
}

func appShowCommand() *cli.Command {
	var params recordIDParams
	return &cli.Command{
		Name:    "show",
		Summary: "Print one app as JSON",
		Usage:   "autoglm-web app show [flags] <id>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			id, err := singleID(args, "autoglm-web app show [flags] <id>")
			if err != nil {
				return err
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			app, found, err := env.records.FindApp(id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("app not found: %s", id)
			}
			return cli.WriteJSON(cli.Stdout, app)
		},
	}
}

func appSaveCommand() *cli.Command {
	var params recordSaveParams
	return &cli.Command{
		Name:    "save",
		Summary: "Create or replace an app from a JSON file",
		Description: `Read one app object from a file (or "-" for stdin) and store it. An
object without an id gets a fresh one; an id that already exists is
replaced. Comments and trailing commas are allowed.`,
		Usage: "autoglm-web app save [flags] <file|->",
		Examples: []cli.Example{
			{Description: "Store an app", Command: "autoglm-web app save wechat.json"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("save", &params)
		},
		Run: func(args []string) error {
			var app store.App
			if err := readRecord(args, &app); err != nil {
				return err
			}
			if params.ID != "" {
				app.ID = params.ID
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			saved, err := env.records.UpsertApp(app)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Stdout, saved.ID)
			return nil
		},
	}
}

func appDeleteCommand() *cli.Command {
	var params recordIDParams
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a stored app",
		Usage:   "autoglm-web app delete [flags] <id>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(args []string) error {
			id, err := singleID(args, "autoglm-web app delete [flags] <id>")
			if err != nil {
				return err
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			removed, err := env.records.DeleteApp(id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("app not found: %s", id)
			}
			fmt.Fprintf(cli.Stdout, "deleted %s\n", id)
			return nil
		},
	}
}

func appRunCommand() *cli.Command {
	var params recordRunParams
	return &cli.Command{
		Name:    "run",
		Summary: "Run a stored app",
		Description: `Run a stored app's steps in order, starting the agent first if needed.
Exits 1 if a step fails.`,
		Usage: "autoglm-web app run [flags] <id>",
		Examples: []cli.Example{
			{Description: "Run with a template parameter", Command: "autoglm-web app run wechat --param contact=Lin"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(args []string) error {
			id, err := singleID(args, "autoglm-web app run [flags] <id>")
			if err != nil {
				return err
			}
			values, err := params.resolve()
			if err != nil {
				return err
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
			results, err := engine.RunApp(ctx, id, values)
			if err != nil {
				return err
			}
			return reportResults(&params.JSONOutput, results)
		},
	}
}

func taskCommand() *cli.Command {
	return &cli.Command{
		Name:    "task",
		Summary: "Manage and run stored tasks",
		Description: `Tasks are named step sequences stored in tasks.json. A task with no
steps but a prompt runs the prompt through a transient agent.`,
		Subcommands: []*cli.Command{
			taskListCommand(),
			taskShowCommand(),
			taskSaveCommand(),
			taskDeleteCommand(),
			taskRunCommand(),
		},
	}
}

func taskListCommand() *cli.Command {
	var params recordListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List stored tasks",
		Usage:   "autoglm-web task list [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			env, err := params.open()
			if err != nil {
				return err
			}
			tasks, err := env.records.ListTasks()
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(tasks); done {
				return err
			}

			tw := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTEPS\tPROMPT")
			for _, task := range tasks {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", task.ID, task.Name, describeSteps(task.Steps), task.Prompt)
			}
			return tw.Flush()
		},
	}
}

func taskShowCommand() *cli.Command {
	var params recordIDParams
	return &cli.Command{
		Name:    "show",
		Summary: "Print one task as JSON",
		Usage:   "autoglm-web task show [flags] <id>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			id, err := singleID(args, "autoglm-web task show [flags] <id>")
			if err != nil {
				return err
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			task, found, err := env.records.FindTask(id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("task not found: %s", id)
			}
			return cli.WriteJSON(cli.Stdout, task)
		},
	}
}

func taskSaveCommand() *cli.Command {
	var params recordSaveParams
	return &cli.Command{
		Name:    "save",
		Summary: "Create or replace a task from a JSON file",
		Usage:   "autoglm-web task save [flags] <file|->",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("save", &params)
		},
		Run: func(args []string) error {
			var task store.Task
			if err := readRecord(args, &task); err != nil {
				return err
			}
			if params.ID != "" {
				task.ID = params.ID
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			saved, err := env.records.UpsertTask(task)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Stdout, saved.ID)
			return nil
		},
	}
}

func taskDeleteCommand() *cli.Command {
	var params recordIDParams
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a stored task",
		Usage:   "autoglm-web task delete [flags] <id>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(args []string) error {
			id, err := singleID(args, "autoglm-web task delete [flags] <id>")
			if err != nil {
				return err
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			removed, err := env.records.DeleteTask(id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("task not found: %s", id)
			}
			fmt.Fprintf(cli.Stdout, "deleted %s\n", id)
			return nil
		},
	}
}

func taskRunCommand() *cli.Command {
	var params recordRunParams
	return &cli.Command{
		Name:    "run",
		Summary: "Run a stored task",
		Description: `Run a stored task. Steps run in order, starting the agent first if
needed; a prompt-only task runs through a transient agent instead.
Exits 1 if a step fails.`,
		Usage: "autoglm-web task run [flags] <id>",
		Examples: []cli.Example{
			{Description: "Run with parameters from JSON", Command: `autoglm-web task run morning --params '{"city": "Beijing"}'`},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(args []string) error {
			id, err := singleID(args, "autoglm-web task run [flags] <id>")
			if err != nil {
				return err
			}
			values, err := params.resolve()
			if err != nil {
				return err
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
			results, err := engine.RunTask(ctx, id, values)
			if err != nil {
				return err
			}
			return reportResults(&params.JSONOutput, results)
		},
	}
}

func singleID(args []string, usage string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("expected exactly one id\n\nusage: %s", usage)
	}
	return args[0], nil
}

// readRecord decodes one JSONC object from the file named by args[0],
// or from stdin for "-".
func readRecord(args []string, target any) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one file argument (or - for stdin)")
	}

	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), target); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	return nil
}
