// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/adb"
)

type adbParams struct {
	globalParams
	cli.JSONOutput
}

type packagesParams struct {
	globalParams
	cli.JSONOutput
	All bool `flag:"all" desc:"include system packages"`
}

// adbOutcome is the --json form of a device operation.
type adbOutcome struct {
	OK     bool   `json:"ok"`
	Output string `json:"output"`
}

func adbCommand() *cli.Command {
	return &cli.Command{
		Name:    "adb",
		Summary: "Manage device connections",
		Description: `Inspect and manage the adb connection to the phone. When config.yaml
sets device_id, commands target that device.`,
		Subcommands: []*cli.Command{
			adbDevicesCommand(),
			adbActionCommand("connect", "Connect to a device over TCP", "<host:port>", 1, 1,
				func(ctx context.Context, client *adb.Client, args []string) (bool, string) {
					return client.Connect(ctx, args[0])
				}),
			adbActionCommand("disconnect", "Disconnect one TCP device, or all", "[host:port]", 0, 1,
				func(ctx context.Context, client *adb.Client, args []string) (bool, string) {
					hostPort := ""
					if len(args) == 1 {
						hostPort = args[0]
					}
					return client.Disconnect(ctx, hostPort)
				}),
			adbActionCommand("pair", "Pair with a device over wireless debugging", "<host:port> <code>", 2, 2,
				func(ctx context.Context, client *adb.Client, args []string) (bool, string) {
					return client.Pair(ctx, args[0], args[1])
				}),
			adbActionCommand("restart", "Restart the adb server", "", 0, 0,
				func(ctx context.Context, client *adb.Client, args []string) (bool, string) {
					return client.RestartServer(ctx)
				}),
			adbPackagesCommand(),
		},
	}
}

func adbDevicesCommand() *cli.Command {
	var params adbParams
	return &cli.Command{
		Name:    "devices",
		Summary: "List attached devices",
		Usage:   "autoglm-web adb devices [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("devices", &params)
		},
		Run: func(args []string) error {
			env, err := params.open()
			if err != nil {
				return err
			}
			client, err := env.device()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			devices := client.Devices(ctx)
			if done, err := params.EmitJSON(devices); done {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cli.Stdout, "no devices")
				return nil
			}
			tw := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "SERIAL\tSTATUS\tMODEL")
			for _, device := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", device.Serial, device.Status, device.Model)
			}
			return tw.Flush()
		},
	}
}

func adbPackagesCommand() *cli.Command {
	var params packagesParams
	return &cli.Command{
		Name:    "packages",
		Summary: "List installed packages (third-party unless --all)",
		Usage:   "autoglm-web adb packages [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("packages", &params)
		},
		Run: func(args []string) error {
			env, err := params.open()
			if err != nil {
				return err
			}
			client, err := env.device()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			packages := client.ListPackages(ctx, !params.All)
			if done, err := params.EmitJSON(packages); done {
				return err
			}
			for _, name := range packages {
				fmt.Fprintln(cli.Stdout, name)
			}
			return nil
		},
	}
}

// adbActionCommand builds a subcommand that runs one device operation
// taking between minArgs and maxArgs positional arguments.
func adbActionCommand(name, summary, argsUsage string, minArgs, maxArgs int, action func(context.Context, *adb.Client, []string) (bool, string)) *cli.Command {
	var params adbParams
	usage := "autoglm-web adb " + name + " [flags]"
	if argsUsage != "" {
		usage += " " + argsUsage
	}

	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams(name, &params)
		},
		Run: func(args []string) error {
			if len(args) < minArgs || len(args) > maxArgs {
				return fmt.Errorf("wrong number of arguments\n\nusage: %s", usage)
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			client, err := env.device()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			ok, output := action(ctx, client, args)
			if done, err := params.EmitJSON(adbOutcome{OK: ok, Output: output}); done {
				if err == nil && !ok {
					return &cli.ExitError{Code: 1}
				}
				return err
			}
			if !ok {
				return fmt.Errorf("adb %s failed: %s", name, output)
			}
			if output != "" {
				fmt.Fprintln(cli.Stdout, output)
			}
			return nil
		},
	}
}
