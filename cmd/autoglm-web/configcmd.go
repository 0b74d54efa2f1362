// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/config"
)

type configShowParams struct {
	globalParams
	cli.JSONOutput
}

type configSetParams struct {
	globalParams
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Show or change the agent launch configuration",
		Subcommands: []*cli.Command{
			configShowCommand(),
			configSetCommand(),
		},
	}
}

func configShowCommand() *cli.Command {
	var params configShowParams
	return &cli.Command{
		Name:    "show",
		Summary: "Print the configuration with the API key masked",
		Usage:   "autoglm-web config show [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
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
			public := cfg.Public()
			if done, err := params.EmitJSON(public); done {
				return err
			}
			data, err := yaml.Marshal(public)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.Stdout, "# %s\n%s", env.configPath, data)
			return nil
		},
	}
}

func configSetCommand() *cli.Command {
	var params configSetParams
	return &cli.Command{
		Name:    "set",
		Summary: "Set one configuration field",
		Description: `Set one configuration field and save the file (mode 0600). Keys:
base_url, model, api_key, max_steps, device_id, lang, python, entry.
The running agent keeps its old settings until restarted.`,
		Usage: "autoglm-web config set [flags] <key> <value>",
		Examples: []cli.Example{
			{Description: "Point the agent at a hosted endpoint", Command: "autoglm-web config set base_url https://open.bigmodel.cn/api/paas/v4"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("set", &params)
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <key> <value>\n\nusage: autoglm-web config set [flags] <key> <value>")
			}
			env, err := params.open()
			if err != nil {
				return err
			}
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Write(env.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cli.Stdout, "saved %s\n", env.configPath)
			return nil
		},
	}
}
