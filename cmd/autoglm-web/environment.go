// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/adb"
	"github.com/autoglm-web/autoglm-web/lib/config"
	"github.com/autoglm-web/autoglm-web/lib/logstore"
	"github.com/autoglm-web/autoglm-web/lib/runner"
	"github.com/autoglm-web/autoglm-web/lib/store"
	"github.com/autoglm-web/autoglm-web/lib/supervisor"
)

// globalParams are accepted by every command that touches state.
type globalParams struct {
	ConfigPath string `flag:"config" desc:"config file (default $AUTOGLM_HOME/config.yaml)"`
	Verbose    bool   `flag:"verbose,v" desc:"log diagnostics at debug level"`
}

// environment is the wired control plane for one invocation.
type environment struct {
	paths      config.Paths
	configPath string
	logger     *slog.Logger

	log        *logstore.Store
	supervisor *supervisor.Supervisor
	records    *store.Store
}

func (g globalParams) open() (*environment, error) {
	paths, err := config.ResolvePaths(os.Getenv)
	if err != nil {
		return nil, err
	}
	configPath := g.ConfigPath
	if configPath == "" {
		configPath = paths.ConfigFile
	}

	logger := cli.NewCommandLogger(g.Verbose)
	log := logstore.New(paths.LogFile, nil)
	return &environment{
		paths:      paths,
		configPath: configPath,
		logger:     logger,
		log:        log,
		supervisor: supervisor.New(supervisor.Config{
			Paths:  paths,
			Log:    log,
			Logger: logger.With("component", "supervisor"),
		}),
		records: store.New(paths.AppsFile, paths.TasksFile),
	}, nil
}

// loadConfig reads the agent configuration. A missing file at the
// default location yields defaults; an explicit --config must exist.
func (e *environment) loadConfig() (*config.Config, error) {
	if e.configPath == e.paths.ConfigFile {
		return config.Load(e.paths)
	}
	return config.LoadFile(e.configPath)
}

func (e *environment) device() (*adb.Client, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	return adb.New(
		adb.WithSerial(cfg.DeviceID),
		adb.WithLogger(e.logger.With("component", "adb")),
	), nil
}

func (e *environment) engine() (*runner.Engine, error) {
	device, err := e.device()
	if err != nil {
		return nil, err
	}
	return runner.New(runner.Config{
		Device:      device,
		Agent:       e.supervisor,
		Records:     e.records,
		Log:         e.log,
		AgentConfig: e.loadConfig,
		Logger:      e.logger.With("component", "runner"),
	}), nil
}

// signalContext is cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
