// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Paths lists every on-disk location the control plane uses.
type Paths struct {
	// Home is the control plane's root (AUTOGLM_HOME).
	Home string

	// WorkDir is the Open-AutoGLM checkout the agent runs in
	// (AUTOGLM_DIR).
	WorkDir string

	// StateDir holds the pid file, log, input FIFO, lock, and records.
	StateDir string

	PIDFile    string
	LogFile    string
	InputFIFO  string
	LockFile   string
	AppsFile   string
	TasksFile  string
	ConfigFile string
}

// ResolvePaths derives the path layout from the environment. getenv is
// os.Getenv in production and a map lookup in tests.
func ResolvePaths(getenv func(string) string) (Paths, error) {
	home := getenv("HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolving home directory: %w", err)
		}
		home = userHome
	}

	vars := map[string]string{"HOME": home}
	root := expandPath(valueOr(getenv("AUTOGLM_HOME"), "${HOME}/.autoglm"), vars, getenv)
	workDir := expandPath(valueOr(getenv("AUTOGLM_DIR"), "${HOME}/Open-AutoGLM"), vars, getenv)
	return NewPaths(root, workDir), nil
}

// NewPaths lays out the state files under root.
func NewPaths(root, workDir string) Paths {
	stateDir := filepath.Join(root, "web")
	return Paths{
		Home:       root,
		WorkDir:    workDir,
		StateDir:   stateDir,
		PIDFile:    filepath.Join(stateDir, "autoglm.pid"),
		LogFile:    filepath.Join(stateDir, "autoglm.log"),
		InputFIFO:  filepath.Join(stateDir, "autoglm.stdin"),
		LockFile:   filepath.Join(stateDir, "autoglm.lock"),
		AppsFile:   filepath.Join(stateDir, "apps.json"),
		TasksFile:  filepath.Join(stateDir, "tasks.json"),
		ConfigFile: filepath.Join(root, "config.yaml"),
	}
}

// EnsureStateDir creates the state directory if it does not exist.
func (p Paths) EnsureStateDir() error {
	if err := os.MkdirAll(p.StateDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", p.StateDir, err)
	}
	return nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandPath expands a leading ~ and ${VAR} / ${VAR:-default} patterns.
// vars are consulted before the environment.
func expandPath(s string, vars map[string]string, getenv func(string) string) string {
	if s == "~" || strings.HasPrefix(s, "~/") {
		s = "${HOME}" + s[1:]
	}
	expanded := varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
	return filepath.Clean(expanded)
}
