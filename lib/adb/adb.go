// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package adb wraps the adb command-line tool. Every primitive runs one
// adb invocation with a timeout and returns a success flag plus the
// combined, trimmed stdout and stderr. Failures of any kind (non-zero
// exit, timeout, missing binary) come back as ok=false with a
// description in the output; nothing here returns a Go error for a
// device-side failure.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every adb call that does not pick its own.
const DefaultTimeout = 20 * time.Second

// Client runs adb commands, optionally pinned to one device serial.
type Client struct {
	binary string
	serial string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the adb executable (default "adb" from PATH).
func WithBinary(path string) Option {
	return func(c *Client) { c.binary = path }
}

// WithSerial pins every command to one device with "-s serial". An
// empty serial leaves device selection to adb.
func WithSerial(serial string) Option {
	return func(c *Client) { c.serial = serial }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client.
func New(options ...Option) *Client {
	client := &Client{binary: "adb"}
	for _, option := range options {
		option(client)
	}
	if client.logger == nil {
		client.logger = slog.New(slog.DiscardHandler)
	}
	return client
}

// run executes adb with args and returns the exit code and the combined
// output. A timeout or spawn failure returns -1 and a description.
func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) (int, string) {
	if c.serial != "" {
		args = append([]string{"-s", c.serial}, args...)
	}

	runContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runContext, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	output := strings.TrimSpace(stdout.String() + stderr.String())
	if err == nil {
		return 0, output
	}

	if runContext.Err() == context.DeadlineExceeded {
		c.logger.Warn("adb command timed out", "args", args, "timeout", timeout)
		return -1, joinOutput(output, fmt.Sprintf("adb %s: timed out after %s", strings.Join(args, " "), timeout))
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode(), output
	}
	c.logger.Warn("adb command failed to start", "args", args, "error", err)
	return -1, joinOutput(output, err.Error())
}

func joinOutput(output, message string) string {
	if output == "" {
		return message
	}
	return output + "\n" + message
}

// Shell runs command in the device shell.
func (c *Client) Shell(ctx context.Context, command string) (bool, string) {
	code, output := c.run(ctx, DefaultTimeout, "shell", command)
	return code == 0, output
}

// InputText types text on the device. Newlines are flattened to spaces
// and the text is shell-quoted, so it can never break out of the input
// command.
func (c *Client) InputText(ctx context.Context, text string) (bool, string) {
	flattened := strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
	return c.Shell(ctx, "input text "+ShellQuote(flattened))
}

// Tap taps the screen at (x, y).
func (c *Client) Tap(ctx context.Context, x, y int) (bool, string) {
	return c.Shell(ctx, fmt.Sprintf("input tap %d %d", x, y))
}

// Swipe swipes from (x1, y1) to (x2, y2) over durationMS milliseconds.
func (c *Client) Swipe(ctx context.Context, x1, y1, x2, y2, durationMS int) (bool, string) {
	return c.Shell(ctx, fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMS))
}

// KeyEvent sends a key event by code (e.g. "4") or name (e.g.
// "KEYCODE_HOME").
func (c *Client) KeyEvent(ctx context.Context, key string) (bool, string) {
	if !isKeyName(key) {
		return false, fmt.Sprintf("invalid key %q: only letters, digits and _ are allowed", key)
	}
	return c.Shell(ctx, "input keyevent "+key)
}

// safeShellWord reports whether s needs no quoting in a POSIX shell.
func safeShellWord(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@%+=:,./-_", r):
		default:
			return false
		}
	}
	return true
}

// ShellQuote quotes s for a POSIX shell so it is passed as one literal
// word.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if safeShellWord(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isKeyName(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}
