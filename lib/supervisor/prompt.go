// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/autoglm-web/autoglm-web/lib/config"
)

// promptOutputTail is how much of a failed run's output is quoted in
// the returned error, in characters.
const promptOutputTail = 800

// RunPromptOnce runs a transient agent for one prompt and returns its
// combined output. The agent receives the prompt followed by "exit" on
// stdin. If it outlives the prompt timeout, its whole process group is
// killed.
func (s *Supervisor) RunPromptOnce(ctx context.Context, cfg *config.Config, prompt string) (string, error) {
	if err := s.preflight(cfg); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.promptTimeout)
	defer cancel()

	args := cfg.Args()
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = s.paths.WorkDir
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Stdin = strings.NewReader(prompt + "\nexit\n")

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	// Grandchildren that escaped the group could otherwise hold the
	// output pipe open indefinitely.
	cmd.WaitDelay = 5 * time.Second

	s.logger.Debug("running one-shot prompt", "timeout", s.promptTimeout)
	runErr := cmd.Run()
	text := strings.ToValidUTF8(output.String(), "\uFFFD")
	if runErr == nil {
		return text, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrPromptTimeout, s.promptTimeout)
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	var exitError *exec.ExitError
	if errors.As(runErr, &exitError) {
		return "", fmt.Errorf("agent exited with code %d: %s", exitError.ExitCode(), lastChars(text, promptOutputTail))
	}
	return "", fmt.Errorf("running agent: %w", runErr)
}

// lastChars returns at most n trailing characters of text, counting
// runes rather than bytes.
func lastChars(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
