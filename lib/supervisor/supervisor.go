// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/autoglm-web/autoglm-web/lib/clock"
	"github.com/autoglm-web/autoglm-web/lib/config"
	"github.com/autoglm-web/autoglm-web/lib/logstore"
)

// Lifecycle errors. Returned errors wrap these; test with errors.Is.
var (
	ErrAlreadyRunning    = errors.New("agent is already running")
	ErrNotRunning        = errors.New("agent is not running")
	ErrWorkDirMissing    = errors.New("Open-AutoGLM directory not found")
	ErrInputUnavailable  = errors.New("agent is not reading input")
	ErrPromptTimeout     = errors.New("agent prompt timed out")
	ErrCredentialMissing = config.ErrCredentialMissing
)

const (
	// StopPollAttempts and StopPollInterval bound how long Stop waits
	// for SIGTERM to take effect before sending SIGKILL.
	StopPollAttempts = 30
	StopPollInterval = 200 * time.Millisecond

	// DefaultPromptTimeout bounds one RunPromptOnce invocation.
	DefaultPromptTimeout = 10 * time.Minute
)

// ProcessStatus is a snapshot of the supervised process.
type ProcessStatus struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	LogPath string `json:"log_path"`
	WorkDir string `json:"workdir"`
}

// Config holds the dependencies of a Supervisor.
type Config struct {
	// Paths locates the state files and the agent checkout.
	Paths config.Paths

	// Log is the shared log. Required.
	Log *logstore.Store

	// Clock paces Stop's liveness polling. Nil means the real clock.
	Clock clock.Clock

	// Logger receives operational diagnostics. Nil discards them.
	Logger *slog.Logger

	// PromptTimeout overrides DefaultPromptTimeout when positive.
	PromptTimeout time.Duration
}

// Supervisor starts, stops, and talks to the agent process.
type Supervisor struct {
	paths         config.Paths
	log           *logstore.Store
	clock         clock.Clock
	logger        *slog.Logger
	promptTimeout time.Duration
}

// New creates a Supervisor. It touches nothing on disk until used.
func New(cfg Config) *Supervisor {
	supervisor := &Supervisor{
		paths:         cfg.Paths,
		log:           cfg.Log,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
		promptTimeout: cfg.PromptTimeout,
	}
	if supervisor.clock == nil {
		supervisor.clock = clock.Real()
	}
	if supervisor.logger == nil {
		supervisor.logger = slog.New(slog.DiscardHandler)
	}
	if supervisor.promptTimeout <= 0 {
		supervisor.promptTimeout = DefaultPromptTimeout
	}
	return supervisor
}

// Status reads the pid file and probes the recorded process. A stale
// pid file is removed, so a crashed agent is noticed on the next call.
func (s *Supervisor) Status() ProcessStatus {
	status := ProcessStatus{
		LogPath: s.paths.LogFile,
		WorkDir: s.paths.WorkDir,
	}

	pid, recorded := s.readPID()
	if !recorded {
		return status
	}
	if pid > 0 && alive(pid) {
		status.Running = true
		status.PID = pid
		return status
	}

	if err := os.Remove(s.paths.PIDFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("removing stale pid file", "path", s.paths.PIDFile, "error", err)
	}
	return status
}

// Start launches the agent in the background with cfg's arguments.
// The returned message is suitable for display.
func (s *Supervisor) Start(cfg *config.Config) (string, error) {
	unlock, err := s.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	if status := s.Status(); status.Running {
		return "", fmt.Errorf("%w (pid=%d)", ErrAlreadyRunning, status.PID)
	}
	if err := s.preflight(cfg); err != nil {
		return "", err
	}

	input, err := s.openInput()
	if err != nil {
		return "", err
	}
	defer input.Close()

	output, err := s.log.OpenWriter()
	if err != nil {
		return "", err
	}
	defer output.Close()

	args := cfg.Args()
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = s.paths.WorkDir
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Stdin = input
	cmd.Stdout = output
	cmd.Stderr = output

	// Own process group, so Stop reaches anything the agent spawned
	// and the agent survives the control plane exiting.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting agent: %w", err)
	}
	pid := cmd.Process.Pid

	if err := s.writePID(pid); err != nil {
		_ = unix.Kill(-pid, unix.SIGKILL)
		_ = cmd.Wait()
		return "", err
	}
	go s.reap(cmd)

	marker := fmt.Sprintf("\n[autoglm-web] started pid=%d at %s\n", pid, s.clock.Now().Format(logstore.TimestampLayout))
	if err := s.log.AppendRaw(marker); err != nil {
		s.logger.Warn("writing start marker", "error", err)
	}
	s.logger.Info("agent started", "pid", pid, "workdir", s.paths.WorkDir)
	return fmt.Sprintf("started (pid=%d)", pid), nil
}

// EnsureRunning starts the agent unless it is already running.
func (s *Supervisor) EnsureRunning(cfg *config.Config) (string, error) {
	if status := s.Status(); status.Running {
		return fmt.Sprintf("already running (pid=%d)", status.PID), nil
	}
	message, err := s.Start(cfg)
	if errors.Is(err, ErrAlreadyRunning) {
		// Another invocation won the race.
		return "already running", nil
	}
	return message, err
}

// Stop terminates the recorded process: SIGTERM, a bounded wait, then
// SIGKILL. The pid file is removed whatever the signals achieved.
func (s *Supervisor) Stop() (string, error) {
	unlock, err := s.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	status := s.Status()
	if !status.Running {
		return "", ErrNotRunning
	}
	pid := status.PID

	defer func() {
		if err := os.Remove(s.paths.PIDFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("removing pid file", "path", s.paths.PIDFile, "error", err)
		}
	}()

	if err := signalProcess(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return "", fmt.Errorf("stopping pid %d: %w", pid, err)
	}

	for attempt := 0; attempt < StopPollAttempts && alive(pid); attempt++ {
		s.clock.Sleep(StopPollInterval)
	}

	message := "stopped"
	if alive(pid) {
		if err := signalProcess(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			s.logger.Warn("SIGKILL failed", "pid", pid, "error", err)
		}
		message = "stopped (killed)"
	}
	s.logger.Info("agent stopped", "pid", pid, "message", message)
	return message, nil
}

// Tail reads the shared log from offset. See logstore.Store.Tail.
func (s *Supervisor) Tail(offset int64) (int64, string) {
	return s.log.Tail(offset)
}

// SendInput writes text and a newline to the running agent's stdin.
func (s *Supervisor) SendInput(text string) (string, error) {
	if status := s.Status(); !status.Running {
		return "", ErrNotRunning
	}

	// Non-blocking open fails with ENXIO instead of hanging when nobody
	// holds the read end.
	pipe, err := os.OpenFile(s.paths.InputFIFO, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, unix.ENXIO) || errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrInputUnavailable, s.paths.InputFIFO)
		}
		return "", fmt.Errorf("opening agent input: %w", err)
	}
	defer pipe.Close()

	if _, err := pipe.WriteString(text + "\n"); err != nil {
		return "", fmt.Errorf("writing agent input: %w", err)
	}
	return "sent", nil
}

func (s *Supervisor) preflight(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	info, err := os.Stat(s.paths.WorkDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrWorkDirMissing, s.paths.WorkDir)
	}
	return nil
}

// reap waits for a child this supervisor started so it never lingers
// as a zombie, which would still answer the liveness probe.
func (s *Supervisor) reap(cmd *exec.Cmd) {
	waitErr := cmd.Wait()
	pid := cmd.Process.Pid

	state := "unknown"
	if cmd.ProcessState != nil {
		state = cmd.ProcessState.String()
	}
	marker := fmt.Sprintf("[autoglm-web] exited pid=%d (%s) at %s\n", pid, state, s.clock.Now().Format(logstore.TimestampLayout))
	if err := s.log.AppendRaw(marker); err != nil {
		s.logger.Warn("writing exit marker", "error", err)
	}
	s.logger.Info("agent exited", "pid", pid, "state", state, "error", waitErr)

	if recorded, ok := s.readPID(); ok && recorded == pid {
		_ = os.Remove(s.paths.PIDFile)
	}
}

// readPID returns the recorded pid. The second result reports whether
// a pid file exists at all; unparseable content yields pid 0.
func (s *Supervisor) readPID() (int, bool) {
	data, err := os.ReadFile(s.paths.PIDFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, true
	}
	return pid, true
}

func (s *Supervisor) writePID(pid int) error {
	if err := s.paths.EnsureStateDir(); err != nil {
		return err
	}
	temporaryPath := s.paths.PIDFile + ".tmp"
	if err := os.WriteFile(temporaryPath, []byte(strconv.Itoa(pid)+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	if err := os.Rename(temporaryPath, s.paths.PIDFile); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming pid file: %w", err)
	}
	return nil
}

// openInput creates the input FIFO if needed and opens it read-write.
// Read-write keeps the open from blocking and keeps a writer attached,
// so the agent never sees EOF between control-plane invocations.
func (s *Supervisor) openInput() (*os.File, error) {
	if err := s.paths.EnsureStateDir(); err != nil {
		return nil, err
	}

	path := s.paths.InputFIFO
	info, err := os.Lstat(path)
	if err == nil && info.Mode()&os.ModeNamedPipe == 0 {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("replacing %s: %w", path, err)
		}
		err = os.ErrNotExist
	}
	if errors.Is(err, os.ErrNotExist) {
		if err := unix.Mkfifo(path, 0o600); err != nil && !errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("creating input fifo %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening input fifo: %w", err)
	}
	return file, nil
}

// lock takes the cross-process lifecycle lock.
func (s *Supervisor) lock() (func(), error) {
	if err := s.paths.EnsureStateDir(); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(s.paths.LockFile, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	descriptor := int(file.Fd())
	if err := unix.Flock(descriptor, unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("locking %s: %w", s.paths.LockFile, err)
	}
	return func() {
		_ = unix.Flock(descriptor, unix.LOCK_UN)
		file.Close()
	}, nil
}

// alive probes pid with signal 0. EPERM means the process exists but
// belongs to someone else.
func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// signalProcess signals pid's process group when pid leads one, and
// pid alone otherwise.
func signalProcess(pid int, signal unix.Signal) error {
	if group, err := unix.Getpgid(pid); err == nil && group == pid {
		if err := unix.Kill(-pid, signal); err == nil {
			return nil
		}
	}
	return unix.Kill(pid, signal)
}
