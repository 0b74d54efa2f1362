// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/autoglm-web/autoglm-web/lib/clock"
)

// MaxChunk is the largest number of bytes a single Tail returns.
const MaxChunk = 32000

// TimestampLayout formats the timestamp prefix of control-plane lines.
const TimestampLayout = "2006-01-02 15:04:05"

// Store is an append-only log file.
type Store struct {
	path  string
	clock clock.Clock

	// mu serializes appends from this process. O_APPEND already makes
	// each write land at the end; the mutex additionally keeps the
	// directory creation and open/write/close sequence tidy under
	// concurrent callers.
	mu sync.Mutex
}

// New returns a Store backed by the file at path. The file and its
// directory are created lazily on first append.
func New(path string, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{path: path, clock: clk}
}

// Path returns the log file path.
func (s *Store) Path() string { return s.path }

// Append writes "[YYYY-MM-DD HH:MM:SS] text\n" to the end of the log.
func (s *Store) Append(text string) error {
	line := "[" + s.clock.Now().Format(TimestampLayout) + "] " + strings.TrimRight(text, "\n") + "\n"
	return s.AppendRaw(line)
}

// Appendf formats according to a format specifier and appends the
// result as one timestamped line.
func (s *Store) Appendf(format string, args ...any) error {
	return s.Append(fmt.Sprintf(format, args...))
}

// AppendRaw writes data to the end of the log unchanged.
func (s *Store) AppendRaw(data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.openAppend()
	if err != nil {
		return err
	}
	_, writeErr := io.WriteString(file, data)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("appending to %s: %w", s.path, writeErr)
	}
	return closeErr
}

// OpenWriter opens the log for appending and returns the descriptor.
// The caller owns it; the supervisor hands it to the child process as
// stdout and stderr.
func (s *Store) OpenWriter() (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openAppend()
}

func (s *Store) openAppend() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	return file, nil
}

// Size returns the current end-of-file offset, or 0 when the log does
// not exist yet.
func (s *Store) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Tail reads at most MaxChunk bytes starting at offset and returns the
// offset to present next time together with the decoded text.
//
// A negative offset, or one past the end of the file, is clamped to
// max(0, size-MaxChunk). A missing log returns (0, ""). Any other read
// failure returns the clamped offset and empty text.
func (s *Store) Tail(offset int64) (int64, string) {
	file, err := os.Open(s.path)
	if err != nil {
		return 0, ""
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, ""
	}
	size := info.Size()
	if offset < 0 || offset > size {
		offset = max(0, size-MaxChunk)
	}

	buffer := make([]byte, MaxChunk)
	count, err := file.ReadAt(buffer, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return offset, ""
	}
	return offset + int64(count), strings.ToValidUTF8(string(buffer[:count]), "\uFFFD")
}
