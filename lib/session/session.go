// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package session multiplexes interactive conversations over the one
// shared agent log.
//
// A session remembers where in the log it started reading. Each Send
// delivers a line to the agent, then polls the log from the session's
// offset until the agent produces output. Lines the manager itself
// wrote for any session are recognized by their "[session <id>]" tag
// and skipped, so sessions never read their own or each other's
// echoes. Everything else is agent output, and every session whose
// offset precedes it reads it.
//
// Sessions live in memory only. The table is capped; creating a
// session beyond the cap evicts the oldest.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoglm-web/autoglm-web/lib/clock"
	"github.com/autoglm-web/autoglm-web/lib/logstore"
	"github.com/autoglm-web/autoglm-web/lib/supervisor"
)

const (
	// MaxSessions caps the session table.
	MaxSessions = 50

	// TranscriptLines is how many lines a session retains, and how
	// many Log returns.
	TranscriptLines = 50

	// ReplyLines is how many trailing transcript lines Send returns.
	ReplyLines = 20

	// PollAttempts and PollInterval bound how long Send waits for the
	// agent to respond.
	PollAttempts = 10
	PollInterval = 500 * time.Millisecond
)

var (
	ErrUnknownSession = errors.New("unknown session")

	// ErrNotRunning is the supervisor's sentinel, so callers can test
	// either package's error with errors.Is.
	ErrNotRunning = supervisor.ErrNotRunning
)

// sessionTagged matches log lines the manager wrote on behalf of a
// session: "[YYYY-MM-DD HH:MM:SS] [session <id>] ...".
var sessionTagged = regexp.MustCompile(`^\[[^\]]*\] \[session [0-9a-f-]+\] `)

// Agent is the part of the supervisor sessions use.
// *supervisor.Supervisor satisfies it.
type Agent interface {
	Status() supervisor.ProcessStatus
	SendInput(text string) (string, error)
	Tail(offset int64) (int64, string)
}

// Config holds the dependencies of a Manager.
type Config struct {
	Agent Agent

	// Log is the shared log sessions append to. Its size at session
	// creation becomes the session's starting offset. Required.
	Log *logstore.Store

	// Clock paces polling. Nil means the real clock.
	Clock clock.Clock

	// Logger receives operational diagnostics. Nil discards them.
	Logger *slog.Logger
}

type session struct {
	id string

	// sendMu serializes Send on this session. It is held while
	// polling, so transcript reads use mu instead.
	sendMu sync.Mutex
	offset int64

	mu         sync.Mutex
	transcript []string
}

func (s *session) add(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, lines...)
	if excess := len(s.transcript) - TranscriptLines; excess > 0 {
		s.transcript = append([]string(nil), s.transcript[excess:]...)
	}
}

func (s *session) last(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := max(len(s.transcript)-n, 0)
	return append([]string{}, s.transcript[start:]...)
}

// Manager owns the session table.
type Manager struct {
	agent  Agent
	log    *logstore.Store
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	order    []string
}

// NewManager creates an empty session table.
func NewManager(cfg Config) *Manager {
	manager := &Manager{
		agent:    cfg.Agent,
		log:      cfg.Log,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		sessions: make(map[string]*session),
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}
	return manager
}

// New creates a session that will read the log from its current end
// and returns the session id.
func (m *Manager) New() string {
	created := &session{id: uuid.NewString(), offset: m.log.Size()}

	m.mu.Lock()
	m.sessions[created.id] = created
	m.order = append(m.order, created.id)
	for len(m.order) > MaxSessions {
		evicted := m.order[0]
		m.order = m.order[1:]
		delete(m.sessions, evicted)
		m.logger.Debug("session evicted", "session", evicted)
	}
	m.mu.Unlock()

	m.appendf(created.id, "started")
	return created.id
}

// Send delivers text to the agent on behalf of session id and waits
// briefly for output. It returns the session's most recent transcript
// lines.
func (m *Manager) Send(ctx context.Context, id, text string) ([]string, error) {
	current := m.lookup(id)
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	current.sendMu.Lock()
	defer current.sendMu.Unlock()

	if !m.agent.Status().Running {
		return nil, ErrNotRunning
	}
	lines := inputLines(text)
	if _, err := m.agent.SendInput(strings.Join(lines, "\n")); err != nil {
		return nil, err
	}
	for _, line := range lines {
		current.add("> " + line)
		m.appendf(id, "> "+line)
	}

	for attempt := 0; attempt < PollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return current.last(ReplyLines), err
		}
		select {
		case <-ctx.Done():
			return current.last(ReplyLines), ctx.Err()
		case <-m.clock.After(PollInterval):
		}

		offset, chunk := m.agent.Tail(current.offset)
		current.offset = offset

		lines := agentLines(chunk)
		if len(lines) == 0 {
			continue
		}
		current.add(lines...)
		for _, line := range lines {
			m.appendf(id, "< "+line)
		}
		break
	}
	return current.last(ReplyLines), nil
}

// Log returns the last TranscriptLines lines of session id, or an
// empty list for an unknown session.
func (m *Manager) Log(id string) []string {
	current := m.lookup(id)
	if current == nil {
		return []string{}
	}
	return current.last(TranscriptLines)
}

func (m *Manager) lookup(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *Manager) appendf(id, text string) {
	if err := m.log.Appendf("[session %s] %s", id, text); err != nil {
		m.logger.Warn("appending session line", "session", id, "error", err)
	}
}

// inputLines splits text into the lines delivered to the agent. Blank
// lines are dropped; an all-blank text is a single empty line. Each line
// is echoed to the log with its own session tag.
func inputLines(text string) []string {
	var lines []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// agentLines splits a log chunk into non-blank lines, dropping lines
// written on behalf of sessions.
func agentLines(chunk string) []string {
	var lines []string
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || sessionTagged.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
