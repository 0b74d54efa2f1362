// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package store keeps named app and task definitions in two JSON files.
// Each file is an array of records. Files are read as JSONC (comments
// and trailing commas allowed) so they can be edited by hand, and are
// rewritten atomically (temporary file + rename) on every change.
//
// A missing file is an empty collection. A malformed file is an error:
// silently treating it as empty would let the next upsert overwrite
// every record in it.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/jsonc"

	"github.com/autoglm-web/autoglm-web/lib/step"
)

// Record is anything stored with an id.
type Record interface {
	RecordID() string
}

// App is a reusable, named step sequence. Tasks reference apps through
// "app" steps.
type App struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Steps       step.Sequence `json:"steps"`
}

// Task is a named step sequence that may also carry a free-form prompt
// for the agent.
type Task struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Prompt      string        `json:"prompt"`
	Steps       step.Sequence `json:"steps"`
}

func (a App) RecordID() string  { return a.ID }
func (t Task) RecordID() string { return t.ID }

// FindByID returns the first record whose id matches.
func FindByID[T Record](records []T, id string) (T, bool) {
	for _, record := range records {
		if record.RecordID() == id {
			return record, true
		}
	}
	var zero T
	return zero, false
}

// Store reads and writes the app and task files.
type Store struct {
	appsPath  string
	tasksPath string

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// New returns a Store over the two files. Neither needs to exist.
func New(appsPath, tasksPath string) *Store {
	return &Store{appsPath: appsPath, tasksPath: tasksPath}
}

// ListApps returns every stored app.
func (s *Store) ListApps() ([]App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[App](s.appsPath)
}

// ListTasks returns every stored task.
func (s *Store) ListTasks() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[Task](s.tasksPath)
}

// FindApp looks up one app by id.
func (s *Store) FindApp(id string) (App, bool, error) {
	apps, err := s.ListApps()
	if err != nil {
		return App{}, false, err
	}
	app, found := FindByID(apps, id)
	return app, found, nil
}

// FindTask looks up one task by id.
func (s *Store) FindTask(id string) (Task, bool, error) {
	tasks, err := s.ListTasks()
	if err != nil {
		return Task{}, false, err
	}
	task, found := FindByID(tasks, id)
	return task, found, nil
}

// UpsertApp replaces the app with the same id, or appends it. An empty
// id is assigned a fresh one. Returns the stored app.
func (s *Store) UpsertApp(app App) (App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := load[App](s.appsPath)
	if err != nil {
		return App{}, err
	}
	if app.ID == "" {
		app.ID = newID()
	}
	apps = upsert(apps, app)
	return app, save(s.appsPath, apps)
}

// UpsertTask replaces the task with the same id, or appends it. An
// empty id is assigned a fresh one. Returns the stored task.
func (s *Store) UpsertTask(task Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := load[Task](s.tasksPath)
	if err != nil {
		return Task{}, err
	}
	if task.ID == "" {
		task.ID = newID()
	}
	tasks = upsert(tasks, task)
	return task, save(s.tasksPath, tasks)
}

// DeleteApp removes an app. Reports whether anything was removed.
func (s *Store) DeleteApp(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove[App](s.appsPath, id)
}

// DeleteTask removes a task. Reports whether anything was removed.
func (s *Store) DeleteTask(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove[Task](s.tasksPath, id)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func upsert[T Record](records []T, record T) []T {
	for index := range records {
		if records[index].RecordID() == record.RecordID() {
			records[index] = record
			return records
		}
	}
	return append(records, record)
}

func remove[T Record](path, id string) (bool, error) {
	records, err := load[T](path)
	if err != nil {
		return false, err
	}
	kept := records[:0]
	for _, record := range records {
		if record.RecordID() != id {
			kept = append(kept, record)
		}
	}
	if len(kept) == len(records) {
		return false, nil
	}
	return true, save(path, kept)
}

func load[T Record](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []T
	if err := json.Unmarshal(jsonc.ToJSON(data), &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

func save[T Record](path string, records []T) error {
	if records == nil {
		records = []T{}
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	temporaryPath := path + ".tmp"
	if err := os.WriteFile(temporaryPath, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s: %w", temporaryPath, err)
	}
	return nil
}
