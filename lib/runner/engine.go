// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/autoglm-web/autoglm-web/lib/adb"
	"github.com/autoglm-web/autoglm-web/lib/clock"
	"github.com/autoglm-web/autoglm-web/lib/config"
	"github.com/autoglm-web/autoglm-web/lib/logstore"
	"github.com/autoglm-web/autoglm-web/lib/step"
	"github.com/autoglm-web/autoglm-web/lib/store"
	"github.com/autoglm-web/autoglm-web/lib/supervisor"
)

var (
	ErrBusy         = errors.New("another step sequence is running")
	ErrStartFailed  = errors.New("failed to start agent")
	ErrAppNotFound  = errors.New("app not found")
	ErrTaskNotFound = errors.New("task not found")
)

// MaxSleepMS is the longest sleep step, the largest millisecond count a
// time.Duration can hold.
const MaxSleepMS = math.MaxInt64 / int64(time.Millisecond)

// MaxAppDepth bounds how deeply app steps may nest. Apps that reference
// each other in a cycle fail at this depth instead of recursing forever.
const MaxAppDepth = 8

// Device is the device-control surface the engine drives. *adb.Client
// satisfies it.
type Device interface {
	Shell(ctx context.Context, command string) (bool, string)
	InputText(ctx context.Context, text string) (bool, string)
	Tap(ctx context.Context, x, y int) (bool, string)
	Swipe(ctx context.Context, x1, y1, x2, y2, durationMS int) (bool, string)
	KeyEvent(ctx context.Context, key string) (bool, string)
	StartApp(ctx context.Context, pkg, activity string, action adb.LaunchAction) (bool, string)
}

// Agent is the part of the supervisor the engine uses. *supervisor.Supervisor
// satisfies it.
type Agent interface {
	Status() supervisor.ProcessStatus
	EnsureRunning(cfg *config.Config) (string, error)
	RunPromptOnce(ctx context.Context, cfg *config.Config, prompt string) (string, error)
}

// Records resolves stored apps and tasks. *store.Store satisfies it.
type Records interface {
	FindApp(id string) (store.App, bool, error)
	FindTask(id string) (store.Task, bool, error)
}

// Config holds the dependencies of an Engine.
type Config struct {
	Device  Device
	Agent   Agent
	Records Records

	// Log receives one line per executed step. Required.
	Log *logstore.Store

	// AgentConfig returns the agent launch configuration. It is called
	// whenever the engine needs to start the agent or run a prompt, so
	// edits to the config file take effect without restarting.
	AgentConfig func() (*config.Config, error)

	// Clock paces sleep steps. Nil means the real clock.
	Clock clock.Clock

	// Logger receives operational diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Engine runs step sequences one at a time.
type Engine struct {
	device      Device
	agent       Agent
	records     Records
	log         *logstore.Store
	agentConfig func() (*config.Config, error)
	clock       clock.Clock
	logger      *slog.Logger

	// running is held for the duration of one sequence.
	running sync.Mutex
}

// New creates an Engine.
func New(cfg Config) *Engine {
	engine := &Engine{
		device:      cfg.Device,
		agent:       cfg.Agent,
		records:     cfg.Records,
		log:         cfg.Log,
		agentConfig: cfg.AgentConfig,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}
	if engine.clock == nil {
		engine.clock = clock.Real()
	}
	if engine.logger == nil {
		engine.logger = slog.New(slog.DiscardHandler)
	}
	if engine.agentConfig == nil {
		engine.agentConfig = func() (*config.Config, error) { return config.Default(), nil }
	}
	return engine
}

// RunSteps executes steps in order with params substituted into their
// string fields. It returns the result of every executed step; the last
// result is the first failure, if any.
func (e *Engine) RunSteps(ctx context.Context, steps step.Sequence, params step.Params) ([]Result, error) {
	if !e.running.TryLock() {
		return nil, ErrBusy
	}
	defer e.running.Unlock()

	if !promptShortcut(steps) {
		if err := e.ensureAgent(); err != nil {
			return nil, err
		}
	}
	return e.runSequence(ctx, steps, params, 0), nil
}

// RunApp runs a stored app's steps.
func (e *Engine) RunApp(ctx context.Context, id string, params step.Params) ([]Result, error) {
	app, found, err := e.records.FindApp(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, id)
	}
	return e.RunSteps(ctx, app.Steps, params)
}

// RunTask runs a stored task. A task with no steps but a prompt runs
// the prompt as its only step.
func (e *Engine) RunTask(ctx context.Context, id string, params step.Params) ([]Result, error) {
	task, found, err := e.records.FindTask(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	steps := task.Steps
	if len(steps) == 0 && strings.TrimSpace(task.Prompt) != "" {
		steps = step.Sequence{step.Prompt{Text: task.Prompt}}
	}
	return e.RunSteps(ctx, steps, params)
}

func promptShortcut(steps step.Sequence) bool {
	if len(steps) != 1 {
		return false
	}
	_, ok := steps[0].(step.Prompt)
	return ok
}

func (e *Engine) ensureAgent() error {
	if e.agent.Status().Running {
		return nil
	}
	cfg, err := e.agentConfig()
	if err != nil {
		e.appendf("[autoglm] start: %v", err)
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}
	message, err := e.agent.EnsureRunning(cfg)
	if err != nil {
		e.appendf("[autoglm] start: %v", err)
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}
	e.appendf("[autoglm] start: %s", message)
	return nil
}

func (e *Engine) runSequence(ctx context.Context, steps step.Sequence, params step.Params, depth int) []Result {
	results := make([]Result, 0, len(steps))
	for _, item := range steps {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Type: string(item.StepType()), Output: err.Error()})
			break
		}
		result := e.runStep(ctx, item, params, depth)
		results = append(results, result)
		if !result.OK {
			break
		}
	}
	return results
}

func (e *Engine) runStep(ctx context.Context, item step.Step, params step.Params, depth int) Result {
	result := Result{Type: string(item.StepType())}

	switch s := item.(type) {
	case step.Note:
		text := e.render(s.Text, params)
		e.appendf("[note] %s", text)
		result.OK, result.Output = true, text

	case step.Sleep:
		ms := min(max(int64(s.MS), 0), MaxSleepMS)
		e.clock.Sleep(time.Duration(ms) * time.Millisecond)
		e.appendf("[sleep] %dms", ms)
		result.OK, result.Output = true, fmt.Sprintf("sleep %dms", ms)

	case step.Shell:
		command := e.render(s.Command, params)
		result.OK, result.Output = e.device.Shell(ctx, command)
		e.appendf("[adb shell] %s -> %s", command, result.Output)

	case step.Input:
		text := e.render(s.Text, params)
		result.OK, result.Output = e.device.InputText(ctx, text)
		e.appendf("[adb input] %s -> %s", text, result.Output)

	case step.Tap:
		result.OK, result.Output = e.device.Tap(ctx, s.X, s.Y)
		e.appendf("[adb tap] (%d,%d) -> %s", s.X, s.Y, result.Output)

	case step.Swipe:
		result.OK, result.Output = e.device.Swipe(ctx, s.X1, s.Y1, s.X2, s.Y2, s.DurationMS)
		e.appendf("[adb swipe] (%d,%d)->(%d,%d) %dms -> %s", s.X1, s.Y1, s.X2, s.Y2, s.DurationMS, result.Output)

	case step.KeyEvent:
		key := e.render(s.Key, params)
		result.OK, result.Output = e.device.KeyEvent(ctx, key)
		e.appendf("[adb keyevent] %s -> %s", key, result.Output)

	case step.AppLaunch:
		pkg := e.render(s.Package, params)
		activity := e.render(s.Activity, params)
		result.OK, result.Output = e.device.StartApp(ctx, pkg, activity, adb.LaunchAction(s.Action))
		e.appendf("[app launch] %s -> %s", strings.TrimSpace(pkg+" "+activity), result.Output)

	case step.Prompt:
		result.OK, result.Output = e.runPrompt(ctx, e.render(s.Text, params))

	case step.App:
		return e.runApp(ctx, e.render(s.AppID, params), params, depth)

	default:
		result.Output = fmt.Sprintf("unknown step type: %s", item.StepType())
		e.appendf("[step] %s", result.Output)
	}
	return result
}

func (e *Engine) runPrompt(ctx context.Context, text string) (bool, string) {
	e.appendf("[autoglm prompt] %s", text)

	cfg, err := e.agentConfig()
	if err != nil {
		e.appendf("[autoglm prompt] failed: %v", err)
		return false, err.Error()
	}
	output, err := e.agent.RunPromptOnce(ctx, cfg, text)
	if err != nil {
		e.appendf("[autoglm prompt] failed: %v", err)
		return false, err.Error()
	}
	return true, output
}

func (e *Engine) runApp(ctx context.Context, id string, params step.Params, depth int) Result {
	result := Result{Type: string(step.TypeApp), AppID: id}

	if depth >= MaxAppDepth {
		result.Output = fmt.Sprintf("app nesting exceeds %d levels: %s", MaxAppDepth, id)
		e.appendf("[app] %s", result.Output)
		return result
	}
	app, found, err := e.records.FindApp(id)
	if err != nil {
		result.Output = err.Error()
		e.appendf("[app] %s", result.Output)
		return result
	}
	if !found {
		result.Output = "app not found: " + id
		e.appendf("[app] %s", result.Output)
		return result
	}

	e.appendf("[app] %s %s", id, app.Name)
	result.Children = e.runSequence(ctx, app.Steps, params, depth+1)
	result.OK = AllOK(result.Children)
	return result
}

// render substitutes params into text. A template that does not render
// is used literally.
func (e *Engine) render(text string, params step.Params) string {
	rendered, err := step.Render(text, params)
	if err != nil {
		e.logger.Warn("template not rendered, using literal text", "template", text, "error", err)
	}
	return rendered
}

func (e *Engine) appendf(format string, args ...any) {
	if err := e.log.Appendf(format, args...); err != nil {
		e.logger.Warn("appending to log", "error", err)
	}
}
