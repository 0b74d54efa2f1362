// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/autoglm-web/autoglm-web/cmd/autoglm-web/cli"
	"github.com/autoglm-web/autoglm-web/lib/config"
	"github.com/autoglm-web/autoglm-web/lib/runner"
	"github.com/autoglm-web/autoglm-web/lib/step"
	"github.com/autoglm-web/autoglm-web/lib/supervisor"
)

// runCLI executes the command line against a temporary AUTOGLM_HOME
// and returns what the command wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var output bytes.Buffer
	previous := cli.Stdout
	cli.Stdout = &output
	t.Cleanup(func() { cli.Stdout = previous })

	err := run(args)
	return output.String(), err
}

func isolatedHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AUTOGLM_HOME", filepath.Join(home, "state"))
	t.Setenv("AUTOGLM_DIR", filepath.Join(home, "Open-AutoGLM"))
	return home
}

func TestRootCommandTree(t *testing.T) {
	root := rootCommand()
	seen := make(map[string]bool)
	var walk func(prefix string, command *cli.Command)
	walk = func(prefix string, command *cli.Command) {
		name := strings.TrimSpace(prefix + " " + command.Name)
		if seen[name] {
			t.Errorf("duplicate command %q", name)
		}
		seen[name] = true
		if command.Summary == "" {
			t.Errorf("command %q has no summary", name)
		}
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("command %q has neither Run nor subcommands", name)
		}
		if command.Flags != nil {
			// Binding twice must not panic on duplicate registration.
			command.Flags()
			command.Flags()
		}
		for _, sub := range command.Subcommands {
			walk(name, sub)
		}
	}
	walk("", root)

	for _, want := range []string{
		"autoglm-web status", "autoglm-web start", "autoglm-web stop",
		"autoglm-web logs", "autoglm-web send", "autoglm-web prompt",
		"autoglm-web app run", "autoglm-web task save", "autoglm-web interactive",
		"autoglm-web adb pair", "autoglm-web adb packages",
		"autoglm-web config set", "autoglm-web version",
	} {
		if !seen[want] {
			t.Errorf("command %q missing from tree", want)
		}
	}
}

func TestTemplateParamsResolve(t *testing.T) {
	t.Run("object then pairs", func(t *testing.T) {
		params := templateParams{
			Object: `{"city": "Beijing", "count": 3, /* comment */}`,
			Pairs:  []string{"city=Shanghai", "name = Lin=Wei"},
		}
		values, err := params.resolve()
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		want := step.Params{"city": "Shanghai", "count": float64(3), "name": " Lin=Wei"}
		if !reflect.DeepEqual(values, want) {
			t.Errorf("resolve() = %#v, want %#v", values, want)
		}
	})

	t.Run("empty", func(t *testing.T) {
		values, err := templateParams{}.resolve()
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if len(values) != 0 {
			t.Errorf("resolve() = %v, want empty", values)
		}
	})

	for _, params := range []templateParams{
		{Pairs: []string{"novalue"}},
		{Pairs: []string{"=value"}},
		{Object: `["not", "an", "object"]`},
	} {
		if _, err := params.resolve(); err == nil {
			t.Errorf("resolve(%+v) succeeded, want error", params)
		}
	}
}

func TestPrintResults(t *testing.T) {
	results := []runner.Result{
		{Type: step.TypeNote, OK: true, Output: "hello"},
		{Type: step.TypeApp, AppID: "wechat", OK: false, Children: []runner.Result{
			{Type: step.TypeADBShell, OK: true, Output: "line one\nline two\n"},
			{Type: step.TypeADBTap, OK: false, Output: "error: closed"},
		}},
	}
	var buffer bytes.Buffer
	printResults(&buffer, results, 0)

	want := "ok   note: hello\n" +
		"FAIL app wechat\n" +
		"  ok   adb_shell: line one\n" +
		"       line two\n" +
		"  FAIL adb_tap: error: closed\n"
	if buffer.String() != want {
		t.Errorf("printResults() =\n%s\nwant\n%s", buffer.String(), want)
	}
}

func TestDescribeSteps(t *testing.T) {
	if got := describeSteps(nil); got != "(no steps)" {
		t.Errorf("describeSteps(nil) = %q, want %q", got, "(no steps)")
	}
	steps := step.Sequence{step.Note{Text: "a"}, step.Sleep{MS: 10}, step.App{AppID: "x"}}
	if got, want := describeSteps(steps), "note, sleep, app"; got != want {
		t.Errorf("describeSteps() = %q, want %q", got, want)
	}
}

func TestRepliesAfter(t *testing.T) {
	transcript := []string{"> hi", "hello", "> next", "one", "two"}
	if got := repliesAfter(transcript, "> next"); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("repliesAfter() = %q, want [one two]", got)
	}
	if got := repliesAfter(transcript, "> missing"); len(got) != len(transcript) {
		t.Errorf("repliesAfter(missing) = %q, want full transcript", got)
	}
	if got := repliesAfter([]string{"> x"}, "> x"); len(got) != 0 {
		t.Errorf("repliesAfter(no replies) = %q, want empty", got)
	}
}

func TestAppRecordLifecycle(t *testing.T) {
	home := isolatedHome(t)
	recordPath := filepath.Join(home, "wechat.json")
	record := `{
		// opens the chat list
		"name": "WeChat",
		"steps": [
			{"type": "note", "text": "hi {{contact}}"},
			{"type": "app_launch", "package": "com.tencent.mm"},
		],
	}`
	if err := os.WriteFile(recordPath, []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCLI(t, "app", "save", "--id", "wechat", recordPath)
	if err != nil {
		t.Fatalf("app save: %v", err)
	}
	if output != "wechat\n" {
		t.Errorf("app save output = %q, want %q", output, "wechat\n")
	}

	output, err = runCLI(t, "app", "list", "--json")
	if err != nil {
		t.Fatalf("app list: %v", err)
	}
	var listed []struct {
		ID    string            `json:"id"`
		Name  string            `json:"name"`
		Steps []json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal([]byte(output), &listed); err != nil {
		t.Fatalf("app list --json output %q: %v", output, err)
	}
	if len(listed) != 1 || listed[0].ID != "wechat" || listed[0].Name != "WeChat" || len(listed[0].Steps) != 2 {
		t.Errorf("app list = %+v, want one WeChat app with 2 steps", listed)
	}

	output, err = runCLI(t, "app", "list")
	if err != nil {
		t.Fatalf("app list: %v", err)
	}
	if !strings.Contains(output, "note, app_launch") {
		t.Errorf("app list table = %q, missing step summary", output)
	}

	output, err = runCLI(t, "app", "show", "wechat")
	if err != nil {
		t.Fatalf("app show: %v", err)
	}
	if !strings.Contains(output, `"text": "hi {{contact}}"`) {
		t.Errorf("app show = %q, missing template text", output)
	}

	if _, err := runCLI(t, "app", "delete", "wechat"); err != nil {
		t.Fatalf("app delete: %v", err)
	}
	if _, err := runCLI(t, "app", "show", "wechat"); err == nil || !strings.Contains(err.Error(), "app not found") {
		t.Errorf("app show after delete error = %v, want app not found", err)
	}
	if _, err := runCLI(t, "app", "delete", "wechat"); err == nil {
		t.Error("second app delete succeeded, want error")
	}
}

func TestTaskSaveAssignsID(t *testing.T) {
	home := isolatedHome(t)
	recordPath := filepath.Join(home, "task.json")
	if err := os.WriteFile(recordPath, []byte(`{"name": "weather", "prompt": "check the weather"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCLI(t, "task", "save", recordPath)
	if err != nil {
		t.Fatalf("task save: %v", err)
	}
	id := strings.TrimSpace(output)
	if len(id) != 32 {
		t.Fatalf("task save id = %q, want 32 hex characters", id)
	}

	output, err = runCLI(t, "task", "show", id)
	if err != nil {
		t.Fatalf("task show: %v", err)
	}
	if !strings.Contains(output, `"prompt": "check the weather"`) {
		t.Errorf("task show = %q, missing prompt", output)
	}
}

func TestStatusNotRunning(t *testing.T) {
	home := isolatedHome(t)

	output, err := runCLI(t, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status supervisor.ProcessStatus
	if err := json.Unmarshal([]byte(output), &status); err != nil {
		t.Fatalf("status --json output %q: %v", output, err)
	}
	if status.Running {
		t.Error("Running = true, want false")
	}
	if status.WorkDir != filepath.Join(home, "Open-AutoGLM") {
		t.Errorf("WorkDir = %q, want AUTOGLM_DIR", status.WorkDir)
	}

	if _, err := runCLI(t, "stop"); err == nil {
		t.Error("stop with nothing running succeeded, want error")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	home := isolatedHome(t)

	if _, err := runCLI(t, "config", "set", "api_key", "sk-0123456789abcdef"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := runCLI(t, "config", "set", "no_such_key", "x"); err == nil {
		t.Error("config set of an unknown key succeeded, want error")
	}

	configPath := filepath.Join(home, "state", "config.yaml")
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	output, err := runCLI(t, "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var shown config.Config
	if err := json.Unmarshal([]byte(output), &shown); err != nil {
		t.Fatalf("config show --json output %q: %v", output, err)
	}
	if shown.APIKey != config.MaskKey("sk-0123456789abcdef") {
		t.Errorf("APIKey = %q, want masked", shown.APIKey)
	}

	output, err = runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(output, "sk-0123456789abcdef") || !strings.Contains(output, "api_key: sk-0") {
		t.Errorf("config show = %q, want masked api_key", output)
	}
}

func TestLogsReadsFromOffset(t *testing.T) {
	home := isolatedHome(t)
	logPath := filepath.Join(home, "state", "web", "autoglm.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logPath, []byte("first\nsecond\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCLI(t, "logs", "--offset", "6", "--json")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	var chunk logChunk
	if err := json.Unmarshal([]byte(output), &chunk); err != nil {
		t.Fatalf("logs --json output %q: %v", output, err)
	}
	if chunk.Offset != 13 || chunk.Text != "second\n" {
		t.Errorf("logs chunk = %+v, want {13 second\\n}", chunk)
	}
}

func TestVersionJSON(t *testing.T) {
	output, err := runCLI(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		t.Fatalf("version --json output %q: %v", output, err)
	}
	for _, key := range []string{"version", "commit", "go", "platform"} {
		if _, ok := info[key]; !ok {
			t.Errorf("version --json missing %q: %v", key, info)
		}
	}
}

func TestFollowLogDeliversAppends(t *testing.T) {
	isolatedHome(t)
	env, err := globalParams{}.open()
	if err != nil {
		t.Fatal(err)
	}
	if err := env.log.Append("first"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errStop := errors.New("stop following")
	var received strings.Builder
	err = followLog(ctx, env, 0, func(chunk logChunk) error {
		received.WriteString(chunk.Text)
		if strings.Contains(received.String(), "second") {
			return errStop
		}
		if err := env.log.Append("second"); err != nil {
			t.Errorf("Append: %v", err)
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("followLog() = %v, want the emit error", err)
	}
	if !strings.Contains(received.String(), "first") {
		t.Errorf("followed text = %q, missing first line", received.String())
	}
}

type scriptedSender struct {
	transcript []string
	failOn     string
}

func (sender *scriptedSender) Send(ctx context.Context, id, text string) ([]string, error) {
	if text == sender.failOn {
		return nil, errors.New("agent is not running")
	}
	sender.transcript = append(sender.transcript, "> "+text, "reply to "+text)
	return sender.transcript, nil
}

func TestConverse(t *testing.T) {
	sender := &scriptedSender{failOn: "broken"}
	input := strings.NewReader("hello\n\n  \nbroken\nagain\n/quit\nnever sent\n")
	var output bytes.Buffer

	if err := converse(context.Background(), sender, "s1", input, &output); err != nil {
		t.Fatalf("converse: %v", err)
	}
	want := "reply to hello\nerror: agent is not running\nreply to again\n"
	if output.String() != want {
		t.Errorf("converse output = %q, want %q", output.String(), want)
	}
	if len(sender.transcript) != 4 {
		t.Errorf("transcript = %q, want two exchanges", sender.transcript)
	}
}
