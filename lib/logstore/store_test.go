// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/autoglm-web/autoglm-web/lib/clock"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local))
	return New(filepath.Join(t.TempDir(), "web", "autoglm.log"), clk)
}

func TestTailMissingFile(t *testing.T) {
	store := newTestStore(t)

	offset, text := store.Tail(100)
	if offset != 0 || text != "" {
		t.Errorf("Tail on missing log = (%d, %q), want (0, \"\")", offset, text)
	}
	if store.Size() != 0 {
		t.Errorf("Size() = %d, want 0", store.Size())
	}
}

func TestAppendFormat(t *testing.T) {
	store := newTestStore(t)

	if err := store.Append("[note] hello\n"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Appendf("[adb tap] (%d,%d) -> %s", 10, 20, "ok"); err != nil {
		t.Fatalf("Appendf: %v", err)
	}

	_, text := store.Tail(0)
	want := "[2026-03-04 05:06:07] [note] hello\n[2026-03-04 05:06:07] [adb tap] (10,20) -> ok\n"
	if text != want {
		t.Errorf("log = %q, want %q", text, want)
	}
}

func TestTailIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendRaw("first line\nsecond line\n"); err != nil {
		t.Fatal(err)
	}

	offset1, text1 := store.Tail(6)
	offset2, text2 := store.Tail(6)
	if offset1 != offset2 || text1 != text2 {
		t.Errorf("Tail(6) not idempotent: (%d, %q) then (%d, %q)", offset1, text1, offset2, text2)
	}
	if text1 != "line\nsecond line\n" {
		t.Errorf("Tail(6) text = %q", text1)
	}
}

func TestTailMonotonic(t *testing.T) {
	store := newTestStore(t)

	var offset int64
	var collected strings.Builder
	for i := range 5 {
		if err := store.AppendRaw(fmt.Sprintf("chunk %d\n", i)); err != nil {
			t.Fatal(err)
		}
		next, text := store.Tail(offset)
		if next < offset {
			t.Fatalf("offset went backwards: %d -> %d", offset, next)
		}
		if text == "" {
			t.Fatalf("iteration %d: no new text", i)
		}
		collected.WriteString(text)
		offset = next
	}

	next, text := store.Tail(offset)
	if next != offset || text != "" {
		t.Errorf("Tail at EOF = (%d, %q), want (%d, \"\")", next, text, offset)
	}
	if !strings.HasPrefix(collected.String(), "chunk 0\n") || !strings.HasSuffix(collected.String(), "chunk 4\n") {
		t.Errorf("collected = %q", collected.String())
	}
}

func TestTailClampsInvalidOffsets(t *testing.T) {
	store := newTestStore(t)
	content := strings.Repeat("x", MaxChunk+500)
	if err := store.AppendRaw(content); err != nil {
		t.Fatal(err)
	}
	size := int64(len(content))

	for _, offset := range []int64{-1, size + 1, 1 << 40} {
		next, text := store.Tail(offset)
		if next != size {
			t.Errorf("Tail(%d) offset = %d, want %d", offset, next, size)
		}
		if len(text) != MaxChunk {
			t.Errorf("Tail(%d) returned %d bytes, want the last %d", offset, len(text), MaxChunk)
		}
	}
}

func TestTailSmallFileInvalidOffset(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendRaw("tiny\n"); err != nil {
		t.Fatal(err)
	}

	next, text := store.Tail(-50)
	if next != 5 || text != "tiny\n" {
		t.Errorf("Tail(-50) = (%d, %q), want (5, %q)", next, text, "tiny\n")
	}
}

func TestTailChunkBound(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendRaw(strings.Repeat("y", 2*MaxChunk+10)); err != nil {
		t.Fatal(err)
	}

	offset, text := store.Tail(0)
	if offset != MaxChunk || len(text) != MaxChunk {
		t.Errorf("first read = (%d, %d bytes), want (%d, %d bytes)", offset, len(text), MaxChunk, MaxChunk)
	}
	offset, _ = store.Tail(offset)
	offset, text = store.Tail(offset)
	if offset != 2*MaxChunk+10 || len(text) != 10 {
		t.Errorf("third read = (%d, %d bytes)", offset, len(text))
	}
}

func TestTailReplacesInvalidUTF8(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	raw := []byte("ok \xff\xfe done 中文\n")
	if err := os.WriteFile(store.Path(), raw, 0o644); err != nil {
		t.Fatal(err)
	}

	offset, text := store.Tail(0)
	if offset != int64(len(raw)) {
		t.Errorf("offset = %d, want %d (bytes read, not runes)", offset, len(raw))
	}
	if !strings.Contains(text, "�") {
		t.Errorf("text %q has no replacement character", text)
	}
	if !strings.HasPrefix(text, "ok ") || !strings.HasSuffix(text, "done 中文\n") {
		t.Errorf("valid text mangled: %q", text)
	}
}

func TestConcurrentAppendsStayWhole(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "autoglm.log"), nil)

	var wg sync.WaitGroup
	for writer := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				if err := store.AppendRaw(fmt.Sprintf("writer=%d line=%d\n", writer, i)); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("got %d lines, want 400", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "writer=") || !strings.Contains(line, " line=") {
			t.Fatalf("torn line %q", line)
		}
	}
}

func TestOpenWriterAppends(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendRaw("before\n"); err != nil {
		t.Fatal(err)
	}

	file, err := store.OpenWriter()
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	if _, err := file.WriteString("child output\n"); err != nil {
		t.Fatal(err)
	}
	file.Close()

	_, text := store.Tail(0)
	if text != "before\nchild output\n" {
		t.Errorf("log = %q", text)
	}
}

func TestWatchFiresOnAppend(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := store.AppendRaw("wake up\n"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification within 5s")
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-changes:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
