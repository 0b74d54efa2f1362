// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor owns the lifecycle of the single long-running
// agent process.
//
// All state lives on disk under the state directory so that any number
// of short-lived control-plane invocations agree on it:
//
//   - autoglm.pid holds the pid of the running agent (mode 0600). It is
//     the only record of the process; [Supervisor.Status] probes the pid
//     with signal 0 on every call and purges the file when the process
//     is gone.
//   - autoglm.log receives the agent's combined stdout and stderr. The
//     supervisor appends its own markers to the same file.
//   - autoglm.stdin is a named pipe the agent reads as its stdin. The
//     agent holds it open read-write, so the pipe never reports EOF and
//     [Supervisor.SendInput] from a later invocation can still deliver
//     a line.
//   - autoglm.lock is flock'd around Start and Stop.
//
// [Supervisor.RunPromptOnce] is separate from the long-running process:
// it spawns a transient agent for a single prompt and waits for it.
package supervisor
