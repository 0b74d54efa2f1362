// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package logstore implements the append-only log that is the single
// source of truth for everything the supervised agent and the control
// plane emit.
//
// Writers only append: the agent's combined stdout/stderr is attached
// to a file descriptor opened with O_APPEND ([Store.OpenWriter]), and
// control-plane lines go through [Store.Append], which writes each line
// with a single write(2) on an O_APPEND descriptor under an in-process
// mutex. Bytes already written are never rewritten or reordered.
//
// Readers hold no state in the store. [Store.Tail] takes a byte offset
// and returns the next chunk plus the offset to present next time. The
// contract every consumer builds on:
//
//   - idempotent: same offset on an unchanged file gives the same
//     result;
//   - monotonic: the returned offset never goes below the presented
//     one, unless the presented one was invalid;
//   - forgiving: a negative or past-EOF offset degrades to the most
//     recent [MaxChunk] bytes instead of failing;
//   - lossy-safe: invalid UTF-8 is replaced with U+FFFD.
package logstore
