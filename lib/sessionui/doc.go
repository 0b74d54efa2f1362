// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionui is the terminal front end for an interactive
// session: a scrolling transcript above a single input line. Each
// submitted line goes to a [Sender] (normally a session.Manager) and
// the transcript it returns replaces the one on screen.
//
// Only one send is in flight at a time. Input typed while a reply is
// pending stays in the input line until the reply arrives.
package sessionui
