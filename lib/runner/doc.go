// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package runner executes step sequences against a device and the
// supervised agent.
//
// An [Engine] runs one sequence at a time, strictly in order, and stops
// after the first failing step. Every step appends a line to the shared
// log, so anyone tailing it sees progress as it happens. Step failures
// never surface as Go errors: they are results with OK false. The only
// errors RunSteps returns concern the sequence as a whole: the engine
// is busy, or the agent could not be started.
//
// Before the first step the engine makes sure the agent is running.
// The exception is a sequence consisting of exactly one autoglm_prompt
// step, which runs through the one-shot prompt path and needs no
// long-running agent.
package runner
