// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for autoglm-web.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. [Command.Execute] handles flag parsing, subcommand routing,
// and help output. Unknown subcommands and flags get a "did you mean"
// suggestion when an edit distance of at most 3 finds one.
//
// Flags are usually declared as tagged struct fields and bound with
// [FlagsFromParams]. Embedding [JSONOutput] adds a --json flag and
// [JSONOutput.EmitJSON].
package cli
