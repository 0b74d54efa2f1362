// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/autoglm-web/autoglm-web/lib/runner"
	"github.com/autoglm-web/autoglm-web/lib/step"
)

// printResults writes one line per result, nesting composite app
// results under their app.
func printResults(w io.Writer, results []runner.Result, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, result := range results {
		mark := "ok  "
		if !result.OK {
			mark = "FAIL"
		}
		if result.Composite() {
			fmt.Fprintf(w, "%s%s app %s\n", indent, mark, result.AppID)
			printResults(w, result.Children, depth+1)
			continue
		}
		output := strings.TrimRight(result.Output, "\n")
		output = strings.ReplaceAll(output, "\n", "\n"+indent+"     ")
		fmt.Fprintf(w, "%s%s %s: %s\n", indent, mark, result.Type, output)
	}
}

// describeSteps summarizes a step list as its type names.
func describeSteps(steps step.Sequence) string {
	if len(steps) == 0 {
		return "(no steps)"
	}
	names := make([]string, len(steps))
	for index, item := range steps {
		names[index] = string(item.StepType())
	}
	return strings.Join(names, ", ")
}
