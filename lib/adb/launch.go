// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package adb

import (
	"context"
	"fmt"
	"strings"
)

// LaunchAction selects how StartApp launches an app.
type LaunchAction string

const (
	// LaunchAuto uses the launcher intent unless an activity is given.
	LaunchAuto LaunchAction = "auto"

	// LaunchMonkey always fires the launcher intent via monkey.
	LaunchMonkey LaunchAction = "monkey"

	// LaunchActivity starts the named activity with am start.
	LaunchActivity LaunchAction = "am"
)

// ValidateName checks a package or component name. Only ASCII letters,
// digits, '.', and '_' are allowed: these names are spliced into a
// device shell command line.
func ValidateName(name, field string) error {
	if name == "" {
		return fmt.Errorf("%s is empty", field)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '_') {
			return fmt.Errorf("invalid %s %q: only letters, digits, '.' and '_' are allowed", field, name)
		}
	}
	return nil
}

// launchCommand builds the device shell command for StartApp after
// validating every name that goes into it. An activity may be a bare
// class (".MainActivity") or a full component ("com.x/.MainActivity");
// each side of the slash is validated separately.
func launchCommand(pkg, activity string, action LaunchAction) (string, error) {
	if err := ValidateName(pkg, "package"); err != nil {
		return "", err
	}
	if activity != "" {
		for _, part := range strings.SplitN(activity, "/", 2) {
			if err := ValidateName(part, "activity"); err != nil {
				return "", err
			}
		}
	}
	if action == "" {
		action = LaunchAuto
	}

	switch {
	case action == LaunchMonkey, activity == "":
		return fmt.Sprintf("monkey -p %s -c android.intent.category.LAUNCHER 1", pkg), nil
	default:
		return fmt.Sprintf("am start -n %s/%s", pkg, activity), nil
	}
}

// StartApp launches pkg on the device. Invalid names are rejected
// before anything is sent to the device.
func (c *Client) StartApp(ctx context.Context, pkg, activity string, action LaunchAction) (bool, string) {
	command, err := launchCommand(pkg, activity, action)
	if err != nil {
		return false, err.Error()
	}
	return c.Shell(ctx, command)
}
