// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package adb

import (
	"context"
	"strings"
	"time"
)

// Device is one line of "adb devices -l".
type Device struct {
	Serial      string `json:"serial"`
	Status      string `json:"status"`
	Product     string `json:"product,omitempty"`
	Model       string `json:"model,omitempty"`
	Name        string `json:"device,omitempty"`
	TransportID string `json:"transport_id,omitempty"`
}

// Devices lists attached devices. An adb failure yields an empty list.
func (c *Client) Devices(ctx context.Context) []Device {
	code, output := c.run(ctx, DefaultTimeout, "devices", "-l")
	if code != 0 {
		return nil
	}
	return parseDevices(output)
}

// parseDevices parses "adb devices -l" output. The first non-empty line
// is the "List of devices attached" header.
func parseDevices(output string) []Device {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil
	}

	var devices []Device
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		device := Device{Serial: fields[0], Status: fields[1]}
		for _, field := range fields[2:] {
			key, value, found := strings.Cut(field, ":")
			if !found {
				continue
			}
			switch key {
			case "product":
				device.Product = value
			case "model":
				device.Model = value
			case "device":
				device.Name = value
			case "transport_id":
				device.TransportID = value
			}
		}
		devices = append(devices, device)
	}
	return devices
}

// Pair pairs with a device over wireless debugging.
func (c *Client) Pair(ctx context.Context, hostPort, code string) (bool, string) {
	exitCode, output := c.run(ctx, 60*time.Second, "pair", hostPort, code)
	return exitCode == 0, output
}

// Connect connects to a device over TCP.
func (c *Client) Connect(ctx context.Context, hostPort string) (bool, string) {
	code, output := c.run(ctx, 30*time.Second, "connect", hostPort)
	return code == 0, output
}

// Disconnect disconnects one TCP device, or all of them when hostPort
// is empty.
func (c *Client) Disconnect(ctx context.Context, hostPort string) (bool, string) {
	args := []string{"disconnect"}
	if hostPort != "" {
		args = append(args, hostPort)
	}
	code, output := c.run(ctx, 30*time.Second, args...)
	return code == 0, output
}

// RestartServer restarts the adb server.
func (c *Client) RestartServer(ctx context.Context) (bool, string) {
	killCode, killOutput := c.run(ctx, 10*time.Second, "kill-server")
	startCode, startOutput := c.run(ctx, 10*time.Second, "start-server")

	var parts []string
	for _, part := range []string{killOutput, startOutput} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return killCode == 0 && startCode == 0, strings.Join(parts, "\n")
}

// ListPackages lists installed packages, third-party only when
// thirdParty is set. An adb failure yields an empty list.
func (c *Client) ListPackages(ctx context.Context, thirdParty bool) []string {
	args := []string{"shell", "pm", "list", "packages"}
	if thirdParty {
		args = append(args, "-3")
	}
	code, output := c.run(ctx, 30*time.Second, args...)
	if code != 0 {
		return nil
	}

	var packages []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		packages = append(packages, strings.TrimPrefix(line, "package:"))
	}
	return packages
}
