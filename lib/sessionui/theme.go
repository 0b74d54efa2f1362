// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package sessionui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the session view, in ANSI 256-color
// codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	EchoText   lipgloss.Color
	ErrorText  lipgloss.Color

	HeaderForeground lipgloss.Color
	HeaderBackground lipgloss.Color
}

// DefaultTheme is used when the caller does not supply one.
var DefaultTheme = Theme{
	NormalText:       lipgloss.Color("252"),
	FaintText:        lipgloss.Color("243"),
	EchoText:         lipgloss.Color("75"),
	ErrorText:        lipgloss.Color("203"),
	HeaderForeground: lipgloss.Color("230"),
	HeaderBackground: lipgloss.Color("60"),
}

func (theme Theme) header() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.HeaderForeground).
		Background(theme.HeaderBackground).
		Bold(true).
		Padding(0, 1)
}

// line styles one transcript line: the session's own input echoes
// ("> text") stand out from the agent's output.
func (theme Theme) line(text string) string {
	if len(text) >= 2 && text[:2] == "> " {
		return lipgloss.NewStyle().Foreground(theme.EchoText).Render(text)
	}
	return lipgloss.NewStyle().Foreground(theme.NormalText).Render(text)
}
