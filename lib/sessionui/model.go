// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package sessionui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Sender delivers one line of input to a session and returns the
// session's transcript afterwards.
type Sender interface {
	Send(ctx context.Context, id, text string) ([]string, error)
}

// replyMsg carries the outcome of one send back into Update.
type replyMsg struct {
	transcript []string
	err        error
}

// Model is the bubbletea model of an interactive session.
type Model struct {
	ctx       context.Context
	sender    Sender
	sessionID string
	title     string

	theme Theme
	keys  KeyMap

	input    textinput.Model
	viewport viewport.Model

	transcript []string
	lastError  error
	pending    bool

	width  int
	height int
	ready  bool
}

// NewModel creates the view for session id. ctx bounds every send;
// title is shown in the header line.
func NewModel(ctx context.Context, sender Sender, id, title string) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "type to the agent, /quit to leave"
	input.CharLimit = 4096
	input.Focus()

	return Model{
		ctx:       ctx,
		sender:    sender,
		sessionID: id,
		title:     title,
		theme:     DefaultTheme,
		keys:      DefaultKeyMap,
		input:     input,
		viewport:  viewport.New(80, 20),
	}
}

// Transcript returns the transcript currently on screen.
func (model Model) Transcript() []string {
	return model.transcript
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.layout()
		return model, nil

	case replyMsg:
		model.pending = false
		model.lastError = message.err
		if message.transcript != nil {
			model.transcript = message.transcript
		}
		model.refresh()
		return model, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.PageUp):
			model.viewport.HalfViewUp()
			return model, nil
		case key.Matches(message, model.keys.PageDown):
			model.viewport.HalfViewDown()
			return model, nil
		case key.Matches(message, model.keys.Submit):
			return model.submit()
		}
	}

	var command tea.Cmd
	model.input, command = model.input.Update(message)
	return model, command
}

// submit sends the input line unless a send is already pending.
func (model Model) submit() (tea.Model, tea.Cmd) {
	if model.pending {
		return model, nil
	}
	text := strings.TrimSpace(model.input.Value())
	if text == "" {
		return model, nil
	}
	if text == "/quit" || text == "/exit" {
		return model, tea.Quit
	}

	model.input.SetValue("")
	model.pending = true
	model.lastError = nil
	model.refresh()

	ctx, sender, id := model.ctx, model.sender, model.sessionID
	return model, func() tea.Msg {
		transcript, err := sender.Send(ctx, id, text)
		return replyMsg{transcript: transcript, err: err}
	}
}

// layout sizes the transcript to the window: one header line, one
// status line, and the input line.
func (model *Model) layout() {
	model.viewport.Width = max(model.width, 1)
	model.viewport.Height = max(model.height-3, 1)
	model.input.Width = max(model.width-len(model.input.Prompt)-1, 1)
	model.refresh()
}

// refresh re-renders the transcript into the viewport and keeps the
// newest line in view.
func (model *Model) refresh() {
	lines := make([]string, len(model.transcript))
	for index, line := range model.transcript {
		lines[index] = model.theme.line(line)
	}
	model.viewport.SetContent(strings.Join(lines, "\n"))
	model.viewport.GotoBottom()
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	header := model.theme.header().
		Width(max(model.width, 1)).
		Render(fmt.Sprintf("%s  session %s", model.title, model.sessionID))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		model.viewport.View(),
		model.statusLine(),
		model.input.View(),
	)
}

func (model Model) statusLine() string {
	switch {
	case model.lastError != nil:
		return lipgloss.NewStyle().Foreground(model.theme.ErrorText).Render("error: " + model.lastError.Error())
	case model.pending:
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("waiting for the agent...")
	default:
		help := fmt.Sprintf("%s %s  %s %s",
			model.keys.Submit.Help().Key, model.keys.Submit.Help().Desc,
			model.keys.Quit.Help().Key, model.keys.Quit.Help().Desc)
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(help)
	}
}
