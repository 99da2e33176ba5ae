package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Action is the unit of work a tool runs behind the terminal UI. It returns
// human-readable detail lines on success.
type Action func(ctx context.Context) ([]string, error)

type actionMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	action  Action
	done    bool
	details []string
	err     error
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		details, err := m.action(context.Background())
		return actionMsg{details: details, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionMsg:
		m.done = true
		m.details = msg.details
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	if !m.done {
		fmt.Fprintf(&b, "%s: Running...\n", m.title)
		return b.String()
	}
	if m.err != nil {
		fmt.Fprintf(&b, "%s: FAILED: %v\n", m.title, m.err)
		return b.String()
	}
	fmt.Fprintf(&b, "%s: OK\n", m.title)
	for _, line := range m.details {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String()
}

// Run executes the action behind a minimal terminal UI and returns its
// result once the program exits.
func Run(title string, action Action) ([]string, error) {
	final, err := tea.NewProgram(model{title: title, action: action}).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(model)
	if !ok {
		return nil, fmt.Errorf("unexpected final model type %T", final)
	}
	return m.details, m.err
}
