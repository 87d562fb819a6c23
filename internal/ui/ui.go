// Package ui renders the terminal interface with Bubble Tea. Items are
// plain text; nothing user- or remote-controlled is ever passed to a
// shell.
package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user backs out of a picker.
var ErrCancelled = errors.New("selection cancelled")

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// row is a generic two-line list entry.
type row struct {
	title string
	desc  string
}

func (r row) Title() string       { return r.title }
func (r row) Description() string { return r.desc }
func (r row) FilterValue() string { return r.title }

// pickModel is a one-shot list picker.
type pickModel struct {
	list     list.Model
	selected int
}

func newPickModel(prompt string, items []list.Item, showDesc bool) pickModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = showDesc

	l := list.New(items, delegate, 0, 0)
	l.Title = prompt
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return pickModel{list: l, selected: -1}
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		// Don't intercept keys while the user is filtering.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter":
			m.selected = m.list.Index()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickModel) View() string {
	return m.list.View()
}

// Select presents items and returns the chosen index. Descriptions, when
// provided, are shown as the second line of each entry.
func Select(prompt string, items []string, descriptions []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	rows := make([]list.Item, len(items))
	for i, item := range items {
		r := row{title: item}
		if i < len(descriptions) {
			r.desc = descriptions[i]
		}
		rows[i] = r
	}

	m := newPickModel(prompt, rows, len(descriptions) > 0)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return -1, fmt.Errorf("running picker: %w", err)
	}

	picked := final.(pickModel).selected
	if picked < 0 {
		return -1, ErrCancelled
	}
	return picked, nil
}

// Confirm asks the user a yes/no question.
func Confirm(prompt string) (bool, error) {
	idx, err := Select(prompt, []string{"Yes", "No"}, nil)
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}
