package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"urchin/internal/media"
	"urchin/internal/search"
)

// Messages delivered from the search orchestrator's goroutines.
type (
	resultsMsg struct {
		query media.SearchQuery
		items []media.ContentItem
	}
	suggestionsMsg []string
	searchErrMsg   struct{ err error }
)

// sortCycle is the order ctrl+s steps through.
var sortCycle = []media.SearchSort{
	media.SortRelevance,
	media.SortDate,
	media.SortViews,
	media.SortRating,
}

// contentRow adapts a ContentItem for the results list.
type contentRow struct {
	item media.ContentItem
}

func (r contentRow) Title() string {
	switch r.item.Kind {
	case media.ContentChannel:
		return "@ " + r.item.Channel.Name
	case media.ContentPlaylist:
		return "# " + r.item.Playlist.Title
	default:
		return r.item.Video.Title
	}
}

func (r contentRow) Description() string {
	switch r.item.Kind {
	case media.ContentChannel:
		return fmt.Sprintf("channel, %d subscribers", r.item.Channel.Subscribers)
	case media.ContentPlaylist:
		return fmt.Sprintf("playlist by %s, %d videos", r.item.Playlist.Author, r.item.Playlist.VideoCount)
	default:
		v := r.item.Video
		return fmt.Sprintf("%s, %s, %d views", v.Author, FormatDuration(v.Length), v.Views)
	}
}

func (r contentRow) FilterValue() string { return r.Title() }

// searchModel is the interactive search screen: a text input with
// debounced suggestions on top of a results list.
type searchModel struct {
	searcher *search.Model

	input       textinput.Model
	results     list.Model
	suggestions []string
	sortIdx     int
	focusList   bool
	selected    *media.ContentItem
	err         error
	width       int
	height      int
}

func newSearchModel(searcher *search.Model) searchModel {
	input := textinput.New()
	input.Placeholder = "Search videos, channels, playlists"
	input.Prompt = "/ "
	input.Focus()

	delegate := list.NewDefaultDelegate()
	results := list.New(nil, delegate, 0, 0)
	results.Title = "Results"
	results.SetShowStatusBar(false)
	results.SetFilteringEnabled(false)
	results.Styles.Title = titleStyle

	return searchModel{searcher: searcher, input: input, results: results}
}

func (m searchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Input, status and suggestion lines sit above the list.
		m.results.SetSize(msg.Width, max(msg.Height-4, 1))
		return m, nil

	case resultsMsg:
		rows := make([]list.Item, len(msg.items))
		for i, item := range msg.items {
			rows[i] = contentRow{item: item}
		}
		m.err = nil
		cmd := m.results.SetItems(rows)
		if m.searcher.State() == search.StateSubmitted {
			m.focusList = true
			m.input.Blur()
		}
		return m, cmd

	case suggestionsMsg:
		m.suggestions = msg
		return m, nil

	case searchErrMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.focusList {
				m.focusList = false
				m.input.Focus()
				return m, textinput.Blink
			}
			m.searcher.Clear()
			return m, tea.Quit

		case "enter":
			if m.focusList {
				if r, ok := m.results.SelectedItem().(contentRow); ok {
					m.selected = &r.item
				}
				return m, tea.Quit
			}
			m.searcher.Submit()
			return m, nil

		case "tab":
			// Accept the first suggestion while typing.
			if !m.focusList && len(m.suggestions) > 0 {
				m.input.SetValue(m.suggestions[0])
				m.input.CursorEnd()
				m.searcher.SetText(m.input.Value())
				return m, nil
			}
			m.focusList = true
			m.input.Blur()
			return m, nil

		case "ctrl+s":
			m.sortIdx = (m.sortIdx + 1) % len(sortCycle)
			q := m.searcher.Query()
			m.searcher.SetFilters(sortCycle[m.sortIdx], q.Date, q.Duration)
			return m, nil

		case "ctrl+f":
			if err := m.searcher.ToggleFavorite(); err != nil {
				m.err = err
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focusList {
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.suggestions = nil
		m.searcher.SetText(after)
	}
	return m, cmd
}

func (m searchModel) View() string {
	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteByte('\n')

	status := string(sortCycle[m.sortIdx])
	if m.searcher.IsFavorite() {
		status += "  *favorite*"
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	} else {
		b.WriteString(statusStyle.Render(status))
	}
	b.WriteByte('\n')

	if !m.focusList && len(m.suggestions) > 0 {
		shown := m.suggestions
		if len(shown) > 5 {
			shown = shown[:5]
		}
		b.WriteString(statusStyle.Render(strings.Join(shown, "  |  ")))
	}
	b.WriteByte('\n')

	b.WriteString(m.results.View())
	return b.String()
}

// RunSearch runs the interactive search screen and returns the item the
// user picked, or ErrCancelled.
func RunSearch(searcher *search.Model) (*media.ContentItem, error) {
	m := newSearchModel(searcher)
	p := tea.NewProgram(m, tea.WithAltScreen())

	searcher.OnResults(func(q media.SearchQuery, items []media.ContentItem) {
		p.Send(resultsMsg{query: q, items: items})
	})
	searcher.OnSuggestions(func(s []string) {
		p.Send(suggestionsMsg(s))
	})
	searcher.OnError(func(err error) {
		p.Send(searchErrMsg{err: err})
	})

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running search screen: %w", err)
	}

	fm := final.(searchModel)
	if fm.selected == nil {
		return nil, ErrCancelled
	}
	return fm.selected, nil
}

// FormatDuration formats seconds as H:MM:SS or M:SS.
func FormatDuration(seconds float64) string {
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
