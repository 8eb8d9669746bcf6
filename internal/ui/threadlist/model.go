package threadlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inboundkit/internal/keys"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/theme"
	"github.com/nhle/inboundkit/internal/ui"
)

// SelectedThreadMsg is sent when the user opens a thread.
type SelectedThreadMsg struct {
	ID string
}

// QueryChangedMsg is sent when a filter, search or page change selects a
// different list query.
type QueryChangedMsg struct {
	Options model.ListThreadsOptions
}

// RetryMsg asks the parent to refetch the current query now.
type RetryMsg struct{}

// Model is the thread list view. It holds the list filters; the parent
// owns fetching and hands results in through SetResult.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	opts        model.ListThreadsOptions
	searchMode  bool
	searchInput textinput.Model
	pagination  model.Pagination
	err         error
	loaded      bool
	width       int
	height      int
}

// New creates a thread list showing pageSize threads per page.
func New(k *keys.KeyMap, pageSize, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Threads"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search threads..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		opts:        model.ListThreadsOptions{Page: 1, Limit: pageSize},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Options returns the current list query.
func (m Model) Options() model.ListThreadsOptions { return m.opts }

// SetResult shows a fetch result. A failed refetch keeps the previous
// threads on screen; the error is only rendered when there is nothing
// else to show.
func (m *Model) SetResult(threads *model.ThreadList, err error) tea.Cmd {
	m.err = err
	if threads == nil {
		if err != nil {
			m.loaded = true
		}
		return nil
	}

	m.loaded = true
	m.pagination = threads.Pagination
	items := make([]list.Item, len(threads.Threads))
	for i, t := range threads.Threads {
		items[i] = ThreadItem{Thread: t}
	}
	return m.list.SetItems(items)
}

// Clear drops the displayed threads, used when the query changes and
// nothing is cached for the new one.
func (m *Model) Clear() {
	m.loaded = false
	m.err = nil
	m.pagination = model.Pagination{}
	m.list.SetItems(nil)
}

// SelectedThread returns the highlighted thread.
func (m Model) SelectedThread() (model.Thread, bool) {
	item, ok := m.list.SelectedItem().(ThreadItem)
	if !ok {
		return model.Thread{}, false
	}
	return item.Thread, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searchMode }

// Init returns the initial command.
func (m Model) Init() tea.Cmd { return nil }

// Update handles messages for the thread list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		return m.setQuery(func(o *model.ListThreadsOptions) {
			o.Search = m.searchInput.Value()
		})

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		if m.opts.Search == "" {
			return m, nil
		}
		return m.setQuery(func(o *model.ListThreadsOptions) { o.Search = "" })
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		t, ok := m.SelectedThread()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedThreadMsg{ID: t.ID} }

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.opts.Search)
		next := m.searchInput.Focus()
		return m, next

	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg { return RetryMsg{} }

	case key.Matches(msg, m.keys.UnreadOnly):
		return m.setQuery(func(o *model.ListThreadsOptions) {
			o.UnreadOnly = !o.UnreadOnly
			if o.UnreadOnly {
				o.ArchivedOnly = false
			}
		})

	case key.Matches(msg, m.keys.ArchivedOnly):
		return m.setQuery(func(o *model.ListThreadsOptions) {
			o.ArchivedOnly = !o.ArchivedOnly
			if o.ArchivedOnly {
				o.UnreadOnly = false
			}
		})

	case key.Matches(msg, m.keys.NextPage):
		if !m.pagination.HasMore {
			return m, nil
		}
		page := m.opts.Page + 1
		return m.setPage(page)

	case key.Matches(msg, m.keys.PrevPage):
		if m.opts.Page <= 1 {
			return m, nil
		}
		return m.setPage(m.opts.Page - 1)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetFilter applies a filter from outside the view, e.g. the command
// palette.
func (m Model) SetFilter(unread, archived bool, search string) (Model, tea.Cmd) {
	return m.setQuery(func(o *model.ListThreadsOptions) {
		o.UnreadOnly = unread
		o.ArchivedOnly = archived
		o.Search = search
	})
}

// setQuery changes a filter and resets to the first page.
func (m Model) setQuery(change func(*model.ListThreadsOptions)) (Model, tea.Cmd) {
	next := m.opts
	change(&next)
	next.Page = 1
	if next == m.opts {
		return m, nil
	}
	m.opts = next
	opts := next
	return m, func() tea.Msg { return QueryChangedMsg{Options: opts} }
}

func (m Model) setPage(page int) (Model, tea.Cmd) {
	m.opts.Page = page
	opts := m.opts
	return m, func() tea.Msg { return QueryChangedMsg{Options: opts} }
}

// EmptyMessage returns the text shown when a loaded page has no threads.
func EmptyMessage(opts model.ListThreadsOptions) string {
	switch {
	case opts.Search != "":
		return fmt.Sprintf("No threads match %q", opts.Search)
	case opts.UnreadOnly:
		return "No unread threads"
	case opts.ArchivedOnly:
		return "No archived threads"
	default:
		return "No threads found"
	}
}

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.opts.UnreadOnly {
		parts = append(parts, "unread")
	}
	if m.opts.ArchivedOnly {
		parts = append(parts, "archived")
	}
	if m.opts.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", m.opts.Search))
	}
	summary := strings.Join(parts, ", ")
	if m.pagination.Total > 0 {
		if summary != "" {
			summary += " | "
		}
		summary += fmt.Sprintf("page %d, %d threads", m.opts.Page, m.pagination.Total)
	}
	return summary
}

// View renders the thread list.
func (m Model) View() string {
	body := m.renderBody()
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}
	return body
}

func (m Model) renderBody() string {
	if len(m.list.Items()) > 0 {
		return m.list.View()
	}

	switch {
	case m.err != nil:
		return theme.EmptyState(m.width, m.height,
			theme.ErrorStyle.Render("Failed to load threads: "+ui.ErrorText(m.err))+
				"\n\nPress r to retry")
	case !m.loaded:
		return theme.EmptyState(m.width, m.height, "Loading threads...")
	default:
		return theme.EmptyState(m.width, m.height, EmptyMessage(m.opts))
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
