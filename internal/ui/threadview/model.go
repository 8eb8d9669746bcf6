package threadview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inboundkit/internal/htmlclean"
	"github.com/nhle/inboundkit/internal/keys"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/theme"
	"github.com/nhle/inboundkit/internal/ui"
)

// BackMsg signals the parent to navigate back to the thread list.
type BackMsg struct{}

// ReplyMsg asks the parent to open the composer in reply mode.
type ReplyMsg struct {
	Message model.Message
}

// ActionMsg asks the parent to apply a thread action.
type ActionMsg struct {
	ThreadID string
	Action   model.ThreadAction
}

// RetryMsg asks the parent to refetch the thread now.
type RetryMsg struct{}

// Model is the thread detail view: every message of one thread, oldest
// first, in a scrollable viewport.
type Model struct {
	threadID string
	detail   *model.ThreadDetail
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new thread view.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Open switches the view to a thread. cached may be nil.
func (m *Model) Open(threadID string, cached *model.ThreadDetail) {
	m.threadID = threadID
	m.detail = nil
	m.err = nil
	if cached != nil {
		m.SetResult(cached, nil)
		return
	}
	m.viewport.SetContent("")
}

// ThreadID returns the id of the open thread.
func (m Model) ThreadID() string { return m.threadID }

// Detail returns the displayed thread, if loaded.
func (m Model) Detail() *model.ThreadDetail { return m.detail }

// SetResult shows a fetch result. A failed refetch keeps the messages
// already on screen.
func (m *Model) SetResult(detail *model.ThreadDetail, err error) {
	m.err = err
	if detail == nil {
		return
	}
	first := m.detail == nil
	m.detail = detail
	m.viewport.SetContent(m.renderContent())
	if first {
		m.viewport.GotoTop()
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd { return nil }

// Update handles messages for the thread view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Refresh):
			return m, func() tea.Msg { return RetryMsg{} }

		case key.Matches(msg, m.keys.Reply):
			if last, ok := m.replyTarget(); ok {
				return m, func() tea.Msg { return ReplyMsg{Message: last} }
			}
			return m, nil

		case key.Matches(msg, m.keys.ToggleRead):
			if m.detail == nil {
				return m, nil
			}
			action := model.ActionMarkAsRead
			if !m.hasUnread() {
				action = model.ActionMarkAsUnread
			}
			return m, m.action(action)

		case key.Matches(msg, m.keys.Archive):
			if m.detail == nil {
				return m, nil
			}
			action := model.ActionArchive
			if m.detail.Thread.IsArchived {
				action = model.ActionUnarchive
			}
			return m, m.action(action)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a model.ThreadAction) tea.Cmd {
	id := m.threadID
	return func() tea.Msg { return ActionMsg{ThreadID: id, Action: a} }
}

// hasUnread reports whether any message in the thread is unread.
func (m Model) hasUnread() bool {
	for _, msg := range m.detail.Messages {
		if !msg.IsRead {
			return true
		}
	}
	return m.detail.Thread.HasUnread && len(m.detail.Messages) == 0
}

// replyTarget is the newest inbound message, or the newest message when
// the thread has only outbound ones.
func (m Model) replyTarget() (model.Message, bool) {
	if m.detail == nil || len(m.detail.Messages) == 0 {
		return model.Message{}, false
	}
	msgs := m.detail.Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsOutbound() {
			return msgs[i], true
		}
	}
	return msgs[len(msgs)-1], true
}

// View renders the thread view.
func (m Model) View() string {
	if m.detail == nil {
		if m.err != nil {
			return theme.EmptyState(m.width, m.height,
				theme.ErrorStyle.Render("Failed to load thread: "+ui.ErrorText(m.err))+
					"\n\nPress r to retry")
		}
		return theme.EmptyState(m.width, m.height, "Loading thread...")
	}
	if len(m.detail.Messages) == 0 {
		return theme.EmptyState(m.width, m.height, "No messages in this thread")
	}
	return m.viewport.View()
}

// renderContent builds the full thread content for the viewport.
func (m Model) renderContent() string {
	d := m.detail
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := d.Thread.NormalizedSubject
	if subject == "" && len(d.Messages) > 0 {
		subject = d.Messages[0].Subject
	}
	title := titleStyle.Render(subject)
	if d.Thread.IsArchived {
		title += " " + theme.ArchivedBadgeStyle.Render("archived")
	}
	sections = append(sections, title)
	sections = append(sections, theme.DimmedStyle.Render(
		fmt.Sprintf("%d messages · %s", len(d.Messages), strings.Join(d.Thread.ParticipantEmails, ", ")),
	))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))

	for _, msg := range d.Messages {
		sections = append(sections, "", separator, "")
		sections = append(sections, renderMessage(msg, m.width)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderMessage(msg model.Message, width int) []string {
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	field := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-6s", label+":")), valStyle.Render(value))
	}

	direction := msg.Type
	if direction == "" {
		direction = model.DirectionInbound
	}
	read := "read"
	if !msg.IsRead {
		read = "unread"
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Bold(true).Render(msg.Sender()),
		" ",
		theme.DirectionStyle(direction).Render(direction),
		" ",
		theme.DimmedStyle.Render(read),
	)

	lines := []string{header}
	if len(msg.To) > 0 {
		lines = append(lines, field("To", strings.Join(msg.To, ", ")))
	}
	if len(msg.CC) > 0 {
		lines = append(lines, field("Cc", strings.Join(msg.CC, ", ")))
	}
	if !msg.Date.IsZero() {
		lines = append(lines, field("Date", msg.Date.Local().Format("Mon, 02 Jan 2006 15:04")))
	}
	lines = append(lines, "")

	body := renderBody(msg)
	if body == "" {
		body = theme.DimmedStyle.Italic(true).Render("(no content)")
	}
	lines = append(lines, lipgloss.NewStyle().Width(max(width-4, 20)).Render(body))

	if len(msg.Attachments) > 0 {
		lines = append(lines, "", metaStyle.Render(fmt.Sprintf("Attachments (%d)", len(msg.Attachments))))
		for _, a := range msg.Attachments {
			lines = append(lines, "  📎 "+FormatAttachment(a))
		}
	}
	return lines
}

// renderBody prefers the HTML body, converted to text for the terminal.
func renderBody(msg model.Message) string {
	if body, isHTML := msg.PreferredBody(); isHTML {
		return htmlclean.ToText(body)
	}
	return msg.PlainBody()
}

// FormatAttachment renders "name (type, size)".
func FormatAttachment(a model.Attachment) string {
	name := a.Filename
	if name == "" {
		name = "unnamed"
	}
	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return fmt.Sprintf("%s (%s, %s)", name, ct, FormatSize(a.Size))
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit && exp < 3; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.detail != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
