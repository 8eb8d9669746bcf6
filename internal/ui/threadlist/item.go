package threadlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/theme"
)

// ThreadItem wraps a model.Thread so it can be used in a bubbles/list.
type ThreadItem struct {
	Thread model.Thread
}

// FilterValue returns the string used for fuzzy filtering.
func (i ThreadItem) FilterValue() string { return i.Thread.NormalizedSubject }

// Subject returns the display subject.
func (i ThreadItem) Subject() string {
	if s := strings.TrimSpace(i.Thread.NormalizedSubject); s != "" {
		return s
	}
	if i.Thread.LatestMessage != nil && i.Thread.LatestMessage.Subject != "" {
		return i.Thread.LatestMessage.Subject
	}
	return "(no subject)"
}

// Participants returns a short participant summary.
func (i ThreadItem) Participants() string {
	p := i.Thread.ParticipantEmails
	switch len(p) {
	case 0:
		return ""
	case 1, 2:
		return strings.Join(p, ", ")
	default:
		return fmt.Sprintf("%s, %s +%d", p[0], p[1], len(p)-2)
	}
}

// ItemDelegate implements list.ItemDelegate for rendering threads on two
// lines: subject and badges, then participants and preview.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single thread.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(ThreadItem)
	if !ok {
		return
	}
	t := ti.Thread
	isSelected := index == m.Index()

	dot := " "
	if t.HasUnread {
		dot = theme.UnreadDot
	}

	subject := ti.Subject()
	if t.HasUnread {
		subject = lipgloss.NewStyle().Bold(true).Render(subject)
	}

	count := ""
	if t.MessageCount > 1 {
		count = theme.DimmedStyle.Render(fmt.Sprintf(" (%d)", t.MessageCount))
	}

	archived := ""
	if t.IsArchived {
		archived = " " + theme.ArchivedBadgeStyle.Render("archived")
	}

	when := theme.DimmedStyle.Render(relativeTime(t.LastMessageAt))

	line1 := fmt.Sprintf("%s %s%s%s  %s", dot, subject, count, archived, when)

	second := ti.Participants()
	if t.LatestMessage != nil && t.LatestMessage.TextPreview != "" {
		preview := strings.Join(strings.Fields(t.LatestMessage.TextPreview), " ")
		if second != "" {
			second += " · "
		}
		second += preview
	}
	width := m.Width() - 6
	if width > 0 && lipgloss.Width(second) > width {
		second = truncate(second, width)
	}
	line2 := "  " + theme.DimmedStyle.Render(second)

	style := theme.ListItemStyle
	if isSelected {
		style = theme.SelectedItemStyle
	}
	fmt.Fprint(w, style.Render(line1+"\n"+line2))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
