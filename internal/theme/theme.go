package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inboundkit/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces StatusBarStyle while an error is shown.
var ErrorBarStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders read or secondary content.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// ErrorStyle renders inline errors.
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

// UnreadDot marks a thread with unread messages.
var UnreadDot = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true).Render("●")

// ArchivedBadgeStyle labels archived threads.
var ArchivedBadgeStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Border(lipgloss.NormalBorder(), false, true).
	BorderForeground(ColorSubtle).
	Padding(0, 1)

// EmptyState centers a message in a w x h box.
func EmptyState(w, h int, text string) string {
	return lipgloss.NewStyle().
		Width(w).
		Height(h).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(ColorGray).
		Render(text)
}

// DirectionStyle colors the inbound/outbound badge of a message.
func DirectionStyle(direction string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch direction {
	case model.DirectionInbound:
		return base.Foreground(ColorGreen)
	case model.DirectionOutbound:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// DomainStatusStyle colors a domain verification status.
func DomainStatusStyle(status model.DomainStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.DomainVerified:
		return base.Foreground(ColorGreen)
	case model.DomainPending:
		return base.Foreground(ColorYellow)
	case model.DomainFailed:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// StepStyle renders a wizard step marker: done, current or upcoming.
func StepStyle(done, current bool) lipgloss.Style {
	switch {
	case done:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case current:
		return lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorGray)
	}
}
