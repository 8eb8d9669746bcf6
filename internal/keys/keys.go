package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings shared by the mail client and the
// domain wizard.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh and retry
	Refresh key.Binding

	// List filters and paging
	UnreadOnly   key.Binding
	ArchivedOnly key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding

	// Thread actions
	Compose    key.Binding
	Reply      key.Binding
	ToggleRead key.Binding
	Archive    key.Binding

	// Domain wizard
	ZoneFile  key.Binding
	ToggleDNS key.Binding
	StartOver key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open thread"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		UnreadOnly: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unread only"),
		),
		ArchivedOnly: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "archived only"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous page"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compose"),
		),
		Reply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reply"),
		),
		ToggleRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read/unread"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "archive/unarchive"),
		),
		ZoneFile: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "zone file"),
		),
		ToggleDNS: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "show/hide DNS"),
		),
		StartOver: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "start over"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns the mail client keybindings grouped by category for
// the expanded help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.UnreadOnly, k.ArchivedOnly, k.NextPage, k.PrevPage},
		{k.Compose, k.Reply, k.ToggleRead, k.Archive},
	}
}

// WizardHelp is the help.KeyMap for the domain wizard screen.
type WizardHelp struct{ *KeyMap }

// ShortHelp returns the wizard's keybindings on one line.
func (w WizardHelp) ShortHelp() []key.Binding {
	return []key.Binding{w.Refresh, w.ZoneFile, w.ToggleDNS, w.StartOver, w.Quit}
}

// FullHelp returns the wizard's keybindings.
func (w WizardHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{w.Refresh, w.ZoneFile, w.ToggleDNS},
		{w.StartOver, w.Back, w.Help, w.Quit},
	}
}
