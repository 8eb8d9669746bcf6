package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inboundkit/internal/domain"
	"github.com/nhle/inboundkit/internal/keys"
	"github.com/nhle/inboundkit/internal/ui"
	helpview "github.com/nhle/inboundkit/internal/ui/help"
	"github.com/nhle/inboundkit/internal/ui/wizard"
)

// DomainsModel is the root model of the domain setup screen.
type DomainsModel struct {
	layout   ui.Layout
	keys     *keys.KeyMap
	wizard   wizard.Model
	helpView helpview.Model
	showHelp bool
	ready    bool
}

// NewDomains creates the domain setup screen around wiz.
func NewDomains(wiz *domain.Wizard) DomainsModel {
	k := keys.DefaultKeyMap()
	return DomainsModel{
		keys:     k,
		wizard:   wizard.New(wiz, k, 80, 24),
		helpView: helpview.New("Domain Setup", keys.WizardHelp{KeyMap: k}, 80, 24),
	}
}

// Init builds the first screen.
func (m DomainsModel) Init() tea.Cmd {
	return m.wizard.Init()
}

// Update handles messages for the domain setup screen.
func (m DomainsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.wizard.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.helpView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.wizard.Editing() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case m.showHelp && key.Matches(msg, m.keys.Back):
			m.showHelp = false
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.wizard, cmd = m.wizard.Update(msg)
	return m, cmd
}

// View renders the domain setup screen.
func (m DomainsModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Domain Setup", m.wizard.State().Step.String())

	content := m.wizard.View()
	if m.showHelp {
		content = m.helpView.View()
	}

	hints := m.helpView.ShortView()
	if m.wizard.Editing() {
		hints = "enter submit | ctrl+c quit"
	}
	return m.layout.RenderWithFrame(header, content, m.layout.RenderStatusBar(hints, ""))
}
