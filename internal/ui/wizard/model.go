package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/inboundkit/internal/domain"
	"github.com/nhle/inboundkit/internal/keys"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/theme"
	"github.com/nhle/inboundkit/internal/ui"
)

// callTimeout bounds one create or check call.
const callTimeout = 30 * time.Second

// doneMsg reports the end of a wizard operation.
type doneMsg struct {
	op  string
	err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	domain string
}

// Model is the domain setup screen.
type Model struct {
	wiz      *domain.Wizard
	state    domain.State
	keys     *keys.KeyMap
	form     *huh.Form
	fb       *formBindings
	busy     string
	spinner  spinner.Model
	err      error
	showZone bool
	width    int
	height   int
}

// New creates the wizard screen around wiz.
func New(wiz *domain.Wizard, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		wiz:     wiz,
		state:   wiz.State(),
		keys:    k,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
	if m.state.Step == domain.StepAddDomain {
		m.form = m.buildForm()
	}
	return m
}

// Init starts the domain form when the wizard is at the first step.
func (m Model) Init() tea.Cmd {
	if m.form != nil && m.state.Step == domain.StepAddDomain {
		return m.form.Init()
	}
	return nil
}

// State returns the snapshot the screen is rendering.
func (m Model) State() domain.State { return m.state }

// Busy reports whether a create or check call is running.
func (m Model) Busy() bool { return m.busy != "" }

// Err returns the error of the last failed operation.
func (m Model) Err() error { return m.err }

// Editing reports whether keystrokes belong to the domain form.
func (m Model) Editing() bool {
	return m.state.Step == domain.StepAddDomain && m.busy == ""
}

func (m *Model) rebuild() tea.Cmd {
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Domain").
				Description("The domain that will receive email, e.g. mail.example.com").
				Placeholder("example.com").
				Value(&m.fb.domain).
				Validate(domain.Validate),
		),
	).WithWidth(max(min(m.width-4, 80), 40)).WithShowHelp(false)
}

// run executes op against the wizard off the UI goroutine. The screen
// keeps rendering its last snapshot until doneMsg arrives.
func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = op
	m.err = nil
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
			defer cancel()
			return doneMsg{op: op, err: fn(ctx)}
		},
	)
}

// Update handles messages for the wizard screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}

	if msg, ok := msg.(doneMsg); ok {
		m.busy = ""
		m.err = msg.err
		m.state = m.wiz.State()
		if m.state.Step == domain.StepAddDomain {
			if msg.err == nil {
				m.fb.domain = ""
			}
			next := m.rebuild()
			return m, next
		}
		return m, nil
	}

	if m.busy != "" {
		return m, nil
	}

	if m.state.Step == domain.StepAddDomain {
		return m.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Refresh):
		next := m.run("refresh", m.wiz.Refresh)
		return m, next

	case key.Matches(km, m.keys.ZoneFile):
		m.showZone = !m.showZone

	case key.Matches(km, m.keys.ToggleDNS):
		m.wiz.ToggleDNS()
		m.state = m.wiz.State()

	case key.Matches(km, m.keys.StartOver):
		m.showZone = false
		next := m.run("reset", m.wiz.Reset)
		return m, next

	case key.Matches(km, m.keys.Back):
		m.showZone = false
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		next := m.rebuild()
		return m, next
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		name := m.fb.domain
		wiz := m.wiz
		next := m.run("create", func(ctx context.Context) error {
			return wiz.SubmitDomain(ctx, name)
		})
		return m, next
	case huh.StateAborted:
		next := m.rebuild()
		return m, next
	}
	return m, cmd
}

// View renders the wizard screen.
func (m Model) View() string {
	s := m.state
	sections := []string{
		theme.HeaderStyle.Render(fmt.Sprintf("Step %d of %d · %s", int(s.Step), domain.StepCount, s.Step)),
		m.renderProgress(),
		"",
	}

	if m.err != nil {
		sections = append(sections, theme.ErrorStyle.Render(ui.ErrorText(m.err)), "")
	}

	switch {
	case m.busy != "":
		sections = append(sections, m.spinner.View()+" "+theme.DimmedStyle.Render(busyText(m.busy)))

	case s.Step == domain.StepAddDomain:
		if m.form != nil {
			sections = append(sections, m.form.View())
		}

	case m.showZone:
		sections = append(sections,
			lipgloss.NewStyle().Bold(true).Render("Zone file"),
			"",
			domain.ZoneFile(s.Domain.Domain, s.Records(), domain.DefaultTTL),
			theme.DimmedStyle.Render("Press z to return"),
		)

	default:
		sections = append(sections, m.renderDomain()...)
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func busyText(op string) string {
	switch op {
	case "create":
		return "Creating domain..."
	case "refresh":
		return "Checking verification..."
	default:
		return "Working..."
	}
}

func (m Model) renderProgress() string {
	var parts []string
	for step := domain.StepAddDomain; step <= domain.StepReady; step++ {
		done := step < m.state.Step || m.state.Step == domain.StepReady
		marker := "○"
		if done {
			marker = "●"
		} else if step == m.state.Step {
			marker = "◉"
		}
		parts = append(parts, theme.StepStyle(done, step == m.state.Step).Render(marker+" "+step.String()))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderDomain() []string {
	d := m.state.Domain
	if d == nil {
		return nil
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Bold(true).Render(d.Domain),
			" ",
			theme.DomainStatusStyle(d.Status).Render(string(d.Status)),
		),
	}

	switch m.state.Step {
	case domain.StepDNSConfigured:
		lines = append(lines, "Add these records at your DNS provider, then press r to check.")
	case domain.StepVerifying:
		lines = append(lines, "MX records found. Waiting for the remaining records to verify.")
	case domain.StepReady:
		lines = append(lines, theme.StepStyle(true, false).Render("Domain verified. Email to "+d.Domain+" is ready to receive."))
	}
	lines = append(lines, "")

	if m.state.DNSCollapsed {
		lines = append(lines, theme.DimmedStyle.Render(
			fmt.Sprintf("%d DNS records hidden. Press d to show.", len(d.DNSRecords))))
		return lines
	}
	if len(d.DNSRecords) > 0 {
		lines = append(lines, RecordsTable(d.DNSRecords, m.width-4))
	}
	return lines
}

// RecordsTable renders records with their verification state.
func RecordsTable(records []model.DNSRecord, width int) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		state := "pending"
		if r.IsVerified {
			state = "verified"
		}
		req := "optional"
		if r.IsRequired {
			req = "required"
		}
		rows = append(rows, []string{r.Type, r.Name, r.Value, req, state})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers("TYPE", "NAME", "VALUE", "", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(theme.ColorGray)
			}
			if col == 4 && row >= 0 && row < len(records) {
				if records[row].IsVerified {
					return s.Foreground(theme.ColorGreen)
				}
				return s.Foreground(theme.ColorYellow)
			}
			return s
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.Render()
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(max(min(width-4, 80), 40))
	}
}
