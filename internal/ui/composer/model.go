package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inboundkit/internal/compose"
	"github.com/nhle/inboundkit/internal/inbound"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/theme"
	"github.com/nhle/inboundkit/internal/ui"
)

// sendTimeout bounds one send or reply call.
const sendTimeout = 30 * time.Second

// Sender is the part of the gateway client the composer needs.
type Sender interface {
	SendEmail(ctx context.Context, req model.SendEmailRequest, opts ...inbound.CallOption) (*model.SendResult, error)
	Reply(ctx context.Context, messageID string, req model.ReplyRequest, opts ...inbound.CallOption) (*model.SendResult, error)
}

// SentMsg is dispatched after the gateway accepted the email.
type SentMsg struct {
	Mode   compose.Mode
	Result *model.SendResult
}

// SendFailedMsg is dispatched when the gateway call failed.
type SendFailedMsg struct {
	Err error
}

// CancelMsg is dispatched when the user closes the dialog.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to       string
	cc       string
	bcc      string
	subject  string
	body     string
	format   compose.Format
	replyAll bool
}

// Model is the compose/reply dialog.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	draft    *compose.Draft
	sender   Sender
	from     string
	fromName string
	inFlight bool
	err      error
	width    int
	height   int
}

// New creates a composer that sends through sender as from.
func New(sender Sender, from, fromName string, width, height int) Model {
	return Model{
		fb:       &formBindings{},
		sender:   sender,
		from:     from,
		fromName: fromName,
		width:    width,
		height:   height,
	}
}

// Open starts the dialog for draft.
func (m *Model) Open(draft *compose.Draft) tea.Cmd {
	m.draft = draft
	m.inFlight = false
	m.err = nil
	*m.fb = formBindings{
		to:       draft.To,
		cc:       draft.CC,
		bcc:      draft.BCC,
		subject:  draft.Subject,
		body:     draft.Body,
		format:   draft.Format,
		replyAll: draft.ReplyAll,
	}
	return m.rebuild()
}

// InFlight reports whether a submission is waiting for the gateway.
func (m Model) InFlight() bool { return m.inFlight }

// Err returns the error of the last failed submission.
func (m Model) Err() error { return m.err }

func (m *Model) rebuild() tea.Cmd {
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the composer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SentMsg:
		m.inFlight = false
		m.err = nil
		if m.draft != nil {
			m.draft.Reset()
		}
		return m, nil

	case SendFailedMsg:
		m.inFlight = false
		m.err = msg.Err
		next := m.rebuild()
		return m, next

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, func() tea.Msg { return CancelMsg{} }
		}
		if m.inFlight {
			return m, nil
		}
	}

	if m.form == nil || m.inFlight {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		next := m.submit()
		return m, next
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// submit copies the form into the draft and starts the gateway call. A
// draft that fails validation reopens the form with the reason shown.
func (m *Model) submit() tea.Cmd {
	if m.draft == nil || m.inFlight {
		return nil
	}

	d := m.draft
	d.To = m.fb.to
	d.CC = m.fb.cc
	d.BCC = m.fb.bcc
	d.Subject = m.fb.subject
	d.Body = m.fb.body
	d.Format = m.fb.format
	d.ReplyAll = m.fb.replyAll

	if err := d.Validate(); err != nil {
		m.err = err
		return m.rebuild()
	}
	if !d.CanSubmit(m.inFlight) {
		return nil
	}

	send, err := m.request(d)
	if err != nil {
		m.err = err
		return m.rebuild()
	}

	m.inFlight = true
	m.err = nil
	mode := d.Mode()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		res, err := send(ctx)
		if err != nil {
			return SendFailedMsg{Err: err}
		}
		return SentMsg{Mode: mode, Result: res}
	}
}

// request builds the gateway call for d.
func (m *Model) request(d *compose.Draft) (func(context.Context) (*model.SendResult, error), error) {
	sender := m.sender
	if d.Mode() == compose.ModeReply {
		req, err := d.ReplyRequest(m.from, m.fromName)
		if err != nil {
			return nil, err
		}
		id := d.ReplyToID()
		return func(ctx context.Context) (*model.SendResult, error) {
			return sender.Reply(ctx, id, req)
		}, nil
	}

	req, err := d.SendRequest(m.sendFrom())
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (*model.SendResult, error) {
		return sender.SendEmail(ctx, req)
	}, nil
}

func (m *Model) sendFrom() string {
	if m.fromName == "" {
		return m.from
	}
	return fmt.Sprintf("%s <%s>", m.fromName, m.from)
}

// View renders the composer.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Email"
	if m.draft != nil && m.draft.Mode() == compose.ModeReply {
		titleText = "Reply"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(titleText)}
	if m.err != nil {
		parts = append(parts, theme.ErrorStyle.Render("Send failed: "+ui.ErrorText(m.err)))
	}
	if m.inFlight {
		parts = append(parts, theme.DimmedStyle.Render("Sending..."))
	} else {
		parts = append(parts, m.form.View())
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(strings.Join(parts, "\n"))
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) buildForm() *huh.Form {
	var fields []huh.Field

	if m.draft != nil && m.draft.Mode() == compose.ModeReply {
		fields = append(fields,
			huh.NewNote().
				Title("To").
				Description(m.draft.Recipient()),
		)
	} else {
		fields = append(fields,
			huh.NewInput().
				Title("To").
				Placeholder("name@example.com, other@example.com").
				Value(&m.fb.to).
				Validate(validateAddresses(true)),
			huh.NewInput().
				Title("Cc").
				Value(&m.fb.cc).
				Validate(validateAddresses(false)),
			huh.NewInput().
				Title("Bcc").
				Value(&m.fb.bcc).
				Validate(validateAddresses(false)),
		)
	}

	fields = append(fields,
		huh.NewInput().
			Title("Subject").
			Value(&m.fb.subject).
			Validate(validateRequired("Subject")),
		huh.NewText().
			Title("Message").
			Lines(8).
			Value(&m.fb.body).
			Validate(validateRequired("Message")),
		huh.NewSelect[compose.Format]().
			Title("Format").
			Options(
				huh.NewOption(compose.FormatText.String(), compose.FormatText),
				huh.NewOption(compose.FormatHTML.String(), compose.FormatHTML),
			).
			Value(&m.fb.format),
	)

	if m.draft != nil && m.draft.Mode() == compose.ModeReply {
		fields = append(fields,
			huh.NewConfirm().
				Title("Reply to all recipients?").
				Value(&m.fb.replyAll),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	return max(min(m.width-4, 100), 40)
}

func (m Model) formHeight() int {
	return max(m.height-6, 12)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateAddresses(required bool) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			if required {
				return fmt.Errorf("recipient is required")
			}
			return nil
		}
		if _, err := compose.ParseAddressList(s); err != nil {
			return fmt.Errorf("invalid address list")
		}
		return nil
	}
}
