package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/store"
)

// Step is a position in the setup flow.
type Step int

const (
	StepAddDomain Step = iota + 1
	StepDNSConfigured
	StepVerifying
	StepReady
)

// StepCount is the number of wizard steps.
const StepCount = 4

// Persisted state keys.
const (
	KeyStep   = "domain-setup:step"
	KeyDomain = "domain-setup:domain"
)

// String returns the step's display name.
func (s Step) String() string {
	switch s {
	case StepAddDomain:
		return "Add domain"
	case StepDNSConfigured:
		return "Configure DNS"
	case StepVerifying:
		return "Verifying"
	case StepReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

func (s Step) valid() bool { return s >= StepAddDomain && s <= StepReady }

// API is the part of the gateway client the wizard needs.
type API interface {
	CreateDomain(ctx context.Context, name string) (*model.Domain, error)
	CheckDomain(ctx context.Context, id string) (*model.Domain, error)
}

// State is a snapshot of the wizard.
type State struct {
	Step   Step
	Domain *model.Domain

	// DNSCollapsed hides the record table. It collapses automatically on
	// reaching StepReady and is otherwise toggled by the user.
	DNSCollapsed bool
}

// Records returns the DNS records of the current domain, if any.
func (s State) Records() []model.DNSRecord {
	if s.Domain == nil {
		return nil
	}
	return s.Domain.DNSRecords
}

// ErrWrongStep is returned when an action is not allowed at the current
// step.
var ErrWrongStep = errors.New("action not available at this step")

// Wizard drives the add-domain, configure-DNS, verify, ready progression.
// Steps advance only through SubmitDomain and Refresh; nothing moves on
// a timer. Every transition is persisted so a restart resumes where the
// user left off.
type Wizard struct {
	api    API
	kv     store.KV
	logger *slog.Logger
	state  State
}

// NewWizard restores persisted progress from kv. Corrupted or
// inconsistent entries are discarded and the wizard starts at step 1.
func NewWizard(ctx context.Context, api API, kv store.KV, logger *slog.Logger) (*Wizard, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	w := &Wizard{api: api, kv: kv, logger: logger, state: State{Step: StepAddDomain}}
	if err := w.load(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// State returns the current snapshot.
func (w *Wizard) State() State { return w.state }

// SubmitDomain validates name, registers it upstream and advances to
// StepDNSConfigured with the returned record set. Invalid names fail
// with *apperr.ValidationError before any network call.
func (w *Wizard) SubmitDomain(ctx context.Context, name string) error {
	if w.state.Step != StepAddDomain {
		return ErrWrongStep
	}
	if err := Validate(name); err != nil {
		return err
	}

	d, err := w.api.CreateDomain(ctx, Normalize(name))
	if err != nil {
		return err
	}

	w.logger.Info("domain created", "domain", d.Domain, "id", d.ID, "records", len(d.DNSRecords))
	return w.transition(ctx, StepDNSConfigured, d)
}

// Refresh re-checks verification. A fully verified domain jumps to
// StepReady and collapses the DNS panel; a domain whose MX records are
// visible moves to StepVerifying. The wizard never moves backwards.
func (w *Wizard) Refresh(ctx context.Context) error {
	if w.state.Step == StepAddDomain || w.state.Domain == nil {
		return ErrWrongStep
	}

	d, err := w.api.CheckDomain(ctx, w.state.Domain.ID)
	if err != nil {
		return err
	}
	if len(d.DNSRecords) == 0 {
		d.DNSRecords = w.state.Domain.DNSRecords
	}

	next := w.state.Step
	switch {
	case d.Verified():
		next = StepReady
	case d.HasMXRecords && next < StepVerifying:
		next = StepVerifying
	}

	w.logger.Info("domain checked",
		"domain", d.Domain, "status", d.Status, "has_mx", d.HasMXRecords, "step", next)
	return w.transition(ctx, next, d)
}

// ToggleDNS shows or hides the DNS record panel.
func (w *Wizard) ToggleDNS() {
	w.state.DNSCollapsed = !w.state.DNSCollapsed
}

// Reset clears persisted progress and returns to step 1.
func (w *Wizard) Reset(ctx context.Context) error {
	if err := w.kv.Delete(ctx, KeyStep, KeyDomain); err != nil {
		return fmt.Errorf("clearing wizard state: %w", err)
	}
	w.state = State{Step: StepAddDomain}
	return nil
}

func (w *Wizard) transition(ctx context.Context, step Step, d *model.Domain) error {
	collapsed := w.state.DNSCollapsed
	if step == StepReady && w.state.Step != StepReady {
		collapsed = true
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding domain: %w", err)
	}
	if err := w.kv.Set(ctx, KeyDomain, string(data)); err != nil {
		return fmt.Errorf("saving wizard domain: %w", err)
	}
	if err := w.kv.Set(ctx, KeyStep, strconv.Itoa(int(step))); err != nil {
		return fmt.Errorf("saving wizard step: %w", err)
	}

	w.state = State{Step: step, Domain: d, DNSCollapsed: collapsed}
	return nil
}

func (w *Wizard) load(ctx context.Context) error {
	rawStep, err := w.kv.Get(ctx, KeyStep)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading wizard step: %w", err)
	}

	var step Step
	if err := json.Unmarshal([]byte(rawStep), &step); err != nil || !step.valid() {
		return w.discard(ctx, "step", rawStep)
	}
	if step == StepAddDomain {
		return nil
	}

	rawDomain, err := w.kv.Get(ctx, KeyDomain)
	if errors.Is(err, store.ErrNotFound) {
		return w.discard(ctx, "domain", "")
	}
	if err != nil {
		return fmt.Errorf("loading wizard domain: %w", err)
	}

	var d model.Domain
	if err := json.Unmarshal([]byte(rawDomain), &d); err != nil || d.ID == "" {
		return w.discard(ctx, "domain", rawDomain)
	}

	w.state = State{Step: step, Domain: &d, DNSCollapsed: step == StepReady}
	return nil
}

func (w *Wizard) discard(ctx context.Context, what, raw string) error {
	w.logger.Warn("discarding corrupted wizard state", "entry", what, "value", raw)
	w.state = State{Step: StepAddDomain}
	if err := w.kv.Delete(ctx, KeyStep, KeyDomain); err != nil {
		return fmt.Errorf("clearing wizard state: %w", err)
	}
	return nil
}
