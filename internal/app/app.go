package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inboundkit/internal/cache"
	"github.com/nhle/inboundkit/internal/compose"
	"github.com/nhle/inboundkit/internal/keys"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
	appsync "github.com/nhle/inboundkit/internal/sync"
	"github.com/nhle/inboundkit/internal/ui"
	"github.com/nhle/inboundkit/internal/ui/command"
	"github.com/nhle/inboundkit/internal/ui/composer"
	helpview "github.com/nhle/inboundkit/internal/ui/help"
	"github.com/nhle/inboundkit/internal/ui/threadlist"
	"github.com/nhle/inboundkit/internal/ui/threadview"
)

// actionTimeout bounds one thread action call.
const actionTimeout = 30 * time.Second

// commandHint lists the palette commands.
const commandHint = "refresh · compose · unread · archived · all · search <text> · quit"

// Gateway is the part of the gateway client the mail viewer needs.
type Gateway interface {
	ListThreads(ctx context.Context, opts model.ListThreadsOptions) (*model.ThreadList, error)
	GetThread(ctx context.Context, id string) (*model.ThreadDetail, error)
	ThreadAction(ctx context.Context, id string, action model.ThreadAction) (*model.ThreadActionResult, error)
	composer.Sender
}

// Options configures the mail viewer.
type Options struct {
	Gateway      Gateway
	From         string
	FromName     string
	PollInterval time.Duration
	StaleAfter   time.Duration
	PageSize     int
	Logger       *slog.Logger
}

// actionDoneMsg reports the end of a thread action.
type actionDoneMsg struct {
	action model.ThreadAction
	err    error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewThread
	ViewComposer
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model of the mail viewer. It routes
// messages between views and owns the query caches and the poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	gateway      Gateway
	logger       *slog.Logger

	threadList   threadlist.Model
	threadView   threadview.Model
	composerView composer.Model
	helpView     helpview.Model
	commandView  command.Model

	poller       *appsync.Poller
	lists        *cache.Cache[*model.ThreadList]
	details      *cache.Cache[*model.ThreadDetail]
	pollInterval time.Duration
	listKey      string
	detailKey    string

	ready   bool
	notice  string
	errMsg  string
	updated time.Time
}

// New creates the mail viewer.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	m := Model{
		currentView:  ViewList,
		keys:         k,
		gateway:      opts.Gateway,
		logger:       logger,
		threadList:   threadlist.New(k, pageSize, 80, 24),
		threadView:   threadview.New(k, 80, 24),
		composerView: composer.New(opts.Gateway, opts.From, opts.FromName, 80, 24),
		helpView:     helpview.New("Keyboard Shortcuts", k, 80, 24),
		commandView:  command.New(commandHint, 80, 24),
		poller:       appsync.New(logger),
		lists:        cache.New[*model.ThreadList](opts.StaleAfter),
		details:      cache.New[*model.ThreadDetail](opts.StaleAfter),
		pollInterval: opts.PollInterval,
	}
	m.listKey = ListKey(m.threadList.Options())
	return m
}

// Init starts polling the first page of threads.
func (m Model) Init() tea.Cmd {
	m.poller.Track(m.listKey, m.pollInterval, m.listFetch(m.threadList.Options()))
	return m.poller.WaitForNextResult()
}

// ListKey is the cache and poller key of a list query.
func ListKey(o model.ListThreadsOptions) string {
	return fmt.Sprintf("threads?page=%d&limit=%d&unread=%t&archived=%t&q=%s",
		o.Page, o.Limit, o.UnreadOnly, o.ArchivedOnly, o.Search)
}

// DetailKey is the cache and poller key of a thread.
func DetailKey(id string) string { return "thread:" + id }

// readThrough wraps load with the cache: the first run of a loop serves
// a fresh cached entry without a request, every later tick revalidates.
// Concurrent revalidations of one key collapse into one; a loop that
// finds a fetch already running waits for it and serves what it stored.
func readThrough[T any](c *cache.Cache[T], key string, load func(context.Context) (T, error)) appsync.FetchFunc {
	first := true
	return func(ctx context.Context) (interface{}, error) {
		if first {
			first = false
			if e, found, stale := c.Lookup(key); found && !stale {
				return e, nil
			}
		}

		for !c.BeginFetch(key) {
			if err := c.Wait(ctx, key); err != nil {
				return nil, err
			}
			if e, found, _ := c.Lookup(key); found && !e.FetchedAt.IsZero() {
				return e, nil
			}
		}

		v, err := load(ctx)
		if ctx.Err() != nil {
			// Waiters on this key still get a late successful result.
			if err == nil {
				c.Store(key, v, nil)
			} else {
				c.EndFetch(key)
			}
			return nil, ctx.Err()
		}
		return c.Store(key, v, err), nil
	}
}

// trackList shows any cached page for opts and starts polling it.
func (m *Model) trackList(opts model.ListThreadsOptions) {
	m.poller.Untrack(m.listKey)
	m.listKey = ListKey(opts)

	if e, found, _ := m.lists.Lookup(m.listKey); found {
		m.threadList.SetResult(e.Value, e.Err)
	} else {
		m.threadList.Clear()
	}

	m.poller.Track(m.listKey, m.pollInterval, m.listFetch(opts))
}

func (m Model) listFetch(opts model.ListThreadsOptions) appsync.FetchFunc {
	gw := m.gateway
	return readThrough(m.lists, ListKey(opts), func(ctx context.Context) (*model.ThreadList, error) {
		return gw.ListThreads(ctx, opts)
	})
}

// trackThread shows any cached copy of thread id and starts polling it.
func (m *Model) trackThread(id string) {
	m.untrackThread()
	m.detailKey = DetailKey(id)

	var cached *model.ThreadDetail
	if e, found, _ := m.details.Lookup(m.detailKey); found {
		cached = e.Value
	}
	m.threadView.Open(id, cached)

	gw := m.gateway
	m.poller.Track(m.detailKey, m.pollInterval, readThrough(m.details, m.detailKey,
		func(ctx context.Context) (*model.ThreadDetail, error) {
			return gw.GetThread(ctx, id)
		}))
}

func (m *Model) untrackThread() {
	if m.detailKey != "" {
		m.poller.Untrack(m.detailKey)
		m.detailKey = ""
	}
}

// invalidate marks every cached query stale after a write and refetches
// the visible ones.
func (m *Model) invalidate() {
	m.lists.Invalidate()
	m.details.Invalidate()
	m.poller.Refresh(m.listKey)
	if m.detailKey != "" {
		m.poller.Refresh(m.detailKey)
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.threadList.SetSize(w, h)
		m.threadView.SetSize(w, h)
		m.composerView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.ResultMsg:
		m.handleResult(msg)
		return m, m.poller.WaitForNextResult()

	case threadlist.QueryChangedMsg:
		m.trackList(msg.Options)
		return m, nil

	case threadlist.RetryMsg:
		m.errMsg = ""
		m.poller.Refresh(m.listKey)
		return m, nil

	case threadlist.SelectedThreadMsg:
		m.previousView = m.currentView
		m.currentView = ViewThread
		m.trackThread(msg.ID)
		return m, nil

	case threadview.BackMsg:
		m.untrackThread()
		m.currentView = ViewList
		return m, nil

	case threadview.RetryMsg:
		m.errMsg = ""
		m.poller.Refresh(m.detailKey)
		return m, nil

	case threadview.ActionMsg:
		return m, m.applyAction(msg.ThreadID, msg.Action)

	case actionDoneMsg:
		if msg.err != nil {
			m.errMsg = ui.ErrorText(msg.err)
			return m, nil
		}
		m.notice = actionNotice(msg.action)
		m.invalidate()
		return m, nil

	case threadview.ReplyMsg:
		next := m.openComposer(compose.NewReply(msg.Message))
		return m, next

	case composer.SentMsg:
		var cmd tea.Cmd
		m.composerView, cmd = m.composerView.Update(msg)
		if m.currentView == ViewComposer {
			m.currentView = m.previousView
		}
		m.notice = "Email sent"
		m.invalidate()
		return m, cmd

	case composer.SendFailedMsg:
		if m.currentView != ViewComposer {
			m.errMsg = "Send failed: " + ui.ErrorText(msg.Err)
			return m, nil
		}
		var cmd tea.Cmd
		m.composerView, cmd = m.composerView.Update(msg)
		return m, cmd

	case composer.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		next := m.executeCommand(msg)
		return m, next

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.poller.Stop()
			return m, tea.Quit
		}
		if m.capturesKeys() {
			break
		}

		m.notice = ""
		switch {
		case key.Matches(msg, m.keys.Quit) && m.currentView == ViewList:
			m.poller.Stop()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command):
			m.previousView = m.currentView
			m.currentView = ViewCommand
			next := m.commandView.Focus()
			return m, next

		case key.Matches(msg, m.keys.Compose) && m.currentView == ViewList:
			next := m.openComposer(compose.NewDraft())
			return m, next

		case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
			m.currentView = m.previousView
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// capturesKeys reports whether the active view owns every keystroke.
func (m Model) capturesKeys() bool {
	switch m.currentView {
	case ViewComposer, ViewCommand:
		return true
	case ViewList:
		return m.threadList.Searching()
	}
	return false
}

// handleResult routes a poll result to the view showing its key.
func (m *Model) handleResult(msg appsync.ResultMsg) {
	m.updated = msg.FetchedAt

	switch msg.Key {
	case m.listKey:
		e, ok := msg.Value.(cache.Entry[*model.ThreadList])
		if !ok {
			return
		}
		m.threadList.SetResult(e.Value, e.Err)
		m.reportErr(e.Err)

	case m.detailKey:
		e, ok := msg.Value.(cache.Entry[*model.ThreadDetail])
		if !ok {
			return
		}
		m.threadView.SetResult(e.Value, e.Err)
		m.reportErr(e.Err)
	}
}

func (m *Model) reportErr(err error) {
	if err != nil {
		m.errMsg = ui.ErrorText(err)
		return
	}
	m.errMsg = ""
}

func (m *Model) openComposer(d *compose.Draft) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewComposer
	return m.composerView.Open(d)
}

func (m Model) applyAction(id string, action model.ThreadAction) tea.Cmd {
	gw := m.gateway
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		res, err := gw.ThreadAction(ctx, id, action)
		if err != nil {
			logger.Warn("thread action failed", "thread", id, "action", action, "error", err)
			return actionDoneMsg{action: action, err: err}
		}
		logger.Info("thread action applied", "thread", id, "action", action, "affected", res.AffectedCount)
		return actionDoneMsg{action: action}
	}
}

func actionNotice(a model.ThreadAction) string {
	switch a {
	case model.ActionMarkAsRead:
		return "Marked as read"
	case model.ActionMarkAsUnread:
		return "Marked as unread"
	case model.ActionArchive:
		return "Thread archived"
	case model.ActionUnarchive:
		return "Thread unarchived"
	default:
		return ""
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.threadList, cmd = m.threadList.Update(msg)
	case ViewThread:
		m.threadView, cmd = m.threadView.Update(msg)
	case ViewComposer:
		m.composerView, cmd = m.composerView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Inbound Mail", m.refreshStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.errMsg)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.threadList.View()
	case ViewThread:
		return m.threadView.View()
	case ViewComposer:
		return m.composerView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// refreshStatus describes the last refresh for the header.
func (m Model) refreshStatus() string {
	key := m.listKey
	if m.currentView == ViewThread {
		key = m.detailKey
	}
	if m.lists.Fetching(key) || m.details.Fetching(key) {
		return "refreshing..."
	}
	if m.updated.IsZero() {
		return ""
	}
	return "updated " + m.updated.Format("15:04:05")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.notice != "" {
		return m.notice
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc cancel"
	case ViewThread:
		return "esc back | R reply | m read/unread | a archive | r refresh | j/k scroll"
	case ViewComposer:
		return "tab next field | enter submit | esc cancel"
	default:
		if summary := m.threadList.FilterSummary(); summary != "" {
			return summary + " | c compose | ? help"
		}
		return m.helpView.ShortView()
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(cmd command.CommandMsg) tea.Cmd {
	opts := m.threadList.Options()
	var c tea.Cmd

	switch cmd.Name {
	case "refresh", "r":
		m.poller.Refresh(m.listKey)
		if m.detailKey != "" {
			m.poller.Refresh(m.detailKey)
		}
	case "compose", "new":
		return m.openComposer(compose.NewDraft())
	case "unread":
		m.threadList, c = m.threadList.SetFilter(true, false, opts.Search)
	case "archived":
		m.threadList, c = m.threadList.SetFilter(false, true, opts.Search)
	case "all", "clear":
		m.threadList, c = m.threadList.SetFilter(false, false, "")
	case "search":
		m.threadList, c = m.threadList.SetFilter(opts.UnreadOnly, opts.ArchivedOnly, cmd.Arg)
	case "quit", "q":
		m.poller.Stop()
		return tea.Quit
	default:
		m.errMsg = fmt.Sprintf("unknown command %q", cmd.Name)
	}
	return c
}

// Close stops every polling loop.
func (m Model) Close() {
	m.poller.Stop()
}
