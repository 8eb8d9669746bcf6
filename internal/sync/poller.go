package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inboundkit/internal/logging"
)

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// defaultInterval applies when Track is called with a non-positive
// interval.
const defaultInterval = 30 * time.Second

// FetchFunc loads the current value of one query.
type FetchFunc func(ctx context.Context) (interface{}, error)

// ResultMsg is a tea.Msg sent when a tracked query finishes a fetch.
type ResultMsg struct {
	Key       string
	Value     interface{}
	Err       error
	FetchedAt time.Time

	gen uint64
}

// query is one tracked polling loop.
type query struct {
	gen     uint64
	cancel  context.CancelFunc
	trigger chan struct{}
}

// Poller runs one background refresh loop per tracked query key and
// delivers results to the Bubble Tea runtime. Untracking a key cancels
// its loop; results it produced but that have not been consumed yet are
// discarded so a view the user navigated away from never receives late
// updates.
type Poller struct {
	mu       gosync.Mutex
	queries  map[string]*query
	nextGen  uint64
	resultCh chan ResultMsg
	stopped  bool
	logger   *slog.Logger
}

// New creates an idle Poller. A nil logger discards output.
func New(logger *slog.Logger) *Poller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Poller{
		queries:  make(map[string]*query),
		resultCh: make(chan ResultMsg, 16),
		logger:   logger,
	}
}

// Track starts polling key every interval, fetching once immediately.
// Tracking a key that is already tracked replaces its loop.
func (p *Poller) Track(key string, interval time.Duration, fetch FetchFunc) {
	if interval <= 0 {
		interval = defaultInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if old, ok := p.queries[key]; ok {
		old.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.nextGen++
	q := &query{
		gen:     p.nextGen,
		cancel:  cancel,
		trigger: make(chan struct{}, 1),
	}
	p.queries[key] = q

	go p.poll(ctx, key, q.gen, interval, q.trigger, fetch)
}

// Untrack cancels the loop for key. It is a no-op for unknown keys.
func (p *Poller) Untrack(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if q, ok := p.queries[key]; ok {
		q.cancel()
		delete(p.queries, key)
	}
}

// Tracking reports whether key has a running loop.
func (p *Poller) Tracking(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.queries[key]
	return ok
}

// Refresh asks the loop for key to fetch now instead of waiting for the
// next tick. It returns false if key is not tracked.
func (p *Poller) Refresh(key string) bool {
	p.mu.Lock()
	q, ok := p.queries[key]
	p.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case q.trigger <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return true
}

// Stop cancels every loop. The Poller cannot be reused afterwards.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	for key, q := range p.queries {
		q.cancel()
		delete(p.queries, key)
	}
	p.stopped = true
	close(p.resultCh)
}

// poll runs the refresh loop for a single query.
func (p *Poller) poll(
	ctx context.Context,
	key string,
	gen uint64,
	interval time.Duration,
	trigger <-chan struct{},
	fetch FetchFunc,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.fetchOnce(ctx, key, gen, fetch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchOnce(ctx, key, gen, fetch)
		case <-trigger:
			p.fetchOnce(ctx, key, gen, fetch)
		}
	}
}

// fetchOnce performs a single fetch and publishes the result unless the
// loop was cancelled meanwhile.
func (p *Poller) fetchOnce(ctx context.Context, key string, gen uint64, fetch FetchFunc) {
	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	value, err := fetch(fctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Warn("poll fetch failed", "key", key, "error", err)
	}

	msg := ResultMsg{Key: key, Value: value, Err: err, FetchedAt: time.Now(), gen: gen}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	select {
	case p.resultCh <- msg:
	case <-ctx.Done():
	default:
		// Drop if the channel is full; the next tick refreshes again.
		p.logger.Debug("poll result dropped", "key", key)
	}
}

// current reports whether msg came from the live loop for its key.
func (p *Poller) current(msg ResultMsg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.queries[msg.Key]
	return ok && q.gen == msg.gen
}

// WaitForNextResult returns a tea.Cmd that waits for the next result
// from a still-tracked query. Results from untracked or replaced loops
// are skipped. Call it again after handling each ResultMsg.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		for {
			msg, ok := <-p.resultCh
			if !ok {
				return nil
			}
			if p.current(msg) {
				return msg
			}
		}
	}
}
