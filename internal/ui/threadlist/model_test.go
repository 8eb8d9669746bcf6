package threadlist

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/keys"
	"github.com/nhle/inboundkit/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel() Model {
	return New(keys.DefaultKeyMap(), 25, 100, 30)
}

func sampleList(n int, hasMore bool) *model.ThreadList {
	tl := &model.ThreadList{Pagination: model.Pagination{Page: 1, Limit: 25, Total: n, HasMore: hasMore}}
	for i := 0; i < n; i++ {
		tl.Threads = append(tl.Threads, model.Thread{
			ID:                string(rune('a' + i)),
			NormalizedSubject: "Subject",
			MessageCount:      2,
			LastMessageAt:     time.Now().Add(-time.Hour),
		})
	}
	return tl
}

func TestEmptyMessage(t *testing.T) {
	assert.Equal(t, "No threads found", EmptyMessage(model.ListThreadsOptions{}))
	assert.Equal(t, "No unread threads", EmptyMessage(model.ListThreadsOptions{UnreadOnly: true}))
	assert.Equal(t, "No archived threads", EmptyMessage(model.ListThreadsOptions{ArchivedOnly: true}))
	assert.Equal(t, `No threads match "invoice"`, EmptyMessage(model.ListThreadsOptions{Search: "invoice", UnreadOnly: true}))
}

func TestView_UnreadOnlyEmpty(t *testing.T) {
	m := newTestModel()
	m, cmd := m.Update(runes("u"))
	require.NotNil(t, cmd)
	msg := cmd().(QueryChangedMsg)
	assert.True(t, msg.Options.UnreadOnly)
	assert.Equal(t, 1, msg.Options.Page)

	m.SetResult(&model.ThreadList{}, nil)
	assert.Contains(t, m.View(), "No unread threads")
	assert.NotContains(t, m.View(), "No threads found")
}

func TestView_LoadingThenGenericEmpty(t *testing.T) {
	m := newTestModel()
	assert.Contains(t, m.View(), "Loading threads...")

	m.SetResult(&model.ThreadList{}, nil)
	assert.Contains(t, m.View(), "No threads found")
}

func TestView_ErrorWithRetry(t *testing.T) {
	m := newTestModel()
	m.SetResult(nil, &apperr.UpstreamError{Status: 500, Message: "Internal error"})

	view := m.View()
	assert.Contains(t, view, "Failed to load threads: Internal error")
	assert.Contains(t, view, "Press r to retry")

	_, cmd := m.Update(runes("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, RetryMsg{}, cmd())
}

func TestFailedRefetchKeepsThreads(t *testing.T) {
	m := newTestModel()
	m.SetResult(sampleList(2, false), nil)
	m.SetResult(nil, errors.New("timeout"))

	assert.NotContains(t, m.View(), "Failed to load threads")
	_, ok := m.SelectedThread()
	assert.True(t, ok)
}

func TestFiltersAreExclusive(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(runes("u"))
	m, cmd := m.Update(runes("A"))
	opts := cmd().(QueryChangedMsg).Options
	assert.True(t, opts.ArchivedOnly)
	assert.False(t, opts.UnreadOnly)
	assert.Equal(t, opts, m.Options())
}

func TestPaging(t *testing.T) {
	m := newTestModel()
	m.SetResult(sampleList(3, false), nil)

	_, cmd := m.Update(runes("]"))
	assert.Nil(t, cmd, "no next page without HasMore")

	m.SetResult(sampleList(3, true), nil)
	m, cmd = m.Update(runes("]"))
	require.NotNil(t, cmd)
	assert.Equal(t, 2, cmd().(QueryChangedMsg).Options.Page)

	m, cmd = m.Update(runes("["))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, cmd().(QueryChangedMsg).Options.Page)

	_, cmd = m.Update(runes("["))
	assert.Nil(t, cmd)
}

func TestSearch(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(runes("/"))
	require.True(t, m.Searching())

	for _, r := range "invoice" {
		m, _ = m.Update(runes(string(r)))
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "invoice", cmd().(QueryChangedMsg).Options.Search)
	assert.False(t, m.Searching())

	m.SetResult(&model.ThreadList{}, nil)
	assert.Contains(t, m.View(), `No threads match "invoice"`)
}

func TestSelect(t *testing.T) {
	m := newTestModel()
	m.SetResult(sampleList(2, false), nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedThreadMsg{ID: "a"}, cmd())
}

func TestParticipants(t *testing.T) {
	item := ThreadItem{Thread: model.Thread{ParticipantEmails: []string{"a@x", "b@x", "c@x", "d@x"}}}
	assert.Equal(t, "a@x, b@x +2", item.Participants())
	assert.Equal(t, "(no subject)", ThreadItem{}.Subject())
}
