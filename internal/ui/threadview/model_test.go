package threadview

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/keys"
	"github.com/nhle/inboundkit/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleDetail() *model.ThreadDetail {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &model.ThreadDetail{
		Thread: model.Thread{ID: "t1", NormalizedSubject: "Project kickoff", HasUnread: true},
		Messages: []model.Message{
			{
				ID: "m1", Type: model.DirectionInbound, FromAddress: "alice@example.com",
				Subject: "Project kickoff", HTMLBody: "<p>Hello <b>team</b></p>", TextBody: "ignored text",
				Date: base, IsRead: true,
			},
			{
				ID: "m2", Type: model.DirectionOutbound, FromAddress: "me@example.com",
				Subject: "Re: Project kickoff", TextBody: "Thanks!", Date: base.Add(time.Hour), IsRead: true,
			},
			{
				ID: "m3", Type: model.DirectionInbound, FromAddress: "bob@example.com",
				Subject: "Re: Project kickoff", TextBody: "See attached", Date: base.Add(2 * time.Hour),
				Attachments: []model.Attachment{{Filename: "plan.pdf", ContentType: "application/pdf", Size: 2048}},
			},
		},
	}
}

func newTestModel() Model {
	m := New(keys.DefaultKeyMap(), 100, 60)
	m.Open("t1", nil)
	return m
}

func TestView_States(t *testing.T) {
	m := newTestModel()
	assert.Contains(t, m.View(), "Loading thread...")

	m.SetResult(nil, errors.New("connection refused"))
	assert.Contains(t, m.View(), "Failed to load thread: connection refused")
	assert.Contains(t, m.View(), "Press r to retry")

	m.SetResult(&model.ThreadDetail{Thread: model.Thread{ID: "t1"}}, nil)
	assert.Contains(t, m.View(), "No messages in this thread")
}

func TestView_PrefersHTMLAndListsAttachments(t *testing.T) {
	m := newTestModel()
	m.SetResult(sampleDetail(), nil)

	view := m.View()
	assert.Contains(t, view, "Hello team")
	assert.NotContains(t, view, "ignored text")
	assert.Contains(t, view, "plan.pdf (application/pdf, 2.0 KB)")
}

func TestReplyTargetsNewestInbound(t *testing.T) {
	m := newTestModel()
	m.SetResult(sampleDetail(), nil)

	_, cmd := m.Update(runes("R"))
	require.NotNil(t, cmd)
	assert.Equal(t, "m3", cmd().(ReplyMsg).Message.ID)
}

func TestToggleReadAndArchive(t *testing.T) {
	m := newTestModel()
	m.SetResult(sampleDetail(), nil)

	_, cmd := m.Update(runes("m"))
	require.NotNil(t, cmd)
	assert.Equal(t, ActionMsg{ThreadID: "t1", Action: model.ActionMarkAsRead}, cmd())

	d := sampleDetail()
	for i := range d.Messages {
		d.Messages[i].IsRead = true
	}
	d.Thread.IsArchived = true
	m.SetResult(d, nil)

	_, cmd = m.Update(runes("m"))
	assert.Equal(t, model.ActionMarkAsUnread, cmd().(ActionMsg).Action)

	_, cmd = m.Update(runes("a"))
	assert.Equal(t, model.ActionUnarchive, cmd().(ActionMsg).Action)
}

func TestBack(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestFailedRefetchKeepsMessages(t *testing.T) {
	m := newTestModel()
	m.SetResult(sampleDetail(), nil)
	m.SetResult(nil, errors.New("timeout"))
	assert.Contains(t, m.View(), "Hello team")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1023 B", FormatSize(1023))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "3.0 MB", FormatSize(3*1024*1024))
}

func TestFormatAttachment_Defaults(t *testing.T) {
	assert.Equal(t, "unnamed (application/octet-stream, 10 B)", FormatAttachment(model.Attachment{Size: 10}))
}
