package model

import "time"

// Thread is a conversation summary as returned by GET /threads.
// The upstream service owns its lifecycle; the client only renders it.
type Thread struct {
	// ID is the upstream thread identifier.
	ID string `json:"id"`

	// RootMessageID is the Message-ID header of the first message.
	RootMessageID string `json:"rootMessageId"`

	// NormalizedSubject is the subject with reply/forward prefixes removed.
	NormalizedSubject string `json:"normalizedSubject"`

	// ParticipantEmails lists every address seen in the conversation.
	ParticipantEmails []string `json:"participantEmails"`

	MessageCount  int       `json:"messageCount"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	HasUnread     bool      `json:"hasUnread"`
	IsArchived    bool      `json:"isArchived"`

	// LatestMessage is a short preview of the newest message, when sent.
	LatestMessage *MessagePreview `json:"latestMessage,omitempty"`
}

// MessagePreview is the abbreviated message embedded in list results.
type MessagePreview struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Subject     string    `json:"subject"`
	FromText    string    `json:"fromText"`
	TextPreview string    `json:"textPreview"`
	IsRead      bool      `json:"isRead"`
	Date        time.Time `json:"date"`
}

// Pagination describes the page a ThreadList covers.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// ThreadList is one page of thread summaries.
type ThreadList struct {
	Threads    []Thread   `json:"threads"`
	Pagination Pagination `json:"pagination"`
}

// ThreadDetail is a thread with its messages, oldest first.
type ThreadDetail struct {
	Thread   Thread    `json:"thread"`
	Messages []Message `json:"messages"`
}

// ListThreadsOptions holds the list filters. Zero values are omitted
// from the query string.
type ListThreadsOptions struct {
	Page         int
	Limit        int
	Search       string
	UnreadOnly   bool
	ArchivedOnly bool
}

// ThreadAction is an operation accepted by POST /threads/{id}/actions.
type ThreadAction string

const (
	ActionMarkAsRead   ThreadAction = "mark_as_read"
	ActionMarkAsUnread ThreadAction = "mark_as_unread"
	ActionArchive      ThreadAction = "archive"
	ActionUnarchive    ThreadAction = "unarchive"
)

// Valid reports whether a is one of the known thread actions.
func (a ThreadAction) Valid() bool {
	switch a {
	case ActionMarkAsRead, ActionMarkAsUnread, ActionArchive, ActionUnarchive:
		return true
	}
	return false
}

// ThreadActionResult is the acknowledgement returned by a thread action.
type ThreadActionResult struct {
	Success       bool   `json:"success"`
	Action        string `json:"action"`
	ThreadID      string `json:"threadId"`
	AffectedCount int    `json:"affectedMessages"`
	Message       string `json:"message"`
}
