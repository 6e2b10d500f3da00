package monitor

import (
	"context"
	"time"
)

// Status is the lifecycle state of a broadcast.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusEnded    Status = "ended"
)

// MessageType distinguishes chat event kinds. Only text messages are handed
// to the response collaborator; the rest are display-only.
type MessageType string

const (
	MessageText            MessageType = "text"
	MessageSuperChat       MessageType = "superChat"
	MessageNewMember       MessageType = "newMember"
	MessageMemberMilestone MessageType = "memberMilestone"
)

// LivestreamInfo identifies one broadcast. Identity is by ID; the tracker
// replaces its current instance wholesale on every poll.
type LivestreamInfo struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Status             Status    `json:"status"`
	ScheduledStartTime time.Time `json:"scheduledStartTime,omitzero"`
	ActualStartTime    time.Time `json:"actualStartTime,omitzero"`
	ActualEndTime      time.Time `json:"actualEndTime,omitzero"`
	URL                string    `json:"url"`
	LiveChatID         string    `json:"liveChatId,omitempty"`
	ConcurrentViewers  int64     `json:"concurrentViewers,omitempty"`
}

// Duration returns the elapsed time between actual start and end, or zero
// when either is unknown.
func (l LivestreamInfo) Duration() time.Duration {
	if l.ActualStartTime.IsZero() || l.ActualEndTime.IsZero() {
		return 0
	}
	return l.ActualEndTime.Sub(l.ActualStartTime)
}

// ChatMessage is one chat event, immutable once built from a source page.
type ChatMessage struct {
	ID              string
	AuthorName      string
	AuthorChannelID string
	Text            string
	PublishedAt     time.Time
	Type            MessageType
}

// ChatPage is one page of chat events. NextToken may be empty, which means
// "no continuation yet", not end of session.
type ChatPage struct {
	Messages  []ChatMessage
	NextToken string
}

// EventKind classifies a lifecycle transition.
type EventKind string

const (
	EventStart        EventKind = "livestream_start"
	EventStatusChange EventKind = "livestream_status_change"
	EventEnd          EventKind = "livestream_end"
)

// Event is an edge-triggered lifecycle transition.
type Event struct {
	Kind       EventKind
	Livestream LivestreamInfo
}

// StreamContext is the descriptive context handed to the response
// collaborator alongside a message batch.
type StreamContext struct {
	Title       string
	Description string
	Viewers     int64
}

// Decision is the collaborator's verdict for one batch.
type Decision struct {
	ShouldReply bool
	Message     string
	Confidence  float64
	Reason      string
}

// BroadcastSource lists the channel's current broadcasts.
type BroadcastSource interface {
	ListBroadcasts(ctx context.Context, limit int64) ([]LivestreamInfo, error)
}

// ChatSource pages through live chat messages and posts replies.
type ChatSource interface {
	ListMessages(ctx context.Context, chatID, pageToken string, maxResults int64) (ChatPage, error)
	SendMessage(ctx context.Context, chatID, text string) error
}

// Responder decides whether and how to reply to a batch of chat messages.
type Responder interface {
	Decide(ctx context.Context, batch []ChatMessage, stream StreamContext) (Decision, error)
}

// ContextUpdater is implemented by responders that want stream context pushed
// to them on start and status changes.
type ContextUpdater interface {
	UpdateStreamContext(ctx context.Context, stream StreamContext)
}

// ReplyRelayer is implemented by responders that deliver accepted replies
// through their own channel (e.g. synthesized voice). The dispatcher skips
// the chat send for those.
type ReplyRelayer interface {
	RelaysReply() bool
}

// DisplaySink receives every fetched message, eligible or not. Show must not
// block the poll loop.
type DisplaySink interface {
	Show(msg ChatMessage)
}

// Notifier receives lifecycle events. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Recorder persists lifecycle events and chat messages. Failures are logged
// by the caller and never interrupt polling.
type Recorder interface {
	RecordEvent(ctx context.Context, ev Event) error
	RecordMessage(ctx context.Context, livestreamID string, msg ChatMessage) error
}
