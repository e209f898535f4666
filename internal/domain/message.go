package domain

import "time"

// Sender identifies message author.
type Sender string

const (
	SenderAI   Sender = "ai"
	SenderUser Sender = "user"
)

// MessageKind classifies transcript entries.
// Params: fixed kinds plus one kind per alert.
// Returns: typed message kind.
type MessageKind string

const (
	// KindWelcome is the single startup greeting.
	KindWelcome MessageKind = "welcome"
	// KindResponse is the acknowledgement of free text.
	KindResponse MessageKind = "response"
	// KindConfirmation answers an action click.
	KindConfirmation MessageKind = "confirmation"
	// KindInput marks user-authored entries.
	KindInput MessageKind = "input"
)

// AlertMessageKind maps alert kind to the transcript kind of its message.
// Params: alert kind.
// Returns: message kind equal to alert kind name.
func AlertMessageKind(kind AlertKind) MessageKind {
	return MessageKind(kind)
}

// Message is one immutable transcript entry.
// Params: identity, author, body, timing, and optional follow-up actions.
// Returns: transcript payload for views, streams, and feeds.
type Message struct {
	ID        string      `json:"id"`
	Seq       int         `json:"seq"`
	Sender    Sender      `json:"sender"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"kind"`
	Priority  Priority    `json:"priority,omitempty"`
	Actions   []string    `json:"actions,omitempty"`
	ReplyTo   string      `json:"replyTo,omitempty"`
}

// Clone returns a copy that does not share the actions slice.
// Params: none.
// Returns: detached message copy.
func (m Message) Clone() Message {
	if m.Actions != nil {
		m.Actions = append([]string(nil), m.Actions...)
	}
	return m
}
