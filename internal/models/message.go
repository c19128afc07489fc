package models

import "time"

// Status is the delivery state of a message. It only ever moves forward.
type Status int

const (
	StatusSent      Status = 0
	StatusDelivered Status = 1
	StatusRead      Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	}
	return "unknown"
}

// Kind is the payload type of a message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ValidKind reports whether k is one of the accepted message kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindText, KindImage, KindAudio, KindVideo:
		return true
	}
	return false
}

// Message is a chat message. The ID is assigned by the store at append time
// and is strictly increasing; it defines the order within a conversation.
// Everything except Status and the visibility flags is immutable once stored.
type Message struct {
	ID                 int64     `json:"id" db:"id"`
	Sender             string    `json:"sender" db:"sender"`
	Recipient          string    `json:"recipient" db:"recipient"`
	GroupID            *string   `json:"groupId,omitempty" db:"group_id"`
	Body               string    `json:"body" db:"body"`
	Kind               Kind      `json:"kind" db:"kind"`
	Status             Status    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	VisibleToSender    bool      `json:"-" db:"visible_to_sender"`
	VisibleToRecipient bool      `json:"-" db:"visible_to_recipient"`
}

// VisibleTo reports whether identity may still see this message after
// per-side soft deletes. Group messages carry no per-side flags.
func (m *Message) VisibleTo(identity string) bool {
	if m.GroupID != nil {
		return true
	}
	switch identity {
	case m.Sender:
		return m.VisibleToSender
	case m.Recipient:
		return m.VisibleToRecipient
	}
	return false
}
