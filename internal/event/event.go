package event

import (
	"time"

	"courier/server/internal/models"
)

// Type identifies a websocket event.
type Type string

const (
	// Server-originated pushes
	TypeNewMessage  Type = "new_message"  // message delivered to recipient
	TypeMessageAck  Type = "message_ack"  // persisted message echoed to sender
	TypeReadReceipt Type = "read_receipt" // reader marked the conversation read
	TypePresence    Type = "presence"     // counterpart went online/offline
	TypeError       Type = "error"

	// Relayed both ways
	TypeTypingStart Type = "typing_start"
	TypeTypingStop  Type = "typing_stop"

	// Client-originated requests
	TypeSendMessage Type = "send_msg"
	TypeMarkRead    Type = "mark_read"
)

// Event is the envelope for every websocket frame the server sends.
type Event struct {
	Type      Type      `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// New wraps a payload with the current timestamp.
func New(t Type, payload any) Event {
	return Event{Type: t, Payload: payload, Timestamp: time.Now()}
}

// ReadReceiptPayload tells the original sender who read their messages.
type ReadReceiptPayload struct {
	Reader string `json:"reader"`
}

// PresencePayload announces an identity going online or offline.
type PresencePayload struct {
	Identity string    `json:"identity"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// TypingPayload is relayed between conversation parties.
type TypingPayload struct {
	Identity    string `json:"identity"`
	Counterpart string `json:"counterpart,omitempty"`
	GroupID     string `json:"groupId,omitempty"`
}

// ErrorPayload reports a failed request back to the issuing connection.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage builds the push sent to a live recipient.
func NewMessage(m models.Message) Event { return New(TypeNewMessage, m) }

// Ack builds the acknowledgment echoed to the sender with the
// store-assigned id, status and timestamp.
func Ack(m models.Message) Event { return New(TypeMessageAck, m) }
