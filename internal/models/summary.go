package models

import "time"

// ConversationSummary is one row of a user's chat list: the counterpart,
// the last visible message and the unread count. It is always recomputed
// from the message store; there is no separately persisted copy.
type ConversationSummary struct {
	Counterpart string    `json:"counterpart"`
	GroupID     *string   `json:"groupId,omitempty"`
	LastBody    string    `json:"lastBody"`
	LastKind    Kind      `json:"lastKind"`
	LastStatus  Status    `json:"lastStatus"`
	LastSender  string    `json:"lastSender"`
	LastAt      time.Time `json:"lastAt"`
	Unread      int       `json:"unread"`
	Online      bool      `json:"online"`
	Avatar      string    `json:"avatar,omitempty"`
}
