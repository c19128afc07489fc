// Package store holds the durable message log. Messages get their id and
// timestamp here, under the store's critical section, so ids are strictly
// increasing across concurrent senders and define conversation order.
package store

import (
	"context"
	"errors"

	"courier/server/internal/models"
)

var (
	// ErrNotFound is returned by point lookups for ids that were never assigned.
	ErrNotFound = errors.New("store: message not found")

	// ErrUnavailable wraps transient backend failures. Appends are atomic, so
	// a caller seeing this may retry the whole operation; there is never a
	// half-written row to clean up.
	ErrUnavailable = errors.New("store: unavailable")
)

// AppendRequest carries everything the caller decides about a new message.
// The store itself assigns id and created-at; the initial status is computed
// by the delivery router from recipient liveness before the append.
type AppendRequest struct {
	Sender    string
	Recipient string
	GroupID   *string
	Kind      models.Kind
	Body      string
	Status    models.Status
}

// ConversationHead is the newest visible message of one conversation plus
// the requester's unread count, as used by the summary projector.
type ConversationHead struct {
	Counterpart string
	Last        models.Message
	Unread      int
}

// MessageStore is the durable, ordered log of messages.
type MessageStore interface {
	// Append persists a new message and returns it with id and createdAt
	// filled in. Both visibility flags start true.
	Append(ctx context.Context, req AppendRequest) (models.Message, error)

	// GetByID returns the message with the given id or ErrNotFound.
	GetByID(ctx context.Context, id int64) (models.Message, error)

	// RangeByConversation returns the conversation history visible to the
	// requester, ascending by id. For direct conversations groupID is nil and
	// counterpart names the other party; for groups counterpart is ignored.
	RangeByConversation(ctx context.Context, requester, counterpart string, groupID *string) ([]models.Message, error)

	// UpdateStatusBulk advances every message from sender to recipient whose
	// status is below newStatus, and reports how many rows actually changed.
	// Status never regresses; calling again with nothing left to advance
	// changes zero rows.
	UpdateStatusBulk(ctx context.Context, sender, recipient string, newStatus models.Status) (int64, error)

	// SetVisibility flips identity's side of every direct message between
	// identity and counterpart. Used for per-side conversation delete; the
	// other party's view is unaffected.
	SetVisibility(ctx context.Context, identity, counterpart string, visible bool) error

	// UnreadCount counts messages from sender to reader that are below Read
	// and still visible to the reader.
	UnreadCount(ctx context.Context, reader, sender string) (int, error)

	// ConversationHeads returns one head per direct conversation that still
	// has at least one message visible to identity, ordered by last message
	// time descending.
	ConversationHeads(ctx context.Context, identity string) ([]ConversationHead, error)

	// LastGroupMessage returns the newest message in a group conversation,
	// or ErrNotFound for a group with no messages yet.
	LastGroupMessage(ctx context.Context, groupID string) (models.Message, error)
}
