package receipt

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courier/server/internal/event"
	"courier/server/internal/models"
	"courier/server/internal/presence"
	"courier/server/internal/store"
)

type fakeHandle struct {
	id string

	mu     sync.Mutex
	events []event.Event
}

func (h *fakeHandle) ID() string { return h.id }

func (h *fakeHandle) Send(ev event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *fakeHandle) Events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]event.Event(nil), h.events...)
}

func seed(t *testing.T, st *store.Memory, sender, recipient string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := st.Append(context.Background(), store.AppendRequest{
			Sender: sender, Recipient: recipient,
			Kind: models.KindText, Body: "msg", Status: models.StatusSent,
		})
		require.NoError(t, err)
	}
}

func TestMarkReadNotifiesOnlineSender(t *testing.T) {
	st := store.NewMemory()
	reg := presence.NewRegistry()
	c := NewCoordinator(st, reg, zap.NewNop().Sugar())
	seed(t, st, "bob", "alice", 3)

	bob := &fakeHandle{id: "c-bob"}
	reg.Join("bob", bob)

	changed, err := c.MarkRead(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	events := bob.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeReadReceipt, events[0].Type)
	payload, ok := events[0].Payload.(event.ReadReceiptPayload)
	require.True(t, ok)
	assert.Equal(t, "alice", payload.Reader)

	n, err := st.UnreadCount(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	reg := presence.NewRegistry()
	c := NewCoordinator(st, reg, zap.NewNop().Sugar())
	seed(t, st, "bob", "alice", 2)

	bob := &fakeHandle{id: "c-bob"}
	reg.Join("bob", bob)

	changed, err := c.MarkRead(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	// The repeat changes nothing and must not notify again.
	changed, err = c.MarkRead(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Len(t, bob.Events(), 1)
}

func TestMarkReadWithOfflineSenderJustUpdates(t *testing.T) {
	st := store.NewMemory()
	reg := presence.NewRegistry()
	c := NewCoordinator(st, reg, zap.NewNop().Sugar())
	seed(t, st, "bob", "alice", 1)

	changed, err := c.MarkRead(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	m, err := st.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, m.Status)
}

func TestMarkReadOnEmptyConversation(t *testing.T) {
	c := NewCoordinator(store.NewMemory(), presence.NewRegistry(), zap.NewNop().Sugar())

	changed, err := c.MarkRead(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, changed)
}
