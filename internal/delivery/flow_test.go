package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courier/server/internal/event"
	"courier/server/internal/models"
	"courier/server/internal/receipt"
	"courier/server/internal/store"
)

// Full offline-delivery round trip: bob messages an offline alice, alice
// connects later, catches up through history and marks the conversation
// read, and bob gets exactly one read receipt.
func TestOfflineDeliveryReadFlow(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	router, reg, _ := newTestRouter(st)
	receipts := receipt.NewCoordinator(st, reg, zap.NewNop().Sugar())

	bob := &fakeHandle{id: "c-bob"}
	reg.Join("bob", bob)

	sent, err := router.Send(ctx, SendRequest{
		Sender: "bob", Recipient: "alice", Body: "hi", Kind: models.KindText,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, sent.Status, "alice is offline")

	// bob's ack carries the store-assigned id
	require.Len(t, bob.Events(), 1)
	assert.Equal(t, event.TypeMessageAck, bob.Events()[0].Type)

	// alice connects and fetches history; the message is still Sent
	alice := &fakeHandle{id: "c-alice"}
	reg.Join("alice", alice)

	history, err := st.RangeByConversation(ctx, "alice", "bob", nil)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)
	assert.Equal(t, models.StatusSent, history[0].Status)

	// alice reads; the row flips to Read and bob is told once
	changed, err := receipts.MarkRead(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	row, err := st.GetByID(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, row.Status)

	events := bob.Events()
	require.Len(t, events, 2)
	assert.Equal(t, event.TypeReadReceipt, events[1].Type)
	payload, ok := events[1].Payload.(event.ReadReceiptPayload)
	require.True(t, ok)
	assert.Equal(t, "alice", payload.Reader)
}
