package delivery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courier/server/internal/event"
	"courier/server/internal/group"
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

// failingStore rejects every append, standing in for an unavailable backend.
type failingStore struct {
	store.MessageStore
}

func (failingStore) Append(ctx context.Context, req store.AppendRequest) (models.Message, error) {
	return models.Message{}, store.ErrUnavailable
}

func newTestRouter(st store.MessageStore) (*Router, *presence.Registry, *group.Memory) {
	reg := presence.NewRegistry()
	groups := group.NewMemory()
	return NewRouter(st, reg, groups, zap.NewNop().Sugar()), reg, groups
}

func TestSendToOfflineRecipient(t *testing.T) {
	st := store.NewMemory()
	router, reg, _ := newTestRouter(st)
	bob := &fakeHandle{id: "c-bob"}
	reg.Join("bob", bob)

	msg, err := router.Send(context.Background(), SendRequest{
		Sender: "bob", Recipient: "alice", Body: "hi", Kind: models.KindText,
	})
	require.NoError(t, err)

	// alice is offline: stored as Sent, nothing pushed to her later socket.
	assert.Equal(t, models.StatusSent, msg.Status)
	assert.Equal(t, int64(1), msg.ID)

	// bob's own connection got exactly one acknowledgment with the
	// persisted record.
	events := bob.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeMessageAck, events[0].Type)
	acked, ok := events[0].Payload.(models.Message)
	require.True(t, ok)
	assert.Equal(t, msg.ID, acked.ID)
	assert.Equal(t, models.StatusSent, acked.Status)
}

func TestSendToOnlineRecipient(t *testing.T) {
	st := store.NewMemory()
	router, reg, _ := newTestRouter(st)
	alice := &fakeHandle{id: "c-alice"}
	reg.Join("alice", alice)

	msg, err := router.Send(context.Background(), SendRequest{
		Sender: "bob", Recipient: "alice", Body: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, msg.Status)
	assert.Equal(t, models.KindText, msg.Kind, "kind defaults to text")

	events := alice.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeNewMessage, events[0].Type)
	pushed, ok := events[0].Payload.(models.Message)
	require.True(t, ok)
	assert.Equal(t, msg.ID, pushed.ID)
	assert.Equal(t, models.StatusDelivered, pushed.Status)
}

func TestSendValidation(t *testing.T) {
	router, _, _ := newTestRouter(store.NewMemory())
	ctx := context.Background()

	cases := []SendRequest{
		{Recipient: "alice", Body: "hi"},                             // no sender
		{Sender: "bob", Recipient: "alice"},                          // no body
		{Sender: "bob", Body: "hi"},                                  // no target
		{Sender: "bob", Recipient: "alice", GroupID: "g", Body: "x"}, // both targets
		{Sender: "bob", Recipient: "bob", Body: "hi"},                // self send
		{Sender: "bob", Recipient: "alice", Body: "hi", Kind: "gif"}, // bad kind
	}
	for _, req := range cases {
		_, err := router.Send(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "request %+v", req)
	}
}

func TestSendStoreFailureProducesNoPush(t *testing.T) {
	router, reg, _ := newTestRouter(failingStore{})
	alice := &fakeHandle{id: "c-alice"}
	bob := &fakeHandle{id: "c-bob"}
	reg.Join("alice", alice)
	reg.Join("bob", bob)

	_, err := router.Send(context.Background(), SendRequest{
		Sender: "bob", Recipient: "alice", Body: "hi",
	})
	require.ErrorIs(t, err, store.ErrUnavailable)

	// A message that failed to persist is never shown to anyone.
	assert.Empty(t, alice.Events())
	assert.Empty(t, bob.Events())
}

func TestGroupSendFansOutToLiveMembers(t *testing.T) {
	st := store.NewMemory()
	router, reg, groups := newTestRouter(st)

	g, err := groups.Create(context.Background(), "team", "", "alice", []string{"bob", "carol", "dave"})
	require.NoError(t, err)

	aliceH := &fakeHandle{id: "c-alice"}
	bobH := &fakeHandle{id: "c-bob"}
	carolH := &fakeHandle{id: "c-carol"}
	reg.Join("alice", aliceH)
	reg.Join("bob", bobH)
	reg.Join("carol", carolH)
	// dave stays offline

	msg, err := router.Send(context.Background(), SendRequest{
		Sender: "alice", GroupID: g.ID, Body: "standup?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, msg.Status)
	require.NotNil(t, msg.GroupID)
	assert.Equal(t, g.ID, *msg.GroupID)

	// bob and carol each get the push, the sender gets only the ack.
	require.Len(t, bobH.Events(), 1)
	assert.Equal(t, event.TypeNewMessage, bobH.Events()[0].Type)
	require.Len(t, carolH.Events(), 1)
	require.Len(t, aliceH.Events(), 1)
	assert.Equal(t, event.TypeMessageAck, aliceH.Events()[0].Type)
}

func TestGroupSendWithNoLiveMembersIsSent(t *testing.T) {
	st := store.NewMemory()
	router, _, groups := newTestRouter(st)

	g, err := groups.Create(context.Background(), "team", "", "alice", []string{"bob"})
	require.NoError(t, err)

	msg, err := router.Send(context.Background(), SendRequest{
		Sender: "alice", GroupID: g.ID, Body: "anyone?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)
}

func TestGroupSendRejectsNonMembers(t *testing.T) {
	st := store.NewMemory()
	router, _, groups := newTestRouter(st)

	g, err := groups.Create(context.Background(), "team", "", "alice", nil)
	require.NoError(t, err)

	_, err = router.Send(context.Background(), SendRequest{
		Sender: "mallory", GroupID: g.ID, Body: "hi",
	})
	assert.ErrorIs(t, err, ErrNotMember)

	msgs, err := st.RangeByConversation(context.Background(), "alice", "", &g.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs, "rejected send must not reach the store")
}

func TestConcurrentOpposingSendsStayOrdered(t *testing.T) {
	st := store.NewMemory()
	router, _, _ := newTestRouter(st)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := router.Send(ctx, SendRequest{Sender: "x", Recipient: "y", Body: "ping"})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := router.Send(ctx, SendRequest{Sender: "y", Recipient: "x", Body: "pong"})
		assert.NoError(t, err)
	}()
	wg.Wait()

	msgs, err := st.RangeByConversation(ctx, "x", "y", nil)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Less(t, msgs[0].ID, msgs[1].ID)
	assert.ElementsMatch(t, []int64{1, 2}, []int64{msgs[0].ID, msgs[1].ID})
}
