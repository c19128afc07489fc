package summary

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/server/internal/event"
	"courier/server/internal/group"
	"courier/server/internal/models"
	"courier/server/internal/presence"
	"courier/server/internal/profile"
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

type fixture struct {
	store     *store.Memory
	reg       *presence.Registry
	profiles  *profile.Memory
	groups    *group.Memory
	projector *Projector
}

func newFixture() *fixture {
	f := &fixture{
		store:    store.NewMemory(),
		reg:      presence.NewRegistry(),
		profiles: profile.NewMemory(),
		groups:   group.NewMemory(),
	}
	f.projector = NewProjector(f.store, f.reg, f.profiles, f.groups)
	return f
}

func (f *fixture) send(t *testing.T, sender, recipient string) models.Message {
	t.Helper()
	m, err := f.store.Append(context.Background(), store.AppendRequest{
		Sender: sender, Recipient: recipient,
		Kind: models.KindText, Body: "from " + sender, Status: models.StatusSent,
	})
	require.NoError(t, err)
	return m
}

func TestListConversationsOrderAndCounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.send(t, "bob", "alice")
	f.send(t, "bob", "alice")
	f.send(t, "carol", "alice")

	require.NoError(t, f.profiles.Ensure(ctx, "bob"))
	require.NoError(t, f.profiles.Update(ctx, "bob", "bob.png", "hi"))
	f.reg.Join("carol", &fakeHandle{id: "c1"})

	rows, err := f.projector.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// carol's message is the newest conversation head
	assert.Equal(t, "carol", rows[0].Counterpart)
	assert.Equal(t, 1, rows[0].Unread)
	assert.True(t, rows[0].Online)

	assert.Equal(t, "bob", rows[1].Counterpart)
	assert.Equal(t, 2, rows[1].Unread)
	assert.False(t, rows[1].Online)
	assert.Equal(t, "bob.png", rows[1].Avatar)
	assert.Equal(t, "from bob", rows[1].LastBody)
	assert.Equal(t, "bob", rows[1].LastSender)
}

func TestListConversationsExcludesDeletedSide(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.send(t, "bob", "alice")
	require.NoError(t, f.store.SetVisibility(ctx, "alice", "bob", false))

	mine, err := f.projector.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := f.projector.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestListConversationsIncludesGroups(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	g, err := f.groups.Create(ctx, "team", "team.png", "alice", []string{"bob"})
	require.NoError(t, err)

	// A group with no messages has no conversation row yet.
	rows, err := f.projector.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.store.Append(ctx, store.AppendRequest{
		Sender: "bob", GroupID: &g.ID,
		Kind: models.KindText, Body: "standup", Status: models.StatusSent,
	})
	require.NoError(t, err)

	rows, err = f.projector.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].GroupID)
	assert.Equal(t, g.ID, *rows[0].GroupID)
	assert.Equal(t, "team", rows[0].Counterpart)
	assert.Equal(t, "standup", rows[0].LastBody)
	assert.Equal(t, "team.png", rows[0].Avatar)
}

// The projection must be a pure function of the store: recomputing every
// row from a raw range scan has to agree with the projector's output.
func TestProjectionMatchesFullRecomputation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.send(t, "bob", "alice")
	f.send(t, "alice", "bob")
	f.send(t, "carol", "alice")
	f.send(t, "alice", "dave")
	require.NoError(t, f.store.SetVisibility(ctx, "alice", "carol", false))

	rows, err := f.projector.ListConversations(ctx, "alice")
	require.NoError(t, err)

	for _, row := range rows {
		msgs, err := f.store.RangeByConversation(ctx, "alice", row.Counterpart, nil)
		require.NoError(t, err)
		require.NotEmpty(t, msgs)

		last := msgs[len(msgs)-1]
		assert.Equal(t, last.Body, row.LastBody)
		assert.Equal(t, last.Sender, row.LastSender)
		assert.Equal(t, last.Status, row.LastStatus)

		unread := 0
		for _, m := range msgs {
			if m.Sender == row.Counterpart && m.Recipient == "alice" && m.Status < models.StatusRead {
				unread++
			}
		}
		assert.Equal(t, unread, row.Unread)
	}

	// The deleted conversation must not have produced a row at all.
	for _, row := range rows {
		assert.NotEqual(t, "carol", row.Counterpart)
	}
}
