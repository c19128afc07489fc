package store

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/server/internal/models"
)

func appendText(t *testing.T, s *Memory, sender, recipient string, status models.Status) models.Message {
	t.Helper()
	m, err := s.Append(context.Background(), AppendRequest{
		Sender:    sender,
		Recipient: recipient,
		Kind:      models.KindText,
		Body:      "hello",
		Status:    status,
	})
	require.NoError(t, err)
	return m
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	s := NewMemory()

	a := appendText(t, s, "alice", "bob", models.StatusSent)
	b := appendText(t, s, "bob", "alice", models.StatusSent)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.True(t, a.VisibleToSender)
	assert.True(t, a.VisibleToRecipient)
}

func TestConcurrentAppendsGetDistinctOrderedIDs(t *testing.T) {
	s := NewMemory()
	const n = 200

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, recipient := "x", "y"
			if i%2 == 0 {
				sender, recipient = "y", "x"
			}
			m, err := s.Append(context.Background(), AppendRequest{
				Sender: sender, Recipient: recipient,
				Kind: models.KindText, Body: "msg", Status: models.StatusSent,
			})
			assert.NoError(t, err)
			ids <- m.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	var all []int64
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
		all = append(all, id)
	}
	require.Len(t, all, n)

	// Sorted ids must be exactly 1..n: no gaps, no reuse.
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i, id := range all {
		assert.Equal(t, int64(i+1), id)
	}

	// A reader sees the whole conversation in id order.
	msgs, err := s.RangeByConversation(context.Background(), "x", "y", nil)
	require.NoError(t, err)
	require.Len(t, msgs, n)
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].ID, msgs[i-1].ID)
	}
}

func TestGetByID(t *testing.T) {
	s := NewMemory()
	m := appendText(t, s, "alice", "bob", models.StatusSent)

	got, err := s.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Body, got.Body)

	_, err = s.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusBulkNeverRegresses(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	appendText(t, s, "bob", "alice", models.StatusSent)
	appendText(t, s, "bob", "alice", models.StatusDelivered)

	changed, err := s.UpdateStatusBulk(ctx, "bob", "alice", models.StatusRead)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	// Nothing left below Read: the repeat is a no-op.
	changed, err = s.UpdateStatusBulk(ctx, "bob", "alice", models.StatusRead)
	require.NoError(t, err)
	assert.Zero(t, changed)

	// A later Delivered transition cannot pull a Read message back.
	changed, err = s.UpdateStatusBulk(ctx, "bob", "alice", models.StatusDelivered)
	require.NoError(t, err)
	assert.Zero(t, changed)

	msgs, err := s.RangeByConversation(ctx, "alice", "bob", nil)
	require.NoError(t, err)
	for _, m := range msgs {
		assert.Equal(t, models.StatusRead, m.Status)
	}
}

func TestUnreadCount(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	appendText(t, s, "bob", "alice", models.StatusSent)
	appendText(t, s, "bob", "alice", models.StatusDelivered)
	appendText(t, s, "alice", "bob", models.StatusSent) // alice's own message is not unread for her

	n, err := s.UnreadCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.UpdateStatusBulk(ctx, "bob", "alice", models.StatusRead)
	require.NoError(t, err)

	n, err = s.UnreadCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVisibilityIsolation(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	appendText(t, s, "alice", "bob", models.StatusSent)
	appendText(t, s, "bob", "alice", models.StatusSent)

	// Alice deletes the conversation on her side only.
	require.NoError(t, s.SetVisibility(ctx, "alice", "bob", false))

	mine, err := s.RangeByConversation(ctx, "alice", "bob", nil)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := s.RangeByConversation(ctx, "bob", "alice", nil)
	require.NoError(t, err)
	assert.Len(t, theirs, 2)

	// Hidden messages stop counting as unread for the deleting side.
	n, err := s.UnreadCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationHeads(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	appendText(t, s, "bob", "alice", models.StatusSent)
	appendText(t, s, "alice", "bob", models.StatusSent)
	appendText(t, s, "carol", "alice", models.StatusSent)
	appendText(t, s, "carol", "alice", models.StatusSent)

	heads, err := s.ConversationHeads(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, heads, 2)

	// carol's conversation has the newest message and sorts first
	assert.Equal(t, "carol", heads[0].Counterpart)
	assert.Equal(t, 2, heads[0].Unread)
	assert.Equal(t, "bob", heads[1].Counterpart)
	assert.Equal(t, 1, heads[1].Unread)
	assert.Equal(t, "alice", heads[1].Last.Sender, "last message is alice's own reply")

	// A deleted conversation disappears from the deleting side's heads.
	require.NoError(t, s.SetVisibility(ctx, "alice", "carol", false))
	heads, err = s.ConversationHeads(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, heads, 1)
	assert.Equal(t, "bob", heads[0].Counterpart)

	// carol still sees hers.
	heads, err = s.ConversationHeads(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, heads, 1)
}

func TestGroupRangeAndLastGroupMessage(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	gid := "g1"

	_, err := s.LastGroupMessage(ctx, gid)
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, AppendRequest{
			Sender: "alice", GroupID: &gid,
			Kind: models.KindText, Body: "hey", Status: models.StatusSent,
		})
		require.NoError(t, err)
	}
	appendText(t, s, "alice", "bob", models.StatusSent) // direct noise

	msgs, err := s.RangeByConversation(ctx, "alice", "", &gid)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	last, err := s.LastGroupMessage(ctx, gid)
	require.NoError(t, err)
	assert.Equal(t, msgs[2].ID, last.ID)
}
