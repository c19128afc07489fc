package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"courier/server/internal/models"
)

// Memory is a MessageStore backed by a mutex-guarded slice. It carries the
// same id-assignment critical section as the Postgres store and is used for
// tests and single-node development.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	msgs   []*models.Message
}

// NewMemory returns an empty in-memory store. Ids start at 1.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (s *Memory) Append(ctx context.Context, req AppendRequest) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &models.Message{
		ID:                 s.nextID,
		Sender:             req.Sender,
		Recipient:          req.Recipient,
		GroupID:            req.GroupID,
		Body:               req.Body,
		Kind:               req.Kind,
		Status:             req.Status,
		CreatedAt:          time.Now(),
		VisibleToSender:    true,
		VisibleToRecipient: true,
	}
	s.nextID++
	s.msgs = append(s.msgs, m)
	return *m, nil
}

func (s *Memory) GetByID(ctx context.Context, id int64) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.msgs {
		if m.ID == id {
			return *m, nil
		}
	}
	return models.Message{}, ErrNotFound
}

func (s *Memory) RangeByConversation(ctx context.Context, requester, counterpart string, groupID *string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Message
	for _, m := range s.msgs {
		if groupID != nil {
			if m.GroupID != nil && *m.GroupID == *groupID {
				out = append(out, *m)
			}
			continue
		}
		if m.GroupID != nil {
			continue
		}
		if !betweenPair(m, requester, counterpart) || !m.VisibleTo(requester) {
			continue
		}
		out = append(out, *m)
	}
	// msgs is append-ordered, so out is already ascending by id
	return out, nil
}

func (s *Memory) UpdateStatusBulk(ctx context.Context, sender, recipient string, newStatus models.Status) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, m := range s.msgs {
		if m.GroupID != nil || m.Sender != sender || m.Recipient != recipient {
			continue
		}
		if m.Status < newStatus {
			m.Status = newStatus
			changed++
		}
	}
	return changed, nil
}

func (s *Memory) SetVisibility(ctx context.Context, identity, counterpart string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.msgs {
		if m.GroupID != nil || !betweenPair(m, identity, counterpart) {
			continue
		}
		if m.Sender == identity {
			m.VisibleToSender = visible
		}
		if m.Recipient == identity {
			m.VisibleToRecipient = visible
		}
	}
	return nil
}

func (s *Memory) UnreadCount(ctx context.Context, reader, sender string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadLocked(reader, sender), nil
}

func (s *Memory) unreadLocked(reader, sender string) int {
	n := 0
	for _, m := range s.msgs {
		if m.GroupID == nil && m.Sender == sender && m.Recipient == reader &&
			m.Status < models.StatusRead && m.VisibleToRecipient {
			n++
		}
	}
	return n
}

func (s *Memory) ConversationHeads(ctx context.Context, identity string) ([]ConversationHead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := make(map[string]*models.Message)
	for _, m := range s.msgs {
		if m.GroupID != nil || !m.VisibleTo(identity) {
			continue
		}
		var counterpart string
		switch identity {
		case m.Sender:
			counterpart = m.Recipient
		case m.Recipient:
			counterpart = m.Sender
		default:
			continue
		}
		// ascending scan: the last assignment wins, which is the highest id
		last[counterpart] = m
	}

	heads := make([]ConversationHead, 0, len(last))
	for counterpart, m := range last {
		heads = append(heads, ConversationHead{
			Counterpart: counterpart,
			Last:        *m,
			Unread:      s.unreadLocked(identity, counterpart),
		})
	}
	sort.Slice(heads, func(i, j int) bool {
		if heads[i].Last.CreatedAt.Equal(heads[j].Last.CreatedAt) {
			return heads[i].Last.ID > heads[j].Last.ID
		}
		return heads[i].Last.CreatedAt.After(heads[j].Last.CreatedAt)
	})
	return heads, nil
}

func (s *Memory) LastGroupMessage(ctx context.Context, groupID string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.msgs) - 1; i >= 0; i-- {
		m := s.msgs[i]
		if m.GroupID != nil && *m.GroupID == groupID {
			return *m, nil
		}
	}
	return models.Message{}, ErrNotFound
}

func betweenPair(m *models.Message, a, b string) bool {
	return (m.Sender == a && m.Recipient == b) || (m.Sender == b && m.Recipient == a)
}
