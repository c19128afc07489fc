package group

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"courier/server/internal/models"
)

// Memory is an in-memory Service for tests and single-node development.
type Memory struct {
	mu      sync.RWMutex
	groups  map[string]models.Group
	members map[string][]string
}

func NewMemory() *Memory {
	return &Memory{
		groups:  make(map[string]models.Group),
		members: make(map[string][]string),
	}
}

func (s *Memory) Create(ctx context.Context, name, icon, createdBy string, members []string) (models.GroupWithMembers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      icon,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	seen := map[string]bool{createdBy: true}
	all := []string{createdBy}
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			all = append(all, m)
		}
	}
	s.groups[g.ID] = g
	s.members[g.ID] = all
	return models.GroupWithMembers{Group: g, Members: all}, nil
}

func (s *Memory) Get(ctx context.Context, id string) (models.GroupWithMembers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return models.GroupWithMembers{}, ErrNotFound
	}
	return models.GroupWithMembers{Group: g, Members: append([]string(nil), s.members[id]...)}, nil
}

func (s *Memory) ListForUser(ctx context.Context, username string) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Group{}
	for id, members := range s.members {
		for _, m := range members {
			if m == username {
				out = append(out, s.groups[id])
				break
			}
		}
	}
	return out, nil
}

func (s *Memory) Members(ctx context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.members[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), members...), nil
}

func (s *Memory) IsMember(ctx context.Context, groupID, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members[groupID] {
		if m == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *Memory) AddMembers(ctx context.Context, groupID string, usernames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.members[groupID]
	for _, u := range usernames {
		dup := false
		for _, m := range existing {
			if m == u {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, u)
		}
	}
	s.members[groupID] = existing
	return nil
}

func (s *Memory) RemoveMember(ctx context.Context, groupID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.members[groupID]
	for i, m := range members {
		if m == username {
			s.members[groupID] = append(members[:i], members[i+1:]...)
			break
		}
	}
	return nil
}
