package profile

import (
	"context"
	"sync"
	"time"

	"courier/server/internal/models"
)

// Memory is an in-memory Service for tests and single-node development.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewMemory() *Memory {
	return &Memory{profiles: make(map[string]models.Profile)}
}

func (s *Memory) Get(ctx context.Context, username string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[username]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *Memory) Ensure(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[username]; !ok {
		s.profiles[username] = models.Profile{Username: username, LastSeen: time.Now()}
	}
	return nil
}

func (s *Memory) Update(ctx context.Context, username, avatar, bio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles[username]
	p.Username = username
	p.Avatar = avatar
	p.Bio = bio
	s.profiles[username] = p
	return nil
}

func (s *Memory) Touch(ctx context.Context, username string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles[username]
	p.Username = username
	p.Online = online
	p.LastSeen = time.Now()
	s.profiles[username] = p
	return nil
}
