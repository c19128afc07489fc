// Package summary derives each user's chat list. The projection is a pure
// function of the message store, the presence registry and the profile
// collaborator; it keeps no state of its own and can be recomputed at any
// time without loss.
package summary

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"courier/server/internal/group"
	"courier/server/internal/models"
	"courier/server/internal/presence"
	"courier/server/internal/profile"
	"courier/server/internal/store"
)

// Projector builds ConversationSummary rows on request.
type Projector struct {
	store    store.MessageStore
	reg      *presence.Registry
	profiles profile.Service
	groups   group.Service
}

func NewProjector(st store.MessageStore, reg *presence.Registry, profiles profile.Service, groups group.Service) *Projector {
	return &Projector{store: st, reg: reg, profiles: profiles, groups: groups}
}

// ListConversations returns identity's conversations ordered by last message
// time, newest first. Direct conversations appear only while at least one
// message is still visible to identity; a conversation soft-deleted on
// identity's side drops out without affecting the counterpart's list. Group
// conversations with at least one message are appended the same way.
func (p *Projector) ListConversations(ctx context.Context, identity string) ([]models.ConversationSummary, error) {
	heads, err := p.store.ConversationHeads(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]models.ConversationSummary, 0, len(heads))
	for _, h := range heads {
		s := models.ConversationSummary{
			Counterpart: h.Counterpart,
			LastBody:    h.Last.Body,
			LastKind:    h.Last.Kind,
			LastStatus:  h.Last.Status,
			LastSender:  h.Last.Sender,
			LastAt:      h.Last.CreatedAt,
			Unread:      h.Unread,
			Online:      p.reg.Online(h.Counterpart),
		}
		if prof, err := p.profiles.Get(ctx, h.Counterpart); err == nil {
			s.Avatar = prof.Avatar
		} else if !errors.Is(err, profile.ErrNotFound) {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		out = append(out, s)
	}

	groupRows, err := p.groupSummaries(ctx, identity)
	if err != nil {
		return nil, err
	}
	out = append(out, groupRows...)

	// Re-sort so direct and group rows interleave newest-first.
	sort.Slice(out, func(i, j int) bool { return out[i].LastAt.After(out[j].LastAt) })
	return out, nil
}

func (p *Projector) groupSummaries(ctx context.Context, identity string) ([]models.ConversationSummary, error) {
	groups, err := p.groups.ListForUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list group conversations: %w", err)
	}

	out := []models.ConversationSummary{}
	for _, g := range groups {
		last, err := p.store.LastGroupMessage(ctx, g.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue // a group with no messages yet has no conversation row
		}
		if err != nil {
			return nil, fmt.Errorf("list group conversations: %w", err)
		}
		gid := g.ID
		out = append(out, models.ConversationSummary{
			Counterpart: g.Name,
			GroupID:     &gid,
			LastBody:    last.Body,
			LastKind:    last.Kind,
			LastStatus:  last.Status,
			LastSender:  last.Sender,
			LastAt:      last.CreatedAt,
			Avatar:      g.Icon,
		})
	}
	return out, nil
}
