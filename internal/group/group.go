// Package group is the membership collaborator. The delivery router only
// reads member lists from it; membership changes come in over HTTP.
package group

import (
	"context"
	"errors"

	"courier/server/internal/models"
)

var ErrNotFound = errors.New("group: not found")

// Service resolves group membership for fan-out and manages groups.
type Service interface {
	Create(ctx context.Context, name, icon, createdBy string, members []string) (models.GroupWithMembers, error)
	Get(ctx context.Context, id string) (models.GroupWithMembers, error)
	ListForUser(ctx context.Context, username string) ([]models.Group, error)
	Members(ctx context.Context, groupID string) ([]string, error)
	IsMember(ctx context.Context, groupID, username string) (bool, error)
	AddMembers(ctx context.Context, groupID string, usernames []string) error
	RemoveMember(ctx context.Context, groupID, username string) error
}
