// Package profile is the read-mostly collaborator holding avatars, bios and
// last-seen timestamps. The core never writes anything here except the
// online/last-seen touch on join and leave.
package profile

import (
	"context"
	"errors"

	"courier/server/internal/models"
)

var ErrNotFound = errors.New("profile: not found")

// Service exposes profile lookups to the summary projector and the HTTP
// surface.
type Service interface {
	// Get returns the profile for username, or ErrNotFound.
	Get(ctx context.Context, username string) (models.Profile, error)
	// Ensure creates an empty profile row for username if none exists.
	Ensure(ctx context.Context, username string) error
	// Update replaces avatar and bio.
	Update(ctx context.Context, username, avatar, bio string) error
	// Touch records the online flag and bumps last-seen.
	Touch(ctx context.Context, username string, online bool) error
}
