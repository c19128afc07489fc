package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"courier/server/internal/models"
)

// Postgres keeps profiles in the shared pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Get(ctx context.Context, username string) (models.Profile, error) {
	var p models.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT username, avatar, bio, online, last_seen FROM profiles WHERE username = $1`,
		username).Scan(&p.Username, &p.Avatar, &p.Bio, &p.Online, &p.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Postgres) Ensure(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (username) VALUES ($1)
		ON CONFLICT (username) DO NOTHING`, username)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, username, avatar, bio string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE profiles SET avatar = $1, bio = $2 WHERE username = $3`,
		avatar, bio, username)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *Postgres) Touch(ctx context.Context, username string, online bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE profiles SET online = $1, last_seen = $2 WHERE username = $3`,
		online, time.Now(), username)
	if err != nil {
		return fmt.Errorf("touch profile: %w", err)
	}
	return nil
}
