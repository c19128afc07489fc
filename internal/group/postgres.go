package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"courier/server/internal/models"
)

// Postgres stores groups and memberships in the shared pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, name, icon, createdBy string, members []string) (models.GroupWithMembers, error) {
	id := uuid.NewString()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.GroupWithMembers{}, fmt.Errorf("create group: %w", err)
	}
	defer tx.Rollback(ctx)

	var g models.Group
	err = tx.QueryRow(ctx, `
		INSERT INTO groups (id, name, icon, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, icon, created_by, created_at`,
		id, name, icon, createdBy).
		Scan(&g.ID, &g.Name, &g.Icon, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		return models.GroupWithMembers{}, fmt.Errorf("create group: %w", err)
	}

	// The creator is always a member.
	seen := map[string]bool{createdBy: true}
	all := []string{createdBy}
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			all = append(all, m)
		}
	}
	for _, m := range all {
		if _, err := tx.Exec(ctx, `
			INSERT INTO group_members (group_id, username) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, id, m); err != nil {
			return models.GroupWithMembers{}, fmt.Errorf("add member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.GroupWithMembers{}, fmt.Errorf("create group: %w", err)
	}
	return models.GroupWithMembers{Group: g, Members: all}, nil
}

func (s *Postgres) Get(ctx context.Context, id string) (models.GroupWithMembers, error) {
	var g models.Group
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, icon, created_by, created_at FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.Icon, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GroupWithMembers{}, ErrNotFound
	}
	if err != nil {
		return models.GroupWithMembers{}, fmt.Errorf("get group: %w", err)
	}

	members, err := s.Members(ctx, id)
	if err != nil {
		return models.GroupWithMembers{}, err
	}
	return models.GroupWithMembers{Group: g, Members: members}, nil
}

func (s *Postgres) ListForUser(ctx context.Context, username string) ([]models.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.name, g.icon, g.created_by, g.created_at
		FROM groups g
		INNER JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.username = $1
		ORDER BY g.created_at DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Icon, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Postgres) Members(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT username FROM group_members WHERE group_id = $1 ORDER BY joined_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("group members: %w", err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("group members: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Postgres) IsMember(ctx context.Context, groupID, username string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND username = $2)`,
		groupID, username).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("is member: %w", err)
	}
	return ok, nil
}

func (s *Postgres) AddMembers(ctx context.Context, groupID string, usernames []string) error {
	for _, u := range usernames {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO group_members (group_id, username) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, groupID, u); err != nil {
			return fmt.Errorf("add members: %w", err)
		}
	}
	return nil
}

func (s *Postgres) RemoveMember(ctx context.Context, groupID, username string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM group_members WHERE group_id = $1 AND username = $2`, groupID, username)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}
