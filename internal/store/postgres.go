package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"courier/server/internal/models"
)

// Postgres is the durable MessageStore. Id assignment rides on a BIGSERIAL
// column, so concurrent appends get distinct, strictly increasing ids from
// the database's own sequence.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pgx pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const messageColumns = `id, sender, recipient, group_id, body, kind, status, created_at, visible_to_sender, visible_to_recipient`

func scanMessage(row pgx.Row) (models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.Sender, &m.Recipient, &m.GroupID, &m.Body, &m.Kind,
		&m.Status, &m.CreatedAt, &m.VisibleToSender, &m.VisibleToRecipient)
	return m, err
}

func (s *Postgres) Append(ctx context.Context, req AppendRequest) (models.Message, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (sender, recipient, group_id, body, kind, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		req.Sender, req.Recipient, req.GroupID, req.Body, req.Kind, req.Status)

	m, err := scanMessage(row)
	if err != nil {
		return models.Message{}, unavailable("append", err)
	}
	return m, nil
}

func (s *Postgres) GetByID(ctx context.Context, id int64) (models.Message, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Message{}, ErrNotFound
	}
	if err != nil {
		return models.Message{}, unavailable("get", err)
	}
	return m, nil
}

func (s *Postgres) RangeByConversation(ctx context.Context, requester, counterpart string, groupID *string) ([]models.Message, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if groupID != nil {
		rows, err = s.pool.Query(ctx, `
			SELECT `+messageColumns+` FROM messages
			WHERE group_id = $1
			ORDER BY id ASC`, *groupID)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+messageColumns+` FROM messages
			WHERE group_id IS NULL
			  AND ((sender = $1 AND recipient = $2 AND visible_to_sender)
			    OR (sender = $2 AND recipient = $1 AND visible_to_recipient))
			ORDER BY id ASC`, requester, counterpart)
	}
	if err != nil {
		return nil, unavailable("range", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, unavailable("range scan", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("range rows", err)
	}
	return msgs, nil
}

func (s *Postgres) UpdateStatusBulk(ctx context.Context, sender, recipient string, newStatus models.Status) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET status = $1
		WHERE group_id IS NULL AND sender = $2 AND recipient = $3 AND status < $1`,
		newStatus, sender, recipient)
	if err != nil {
		return 0, unavailable("update status", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) SetVisibility(ctx context.Context, identity, counterpart string, visible bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE messages SET
			visible_to_sender    = CASE WHEN sender    = $1 THEN $3 ELSE visible_to_sender    END,
			visible_to_recipient = CASE WHEN recipient = $1 THEN $3 ELSE visible_to_recipient END
		WHERE group_id IS NULL
		  AND ((sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1))`,
		identity, counterpart, visible)
	if err != nil {
		return unavailable("set visibility", err)
	}
	return nil
}

func (s *Postgres) UnreadCount(ctx context.Context, reader, sender string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE group_id IS NULL AND sender = $1 AND recipient = $2
		  AND status < $3 AND visible_to_recipient`,
		sender, reader, models.StatusRead).Scan(&n)
	if err != nil {
		return 0, unavailable("unread count", err)
	}
	return n, nil
}

func (s *Postgres) ConversationHeads(ctx context.Context, identity string) ([]ConversationHead, error) {
	rows, err := s.pool.Query(ctx, `
		WITH counterparts AS (
			SELECT DISTINCT CASE WHEN sender = $1 THEN recipient ELSE sender END AS counterpart
			FROM messages
			WHERE group_id IS NULL
			  AND ((sender = $1 AND visible_to_sender) OR (recipient = $1 AND visible_to_recipient))
		)
		SELECT c.counterpart,
			m.id, m.sender, m.recipient, m.group_id, m.body, m.kind, m.status,
			m.created_at, m.visible_to_sender, m.visible_to_recipient,
			(SELECT COUNT(*) FROM messages u
			 WHERE u.group_id IS NULL AND u.sender = c.counterpart AND u.recipient = $1
			   AND u.status < $2 AND u.visible_to_recipient) AS unread
		FROM counterparts c
		JOIN LATERAL (
			SELECT * FROM messages m
			WHERE m.group_id IS NULL
			  AND ((m.sender = $1 AND m.recipient = c.counterpart AND m.visible_to_sender)
			    OR (m.sender = c.counterpart AND m.recipient = $1 AND m.visible_to_recipient))
			ORDER BY m.id DESC
			LIMIT 1
		) m ON TRUE
		ORDER BY m.created_at DESC, m.id DESC`,
		identity, models.StatusRead)
	if err != nil {
		return nil, unavailable("conversation heads", err)
	}
	defer rows.Close()

	heads := []ConversationHead{}
	for rows.Next() {
		var h ConversationHead
		m := &h.Last
		err := rows.Scan(&h.Counterpart,
			&m.ID, &m.Sender, &m.Recipient, &m.GroupID, &m.Body, &m.Kind,
			&m.Status, &m.CreatedAt, &m.VisibleToSender, &m.VisibleToRecipient,
			&h.Unread)
		if err != nil {
			return nil, unavailable("heads scan", err)
		}
		heads = append(heads, h)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("heads rows", err)
	}
	return heads, nil
}

func (s *Postgres) LastGroupMessage(ctx context.Context, groupID string) (models.Message, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE group_id = $1
		ORDER BY id DESC
		LIMIT 1`, groupID)
	m, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Message{}, ErrNotFound
	}
	if err != nil {
		return models.Message{}, unavailable("last group message", err)
	}
	return m, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
