package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) CreateMessage(ctx context.Context, m domain.Message) (*domain.Message, error) {
	if m.Channel.ID == uuid.Nil {
		return nil, domain.ErrInvalidChannelID
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (
			id, channel_kind, channel_id, sender_id, content,
			message_type, status, is_encrypted, reply_to_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`,
		m.ID,
		m.Channel.Kind,
		m.Channel.ID,
		m.SenderID,
		m.Content,
		m.MessageType,
		m.Status,
		m.IsEncrypted,
		m.ReplyToID,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	// Keep the channel's activity marker current for list ordering.
	table := "conversations"
	if m.Channel.Kind == domain.KindRoom {
		table = "rooms"
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET last_message_at = now() WHERE id = $1`, m.Channel.ID,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, channel_kind, channel_id, sender_id, content,
		       message_type, status, is_encrypted, reply_to_id, created_at
		FROM messages
		WHERE id = $1
	`, id)
	m, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

// AdvanceMessageStatus applies target only when the stored status is
// strictly earlier in the lifecycle. The guard lives in the WHERE clause,
// so racing sweeps and explicit updates converge on the highest status
// without ever moving backward.
func (r *MessageRepo) AdvanceMessageStatus(ctx context.Context, id uuid.UUID, target domain.MessageStatus) (bool, error) {
	earlier := domain.StatusesBefore(target)
	if len(earlier) == 0 {
		return false, nil
	}
	states := make([]string, len(earlier))
	for i, s := range earlier {
		states[i] = string(s)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET status = $2
		WHERE id = $1 AND status = ANY($3)
	`, id, target, states)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MessageRepo) ListByChannelAndStatus(
	ctx context.Context,
	ch domain.Channel,
	excludingSender uuid.UUID,
	status domain.MessageStatus,
) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id
		FROM messages
		WHERE channel_kind = $1 AND channel_id = $2
		  AND sender_id <> $3
		  AND status = $4
		ORDER BY created_at ASC
	`, ch.Kind, ch.ID, excludingSender, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MessageRepo) ListRecent(ctx context.Context, ch domain.Channel, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, channel_kind, channel_id, sender_id, content,
		       message_type, status, is_encrypted, reply_to_id, created_at
		FROM (
			SELECT * FROM messages
			WHERE channel_kind = $1 AND channel_id = $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`, ch.Kind, ch.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.ID,
		&m.Channel.Kind,
		&m.Channel.ID,
		&m.SenderID,
		&m.Content,
		&m.MessageType,
		&m.Status,
		&m.IsEncrypted,
		&m.ReplyToID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
