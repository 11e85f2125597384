package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) CreateConversation(ctx context.Context, user1, user2 uuid.UUID) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		ID:      uuid.New(),
		User1ID: user1,
		User2ID: user2,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, user1_id, user2_id)
		VALUES ($1, $2, $3)
		RETURNING last_message_at, created_at
	`, conv.ID, user1, user2).Scan(&conv.LastMessageAt, &conv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on the pair
			return nil, domain.ErrConversationDuplicated
		}
		return nil, err
	}
	return conv, nil
}

func (r *ConversationRepo) GetConversationByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user1_id, user2_id, last_message_at, created_at
		FROM conversations WHERE id = $1
	`, id)
	return scanConversation(row)
}

func (r *ConversationRepo) FindBetween(ctx context.Context, user1, user2 uuid.UUID) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user1_id, user2_id, last_message_at, created_at
		FROM conversations
		WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
		LIMIT 1
	`, user1, user2)
	return scanConversation(row)
}

// ListForUser returns the caller's conversations newest-activity first,
// with the peer's identity and the caller's unread (not yet read) count
// resolved in one query.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user1_id, c.user2_id, c.last_message_at, c.created_at,
		       u.id, u.username, u.email, u.password_hash, u.is_active, u.last_seen, u.created_at,
		       (
		         SELECT count(*) FROM messages m
		         WHERE m.channel_kind = 'conversation' AND m.channel_id = c.id
		           AND m.sender_id <> $1 AND m.status <> 'read'
		       ) AS unread
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END
		WHERE c.user1_id = $1 OR c.user2_id = $1
		ORDER BY c.last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ConversationSummary
	for rows.Next() {
		var s domain.ConversationSummary
		err := rows.Scan(
			&s.Conversation.ID, &s.Conversation.User1ID, &s.Conversation.User2ID,
			&s.Conversation.LastMessageAt, &s.Conversation.CreatedAt,
			&s.OtherUser.ID, &s.OtherUser.Username, &s.OtherUser.Email,
			&s.OtherUser.PasswordHash, &s.OtherUser.IsActive,
			&s.OtherUser.LastSeen, &s.OtherUser.CreatedAt,
			&s.UnreadCount,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanConversation(row *sql.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}
