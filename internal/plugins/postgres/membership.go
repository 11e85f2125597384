package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

// MembershipRepo answers join-time authorization for both channel kinds:
// conversation participants and room members. Queried fresh on every join,
// never cached.
type MembershipRepo struct {
	db *sql.DB
}

func NewMembershipRepo(db *sql.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

func (r *MembershipRepo) IsAuthorized(ctx context.Context, userID uuid.UUID, ch domain.Channel) (bool, error) {
	var query string
	switch ch.Kind {
	case domain.KindConversation:
		query = `
			SELECT EXISTS (
				SELECT 1 FROM conversations
				WHERE id = $1 AND (user1_id = $2 OR user2_id = $2)
			)`
	case domain.KindRoom:
		query = `
			SELECT EXISTS (
				SELECT 1 FROM room_members
				WHERE room_id = $1 AND user_id = $2
			)`
	default:
		return false, fmt.Errorf("unknown channel kind %q", ch.Kind)
	}
	var authorized bool
	if err := r.db.QueryRowContext(ctx, query, ch.ID, userID).Scan(&authorized); err != nil {
		return false, err
	}
	return authorized, nil
}
