package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository handles the persistent identity.
type UserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// TouchLastSeen refreshes the durable last_seen marker on connect.
	TouchLastSeen(ctx context.Context, id uuid.UUID) error
}

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	Conversation Conversation
	OtherUser    User
	UnreadCount  int
}

// ConversationRepository handles 1:1 conversation lifecycle.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, user1, user2 uuid.UUID) (*Conversation, error)
	GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	// FindBetween returns the existing conversation for the pair in either
	// order, or ErrConversationNotFound.
	FindBetween(ctx context.Context, user1, user2 uuid.UUID) (*Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error)
}

// RoomRepository handles group rooms and their membership rows.
type RoomRepository interface {
	CreateRoom(ctx context.Context, name, description string, creatorID uuid.UUID) (*Room, error)
	GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Room, error)
	AddMember(ctx context.Context, roomID, userID uuid.UUID) error
}

// MembershipRepository answers the join-time authorization question for both
// channel kinds. The session controller calls it once per connection and
// assumes the answer stable for the connection's lifetime.
type MembershipRepository interface {
	IsAuthorized(ctx context.Context, userID uuid.UUID, ch Channel) (bool, error)
}

// MessageRepository is the narrow interface over the durable message store.
// The realtime core only ever creates messages and moves their status; it
// never interprets content.
type MessageRepository interface {
	CreateMessage(ctx context.Context, m Message) (*Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*Message, error)
	// AdvanceMessageStatus applies target only when the stored status is
	// strictly earlier; reports whether a row actually changed. Concurrent
	// callers converge on the highest status.
	AdvanceMessageStatus(ctx context.Context, id uuid.UUID, target MessageStatus) (bool, error)
	// ListByChannelAndStatus returns ids of messages in ch at status that
	// were authored by someone other than excludingSender, oldest first.
	ListByChannelAndStatus(ctx context.Context, ch Channel, excludingSender uuid.UUID, status MessageStatus) ([]uuid.UUID, error)
	ListRecent(ctx context.Context, ch Channel, limit int) ([]Message, error)
}
