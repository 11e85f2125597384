package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the persistent identity behind every connection.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	LastSeen     time.Time
	CreatedAt    time.Time
}

// ChannelKind distinguishes the two scopes live connections attach to.
type ChannelKind string

const (
	KindConversation ChannelKind = "conversation"
	KindRoom         ChannelKind = "room"
)

// Channel is the addressable scope for a set of live connections and a
// message history: either a 1:1 conversation or a group room. Membership
// is defined by the store and re-validated at join time, never cached.
type Channel struct {
	Kind ChannelKind
	ID   uuid.UUID
}

func (c Channel) String() string {
	return string(c.Kind) + ":" + c.ID.String()
}

// ParseChannel reverses Channel.String. Used by the cross-node event bridge.
func ParseChannel(s string) (Channel, error) {
	kind, rawID, ok := strings.Cut(s, ":")
	if !ok {
		return Channel{}, fmt.Errorf("malformed channel key %q", s)
	}
	if ChannelKind(kind) != KindConversation && ChannelKind(kind) != KindRoom {
		return Channel{}, fmt.Errorf("unknown channel kind %q", kind)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Channel{}, fmt.Errorf("malformed channel id %q: %w", rawID, err)
	}
	return Channel{Kind: ChannelKind(kind), ID: id}, nil
}

// Conversation is a 1:1 chat between two users.
type Conversation struct {
	ID            uuid.UUID
	User1ID       uuid.UUID
	User2ID       uuid.UUID
	LastMessageAt time.Time
	CreatedAt     time.Time
}

// Channel returns the realtime scope backing this conversation.
func (c Conversation) Channel() Channel {
	return Channel{Kind: KindConversation, ID: c.ID}
}

// OtherParticipant returns the peer of userID in the pair.
func (c Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// Room is a named group chat with open-ended membership.
type Room struct {
	ID            uuid.UUID
	Name          string
	Description   string
	CreatorID     uuid.UUID
	LastMessageAt time.Time
	CreatedAt     time.Time
}

func (r Room) Channel() Channel {
	return Channel{Kind: KindRoom, ID: r.ID}
}

// MessageType mirrors the kinds of content a message can carry.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeFile  MessageType = "file"
	TypeImage MessageType = "image"
)

// Message is one chat entry. Content is opaque to the realtime core: when
// IsEncrypted is set it holds the codec's ciphertext, never plaintext.
type Message struct {
	ID          uuid.UUID
	Channel     Channel
	SenderID    uuid.UUID
	Content     string
	MessageType MessageType
	Status      MessageStatus
	IsEncrypted bool
	ReplyToID   *uuid.UUID
	CreatedAt   time.Time
}

// NewMessage materializes a freshly created message in its initial state.
// The store assigns the same shape on insert.
func NewMessage(ch Channel, senderID uuid.UUID, content string, msgType MessageType, encrypted bool, replyTo *uuid.UUID) Message {
	return Message{
		ID:          uuid.New(),
		Channel:     ch,
		SenderID:    senderID,
		Content:     content,
		MessageType: msgType,
		Status:      StatusSent,
		IsEncrypted: encrypted,
		ReplyToID:   replyTo,
		CreatedAt:   time.Now().UTC(),
	}
}
