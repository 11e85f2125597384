package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeMessage      = "message"
	TypeTyping       = "typing"
	TypeStatusUpdate = "status_update"
	TypeUserStatus   = "user_status"
)

// ClientEvent is the tagged union of everything a client may send over the
// wire. Payloads are decoded exactly once at the transport boundary; each
// variant carries only its own fields.
type ClientEvent interface {
	clientEvent()
}

// MessageEvent asks the server to create and fan out a new message.
type MessageEvent struct {
	Content     string
	Encrypt     bool
	MessageType MessageType
	ReplyToID   *uuid.UUID
}

// TypingEvent is an ephemeral typing indicator. Never persisted.
type TypingEvent struct {
	IsTyping bool
}

// StatusUpdateEvent asks the server to advance one message's status.
type StatusUpdateEvent struct {
	MessageID uuid.UUID
	Status    MessageStatus
}

func (MessageEvent) clientEvent()      {}
func (TypingEvent) clientEvent()       {}
func (StatusUpdateEvent) clientEvent() {}

type clientEnvelope struct {
	Type        string     `json:"type"`
	Content     string     `json:"content"`
	Encrypt     bool       `json:"encrypt"`
	MessageType string     `json:"message_type"`
	ReplyToID   *uuid.UUID `json:"reply_to_id"`
	MessageID   string     `json:"message_id"`
	Status      string     `json:"status"`
	IsTyping    bool       `json:"is_typing"`
}

// DecodeClientEvent parses one inbound frame. Unparseable structure yields
// ErrMalformedEvent and an unrecognized type ErrUnknownEventType; both are
// fatal to the event only, never to the connection.
func DecodeClientEvent(raw []byte) (ClientEvent, error) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch env.Type {
	case TypeMessage:
		msgType := MessageType(env.MessageType)
		if msgType == "" {
			msgType = TypeText
		}
		return MessageEvent{
			Content:     env.Content,
			Encrypt:     env.Encrypt,
			MessageType: msgType,
			ReplyToID:   env.ReplyToID,
		}, nil
	case TypeTyping:
		return TypingEvent{IsTyping: env.IsTyping}, nil
	case TypeStatusUpdate:
		id, err := uuid.Parse(env.MessageID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad message_id", ErrMalformedEvent)
		}
		status := MessageStatus(env.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: bad status %q", ErrMalformedEvent, env.Status)
		}
		return StatusUpdateEvent{MessageID: id, Status: status}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
}

// MessageBroadcast is fanned out to the channel and echoed to the sender so
// their view reflects the server-assigned id and timestamp.
type MessageBroadcast struct {
	Type           string      `json:"type"` // "message"
	ID             uuid.UUID   `json:"id"`
	ChannelKind    ChannelKind `json:"channel_kind"`
	ChannelID      uuid.UUID   `json:"channel_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	SenderUsername string      `json:"sender_username"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"message_type"`
	Status         MessageStatus `json:"status"`
	IsEncrypted    bool        `json:"is_encrypted"`
	ReplyToID      *uuid.UUID  `json:"reply_to_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// TypingBroadcast goes to the rest of the channel only; dropped when no peer
// is connected.
type TypingBroadcast struct {
	Type      string    `json:"type"` // "typing"
	Username  string    `json:"username"`
	IsTyping  bool      `json:"is_typing"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusBroadcast announces one message's status change, including the
// per-message events emitted by the connect/read bulk sweep.
type StatusBroadcast struct {
	Type      string        `json:"type"` // "status_update"
	MessageID uuid.UUID     `json:"message_id"`
	Status    MessageStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// UserStatusBroadcast announces presence changes to the channel.
type UserStatusBroadcast struct {
	Type     string     `json:"type"` // "user_status"
	UserID   uuid.UUID  `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
