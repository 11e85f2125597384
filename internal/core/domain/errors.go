package domain

import "errors"

// Fatal to the connection: the session closes with a policy-violation code
// and never enters (or leaves) the active state.
var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrUserInactive   = errors.New("user not found or inactive")
	ErrNotParticipant = errors.New("user is not a participant of this channel")
)

// Fatal to a single event: the event is dropped and the receive loop
// continues.
var (
	ErrMalformedEvent   = errors.New("malformed event payload")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrEmptyContent     = errors.New("message content is empty")
	ErrChannelMismatch  = errors.New("message does not belong to this channel")
	ErrMessageNotFound  = errors.New("message not found")
)

var (
	ErrInvalidChannelID       = errors.New("invalid channel id")
	ErrUserNotFound           = errors.New("user not found")
	ErrUsernameTaken          = errors.New("username or email already registered")
	ErrConversationNotFound   = errors.New("conversation not found")
	ErrRoomNotFound           = errors.New("room not found")
	ErrSelfConversation       = errors.New("cannot start a conversation with yourself")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrAlreadyRoomMember      = errors.New("user is already a member of this room")
	ErrConversationDuplicated = errors.New("conversation between these users already exists")
)

// EventFatal reports whether err should drop only the offending event,
// keeping the connection alive.
func EventFatal(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrUnknownEventType) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrChannelMismatch) ||
		errors.Is(err, ErrMessageNotFound)
}
