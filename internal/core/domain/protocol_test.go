package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientEvent_Message(t *testing.T) {
	req := require.New(t)

	ev, err := DecodeClientEvent([]byte(`{"type":"message","content":"hello","encrypt":true}`))
	req.NoError(err)

	msg, ok := ev.(MessageEvent)
	req.True(ok)
	req.Equal("hello", msg.Content)
	req.True(msg.Encrypt)
	req.Equal(TypeText, msg.MessageType)
	req.Nil(msg.ReplyToID)
}

func TestDecodeClientEvent_MessageWithReply(t *testing.T) {
	req := require.New(t)
	replyTo := uuid.New()

	ev, err := DecodeClientEvent([]byte(
		`{"type":"message","content":"pic","message_type":"image","reply_to_id":"` + replyTo.String() + `"}`))
	req.NoError(err)

	msg := ev.(MessageEvent)
	req.Equal(TypeImage, msg.MessageType)
	req.NotNil(msg.ReplyToID)
	req.Equal(replyTo, *msg.ReplyToID)
}

func TestDecodeClientEvent_Typing(t *testing.T) {
	req := require.New(t)

	ev, err := DecodeClientEvent([]byte(`{"type":"typing","is_typing":true}`))
	req.NoError(err)
	req.Equal(TypingEvent{IsTyping: true}, ev)

	ev, err = DecodeClientEvent([]byte(`{"type":"typing"}`))
	req.NoError(err)
	req.Equal(TypingEvent{IsTyping: false}, ev)
}

func TestDecodeClientEvent_StatusUpdate(t *testing.T) {
	req := require.New(t)
	msgID := uuid.New()

	ev, err := DecodeClientEvent([]byte(
		`{"type":"status_update","message_id":"` + msgID.String() + `","status":"read"}`))
	req.NoError(err)
	req.Equal(StatusUpdateEvent{MessageID: msgID, Status: StatusRead}, ev)
}

func TestDecodeClientEvent_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"bad message id", `{"type":"status_update","message_id":"not-a-uuid","status":"read"}`},
		{"bad status", `{"type":"status_update","message_id":"` + uuid.NewString() + `","status":"seen"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			ev, err := DecodeClientEvent([]byte(tc.raw))
			req.Nil(ev)
			req.ErrorIs(err, ErrMalformedEvent)
		})
	}
}

func TestDecodeClientEvent_UnknownType(t *testing.T) {
	req := require.New(t)

	ev, err := DecodeClientEvent([]byte(`{"type":"presence_ping"}`))
	req.Nil(ev)
	req.ErrorIs(err, ErrUnknownEventType)

	ev, err = DecodeClientEvent([]byte(`{}`))
	req.Nil(ev)
	req.ErrorIs(err, ErrUnknownEventType)
}

func TestParseChannel_RoundTrip(t *testing.T) {
	req := require.New(t)

	ch := Channel{Kind: KindRoom, ID: uuid.New()}
	parsed, err := ParseChannel(ch.String())
	req.NoError(err)
	req.Equal(ch, parsed)

	_, err = ParseChannel("room")
	req.Error(err)

	_, err = ParseChannel("guild:" + uuid.NewString())
	req.Error(err)

	_, err = ParseChannel("room:not-a-uuid")
	req.Error(err)
}
