package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/contracts"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/metrics"
)

// DecodePlaceholder replaces message content whose decode failed. The read
// degrades visibly instead of failing the session.
const DecodePlaceholder = "[encrypted message]"

// MessageService handles message creation and explicit status updates on
// behalf of active sessions. Persist-then-broadcast ordering is mandatory:
// a message that failed to persist is never fanned out.
type MessageService struct {
	repo     domain.MessageRepository
	registry contracts.Registry
	codec    contracts.ContentCodec
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewMessageService(
	log *slog.Logger,
	repo domain.MessageRepository,
	registry contracts.Registry,
	codec contracts.ContentCodec,
	m *metrics.Metrics,
) *MessageService {
	return &MessageService{
		log:      log,
		repo:     repo,
		registry: registry,
		codec:    codec,
		metrics:  m,
	}
}

// HandleNewMessage validates, optionally encrypts, persists and fans out
// one inbound message. The materialized payload goes to the rest of the
// channel and is separately echoed to the sender so their view carries the
// server-assigned id and timestamp.
func (s *MessageService) HandleNewMessage(
	ctx context.Context,
	sender contracts.Client,
	ev domain.MessageEvent,
) error {
	ctx, span := tracer.Start(ctx, "MessageService.HandleNewMessage", trace.WithAttributes(
		attribute.String("channel", sender.Channel().String()),
		attribute.String("sender_id", sender.UserID().String()),
	))
	defer span.End()

	content := strings.TrimSpace(ev.Content)
	if content == "" {
		return domain.ErrEmptyContent
	}
	stored := content
	if ev.Encrypt {
		encoded, err := s.codec.Encode(content)
		if err != nil {
			span.RecordError(err)
			s.log.ErrorContext(ctx, "messages - new message - encode failed", "err", err)
			return err
		}
		stored = encoded
	}
	msg := domain.NewMessage(sender.Channel(), sender.UserID(), stored, ev.MessageType, ev.Encrypt, ev.ReplyToID)
	saved, err := s.repo.CreateMessage(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "messages - new message - persist failed",
			"channel", sender.Channel().String(), "sender_id", sender.UserID(), "err", err)
		return err
	}
	s.metrics.MessagesTotal.Inc()

	payload := domain.MessageBroadcast{
		Type:           domain.TypeMessage,
		ID:             saved.ID,
		ChannelKind:    saved.Channel.Kind,
		ChannelID:      saved.Channel.ID,
		SenderID:       saved.SenderID,
		SenderUsername: sender.Username(),
		Content:        s.DisplayContent(*saved),
		MessageType:    saved.MessageType,
		Status:         saved.Status,
		IsEncrypted:    saved.IsEncrypted,
		ReplyToID:      saved.ReplyToID,
		Timestamp:      saved.CreatedAt,
	}
	s.registry.Broadcast(ctx, saved.Channel, payload, sender)
	if err := s.registry.SendTo(ctx, sender, payload); err != nil {
		// The sender's own transport is failing; the read loop will see it.
		s.log.DebugContext(ctx, "messages - new message - echo failed", "sender_id", saved.SenderID, "err", err)
	}
	return nil
}

// HandleStatusUpdate applies a client-requested status transition after
// verifying the message belongs to the client's channel, rejecting
// cross-channel forgery. A backward or repeated transition is a silent
// no-op; a genuine change is broadcast.
func (s *MessageService) HandleStatusUpdate(
	ctx context.Context,
	from contracts.Client,
	ev domain.StatusUpdateEvent,
) error {
	msg, err := s.repo.GetMessage(ctx, ev.MessageID)
	if err != nil {
		return err
	}
	if msg.Channel != from.Channel() {
		s.log.WarnContext(ctx, "messages - status update - channel mismatch",
			"message_id", ev.MessageID, "channel", from.Channel().String())
		return domain.ErrChannelMismatch
	}
	changed, err := s.repo.AdvanceMessageStatus(ctx, ev.MessageID, ev.Status)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.metrics.StatusTransitions.WithLabelValues(string(ev.Status)).Inc()
	s.registry.Broadcast(ctx, msg.Channel, domain.StatusBroadcast{
		Type:      domain.TypeStatusUpdate,
		MessageID: ev.MessageID,
		Status:    ev.Status,
		Timestamp: time.Now().UTC(),
	}, from)
	return nil
}

// DisplayContent resolves the content a client should see. Encrypted blobs
// are decoded; a decode failure substitutes a placeholder.
func (s *MessageService) DisplayContent(m domain.Message) string {
	if !m.IsEncrypted {
		return m.Content
	}
	plain, err := s.codec.Decode(m.Content)
	if err != nil {
		s.log.Warn("messages - display content - decode failed", "message_id", m.ID, "err", err)
		return DecodePlaceholder
	}
	return plain
}
