package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/contracts"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/metrics"
)

// StatusService owns the bulk transitions of the message status machine.
// Individual advances stay monotonic through the store's conditional
// update, so a sweep racing an explicit status_update converges on the
// highest status.
type StatusService struct {
	repo     domain.MessageRepository
	registry contracts.Registry
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewStatusService(log *slog.Logger, repo domain.MessageRepository, registry contracts.Registry, m *metrics.Metrics) *StatusService {
	return &StatusService{
		log:      log,
		repo:     repo,
		registry: registry,
		metrics:  m,
	}
}

// Sweep advances every message in ch authored by someone other than actor
// from one status to the next, broadcasting one status_update per changed
// message so the author's open sessions can update their view. Returns the
// ids that actually changed.
func (s *StatusService) Sweep(
	ctx context.Context,
	ch domain.Channel,
	actor uuid.UUID,
	from, to domain.MessageStatus,
	exclude contracts.Client,
) ([]uuid.UUID, error) {
	ids, err := s.repo.ListByChannelAndStatus(ctx, ch, actor, from)
	if err != nil {
		return nil, err
	}
	changed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		ok, err := s.repo.AdvanceMessageStatus(ctx, id, to)
		if err != nil {
			s.log.ErrorContext(ctx, "status - sweep - advance failed", "message_id", id, "to", to, "err", err)
			continue
		}
		if !ok {
			// Lost a benign race with another session; nothing to announce.
			continue
		}
		changed = append(changed, id)
		s.metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
		s.registry.Broadcast(ctx, ch, domain.StatusBroadcast{
			Type:      domain.TypeStatusUpdate,
			MessageID: id,
			Status:    to,
			Timestamp: time.Now().UTC(),
		}, exclude)
	}
	return changed, nil
}

// SyncOnConnect runs the two ordered phases triggered when a participant
// connects or reads: sent→delivered first, then delivered→read, so the
// stored state never skips the delivered step.
func (s *StatusService) SyncOnConnect(
	ctx context.Context,
	ch domain.Channel,
	actor uuid.UUID,
	exclude contracts.Client,
) error {
	ctx, span := tracer.Start(ctx, "StatusService.SyncOnConnect", trace.WithAttributes(
		attribute.String("channel", ch.String()),
		attribute.String("actor", actor.String()),
	))
	defer span.End()
	delivered, err := s.Sweep(ctx, ch, actor, domain.StatusSent, domain.StatusDelivered, exclude)
	if err != nil {
		span.RecordError(err)
		return err
	}
	read, err := s.Sweep(ctx, ch, actor, domain.StatusDelivered, domain.StatusRead, exclude)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(delivered) > 0 || len(read) > 0 {
		s.log.InfoContext(ctx, "status - sync on connect - swept",
			"channel", ch.String(), "delivered", len(delivered), "read", len(read))
	}
	return nil
}
