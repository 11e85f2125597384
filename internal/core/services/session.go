package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/contracts"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

var tracer = otel.Tracer("session-controller")

// sessionClient tags a transport with the authenticated user and channel,
// which is everything the registry needs to know about a connection.
type sessionClient struct {
	conn    contracts.Conn
	user    *domain.User
	channel domain.Channel
}

func (c *sessionClient) UserID() uuid.UUID              { return c.user.ID }
func (c *sessionClient) Username() string               { return c.user.Username }
func (c *sessionClient) Channel() domain.Channel        { return c.channel }
func (c *sessionClient) Send(ctx context.Context, data []byte) error {
	return c.conn.Send(ctx, data)
}
func (c *sessionClient) Close() { c.conn.Close() }

// SessionController runs the full lifecycle of one realtime connection:
// Authenticating → Joining → Active → Closed. Run returns only on
// disconnect.
type SessionController struct {
	registry   contracts.Registry
	presence   contracts.PresenceTracker
	tokens     contracts.TokenValidator
	users      domain.UserRepository
	membership domain.MembershipRepository
	messages   *MessageService
	status     *StatusService
	log        *slog.Logger
}

func NewSessionController(
	log *slog.Logger,
	registry contracts.Registry,
	presence contracts.PresenceTracker,
	tokens contracts.TokenValidator,
	users domain.UserRepository,
	membership domain.MembershipRepository,
	messages *MessageService,
	status *StatusService,
) *SessionController {
	return &SessionController{
		log:        log,
		registry:   registry,
		presence:   presence,
		tokens:     tokens,
		users:      users,
		membership: membership,
		messages:   messages,
		status:     status,
	}
}

// Run drives one connection to completion. Authentication or authorization
// failure closes the transport with a policy-violation code before any
// state is shared; afterwards cleanup is unconditional and ordered.
func (s *SessionController) Run(
	ctx context.Context,
	ch domain.Channel,
	token string,
	conn contracts.Conn,
) error {
	ctx, span := tracer.Start(ctx, "SessionController.Run", trace.WithAttributes(
		attribute.String("channel", ch.String()),
	))
	defer span.End()

	// Authenticating
	userID, err := s.tokens.ValidateToken(token)
	if err != nil {
		conn.ClosePolicyViolation("invalid or expired token")
		span.SetStatus(codes.Error, "authentication failed")
		return domain.ErrInvalidToken
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || user == nil || !user.IsActive {
		conn.ClosePolicyViolation("user not found or inactive")
		span.SetStatus(codes.Error, "user inactive")
		return domain.ErrUserInactive
	}
	span.SetAttributes(attribute.String("user_id", user.ID.String()))

	// Joining: membership is re-validated at join time, never cached.
	authorized, err := s.membership.IsAuthorized(ctx, user.ID, ch)
	if err != nil {
		conn.ClosePolicyViolation("authorization unavailable")
		span.RecordError(err)
		return err
	}
	if !authorized {
		conn.ClosePolicyViolation("not a participant")
		span.SetStatus(codes.Error, "not a participant")
		return domain.ErrNotParticipant
	}

	if err := s.users.TouchLastSeen(ctx, user.ID); err != nil {
		s.log.WarnContext(ctx, "session - join - touch last seen failed", "user_id", user.ID, "err", err)
	}
	s.presence.MarkActive(user.ID)
	client := &sessionClient{conn: conn, user: user, channel: ch}
	s.registry.Join(client)

	var closed sync.Once
	teardown := func() { closed.Do(func() { s.teardown(ctx, client) }) }
	defer teardown()

	if err := s.status.SyncOnConnect(ctx, ch, user.ID, client); err != nil {
		s.log.ErrorContext(ctx, "session - join - status sync failed", "channel", ch.String(), "user_id", user.ID, "err", err)
	}
	lastSeen := time.Now().UTC()
	s.registry.Broadcast(ctx, ch, domain.UserStatusBroadcast{
		Type:     domain.TypeUserStatus,
		UserID:   user.ID,
		IsOnline: true,
		LastSeen: &lastSeen,
	}, client)
	s.log.InfoContext(ctx, "session - active", "channel", ch.String(), "user_id", user.ID)

	// Active: the loop suspends only while waiting on this connection's
	// own inbound frames.
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.presence.MarkActive(user.ID)
		ev, err := domain.DecodeClientEvent(raw)
		if err != nil {
			s.log.DebugContext(ctx, "session - active - dropping event", "user_id", user.ID, "err", err)
			continue
		}
		s.dispatch(ctx, client, ev)
	}
	return nil
}

func (s *SessionController) dispatch(ctx context.Context, client *sessionClient, ev domain.ClientEvent) {
	var err error
	switch e := ev.(type) {
	case domain.MessageEvent:
		err = s.messages.HandleNewMessage(ctx, client, e)
	case domain.TypingEvent:
		s.registry.Broadcast(ctx, client.Channel(), domain.TypingBroadcast{
			Type:      domain.TypeTyping,
			Username:  client.Username(),
			IsTyping:  e.IsTyping,
			Timestamp: time.Now().UTC(),
		}, client)
	case domain.StatusUpdateEvent:
		err = s.messages.HandleStatusUpdate(ctx, client, e)
	}
	if err == nil {
		return
	}
	if domain.EventFatal(err) {
		s.log.DebugContext(ctx, "session - active - event rejected", "user_id", client.UserID(), "err", err)
		return
	}
	// Collaborator failure: the single event is aborted, the session lives.
	s.log.ErrorContext(ctx, "session - active - event failed", "user_id", client.UserID(), "err", err)
}

// teardown runs the Closed state: deregister, drop presence, then a
// best-effort offline announcement to whoever is left.
func (s *SessionController) teardown(ctx context.Context, client *sessionClient) {
	s.registry.Leave(client)
	s.presence.MarkInactive(client.UserID())
	if err := s.users.TouchLastSeen(ctx, client.UserID()); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WarnContext(ctx, "session - closed - touch last seen failed", "user_id", client.UserID(), "err", err)
	}
	lastSeen := time.Now().UTC()
	s.registry.Broadcast(ctx, client.Channel(), domain.UserStatusBroadcast{
		Type:     domain.TypeUserStatus,
		UserID:   client.UserID(),
		IsOnline: false,
		LastSeen: &lastSeen,
	}, nil)
	client.Close()
	s.log.InfoContext(ctx, "session - closed", "channel", client.Channel().String(), "user_id", client.UserID())
}
