package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/contracts"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

// ConversationView is the REST projection of one conversation row.
type ConversationView struct {
	Conversation      domain.Conversation
	OtherUser         domain.User
	UnreadCount       int
	OtherUserOnline   bool
	OtherUserLastSeen time.Time
}

// ChatService backs the REST surface over conversations and rooms. It
// reuses the same presence tracker, status machine and message store the
// realtime core runs on.
type ChatService struct {
	users      domain.UserRepository
	convs      domain.ConversationRepository
	rooms      domain.RoomRepository
	messages   domain.MessageRepository
	membership domain.MembershipRepository
	presence   contracts.PresenceTracker
	display    *MessageService
	status     *StatusService
	log        *slog.Logger
}

func NewChatService(
	log *slog.Logger,
	users domain.UserRepository,
	convs domain.ConversationRepository,
	rooms domain.RoomRepository,
	messages domain.MessageRepository,
	membership domain.MembershipRepository,
	presence contracts.PresenceTracker,
	display *MessageService,
	status *StatusService,
) *ChatService {
	return &ChatService{
		log:        log,
		users:      users,
		convs:      convs,
		rooms:      rooms,
		messages:   messages,
		membership: membership,
		presence:   presence,
		display:    display,
		status:     status,
	}
}

// ListConversations returns the caller's conversations with the peer's
// advisory online state resolved from the presence tracker.
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationView, error) {
	summaries, err := s.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	views := make([]ConversationView, 0, len(summaries))
	for _, sum := range summaries {
		views = append(views, ConversationView{
			Conversation:      sum.Conversation,
			OtherUser:         sum.OtherUser,
			UnreadCount:       sum.UnreadCount,
			OtherUserOnline:   s.presence.IsOnline(sum.OtherUser.ID, now),
			OtherUserLastSeen: sum.OtherUser.LastSeen,
		})
	}
	return views, nil
}

// StartConversation creates (or returns) the 1:1 conversation between the
// caller and the named user.
func (s *ChatService) StartConversation(ctx context.Context, userID uuid.UUID, otherUsername string) (*domain.Conversation, error) {
	other, err := s.users.GetUserByUsername(ctx, otherUsername)
	if err != nil || other == nil {
		return nil, domain.ErrUserNotFound
	}
	if other.ID == userID {
		return nil, domain.ErrSelfConversation
	}
	existing, err := s.convs.FindBetween(ctx, userID, other.ID)
	if err == nil && existing != nil {
		return existing, nil
	}
	conv, err := s.convs.CreateConversation(ctx, userID, other.ID)
	if err != nil {
		// Two clients racing to start the same pair: the loser reuses the
		// winner's row.
		if errors.Is(err, domain.ErrConversationDuplicated) {
			return s.convs.FindBetween(ctx, userID, other.ID)
		}
		s.log.ErrorContext(ctx, "chat - start conversation - create failed", "user_id", userID, "err", err)
		return nil, err
	}
	return conv, nil
}

// History returns the channel's recent messages with decoded content,
// after running the same two-phase read sweep a connect triggers. REST
// reads never touch the presence tracker.
func (s *ChatService) History(ctx context.Context, userID uuid.UUID, ch domain.Channel, limit int) ([]domain.Message, error) {
	authorized, err := s.membership.IsAuthorized(ctx, userID, ch)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, domain.ErrNotParticipant
	}
	if err := s.status.SyncOnConnect(ctx, ch, userID, nil); err != nil {
		s.log.ErrorContext(ctx, "chat - history - read sweep failed", "channel", ch.String(), "err", err)
	}
	msgs, err := s.messages.ListRecent(ctx, ch, limit)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].Content = s.display.DisplayContent(msgs[i])
	}
	return msgs, nil
}

func (s *ChatService) CreateRoom(ctx context.Context, creatorID uuid.UUID, name, description string) (*domain.Room, error) {
	room, err := s.rooms.CreateRoom(ctx, name, description, creatorID)
	if err != nil {
		return nil, err
	}
	// Creator joins their own room implicitly.
	if err := s.rooms.AddMember(ctx, room.ID, creatorID); err != nil {
		s.log.ErrorContext(ctx, "chat - create room - creator membership failed", "room_id", room.ID, "err", err)
		return nil, err
	}
	return room, nil
}

func (s *ChatService) ListRooms(ctx context.Context, userID uuid.UUID) ([]domain.Room, error) {
	return s.rooms.ListForUser(ctx, userID)
}

func (s *ChatService) JoinRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil || room == nil {
		return domain.ErrRoomNotFound
	}
	return s.rooms.AddMember(ctx, roomID, userID)
}
