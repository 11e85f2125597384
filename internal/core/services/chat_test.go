package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

type memConversationRepo struct {
	mu    sync.Mutex
	convs map[uuid.UUID]*domain.Conversation
	users *memUserRepo
}

func newMemConversationRepo(users *memUserRepo) *memConversationRepo {
	return &memConversationRepo{convs: make(map[uuid.UUID]*domain.Conversation), users: users}
}

func (r *memConversationRepo) CreateConversation(_ context.Context, user1, user2 uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &domain.Conversation{ID: uuid.New(), User1ID: user1, User2ID: user2}
	r.convs[c.ID] = c
	return c, nil
}

func (r *memConversationRepo) GetConversationByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return c, nil
}

func (r *memConversationRepo) FindBetween(_ context.Context, user1, user2 uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.convs {
		if (c.User1ID == user1 && c.User2ID == user2) || (c.User1ID == user2 && c.User2ID == user1) {
			return c, nil
		}
	}
	return nil, domain.ErrConversationNotFound
}

func (r *memConversationRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ConversationSummary
	for _, c := range r.convs {
		if c.User1ID != userID && c.User2ID != userID {
			continue
		}
		peer, _ := r.users.GetUserByID(context.Background(), c.OtherParticipant(userID))
		sum := domain.ConversationSummary{Conversation: *c}
		if peer != nil {
			sum.OtherUser = *peer
		}
		out = append(out, sum)
	}
	return out, nil
}

type memRoomRepo struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*domain.Room
	members map[uuid.UUID]map[uuid.UUID]struct{}
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{
		rooms:   make(map[uuid.UUID]*domain.Room),
		members: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (r *memRoomRepo) CreateRoom(_ context.Context, name, description string, creatorID uuid.UUID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := &domain.Room{ID: uuid.New(), Name: name, Description: description, CreatorID: creatorID}
	r.rooms[room.ID] = room
	r.members[room.ID] = make(map[uuid.UUID]struct{})
	return room, nil
}

func (r *memRoomRepo) GetRoomByID(_ context.Context, id uuid.UUID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *memRoomRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Room
	for id, room := range r.rooms {
		if _, ok := r.members[id][userID]; ok {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (r *memRoomRepo) AddMember(_ context.Context, roomID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.members[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if _, exists := bucket[userID]; exists {
		return domain.ErrAlreadyRoomMember
	}
	bucket[userID] = struct{}{}
	return nil
}

type chatFixture struct {
	svc      *ChatService
	users    *memUserRepo
	convs    *memConversationRepo
	rooms    *memRoomRepo
	msgs     *memMessageRepo
	presence *fakePresence
	alice    *domain.User
	bob      *domain.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	alice := &domain.User{ID: uuid.New(), Username: "alice", IsActive: true}
	bob := &domain.User{ID: uuid.New(), Username: "bob", IsActive: true}
	users := newMemUserRepo(alice, bob)
	convs := newMemConversationRepo(users)
	rooms := newMemRoomRepo()
	msgs := newMemMessageRepo()
	pres := newFakePresence()
	reg := newFakeRegistry()
	m := testMetrics()
	display := NewMessageService(testLogger(), msgs, reg, passthroughCodec{}, m)
	status := NewStatusService(testLogger(), msgs, reg, m)
	svc := NewChatService(testLogger(), users, convs, rooms, msgs, allowAll, pres, display, status)
	return &chatFixture{svc: svc, users: users, convs: convs, rooms: rooms, msgs: msgs, presence: pres, alice: alice, bob: bob}
}

func TestStartConversation_CreatesOnce(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	first, err := f.svc.StartConversation(context.Background(), f.alice.ID, "bob")
	req.NoError(err)

	// Starting it again, even from the other side, reuses the same pair.
	second, err := f.svc.StartConversation(context.Background(), f.bob.ID, "alice")
	req.NoError(err)
	req.Equal(first.ID, second.ID)
}

func TestStartConversation_Rejections(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	_, err := f.svc.StartConversation(context.Background(), f.alice.ID, "nobody")
	req.ErrorIs(err, domain.ErrUserNotFound)

	_, err = f.svc.StartConversation(context.Background(), f.alice.ID, "alice")
	req.ErrorIs(err, domain.ErrSelfConversation)
}

func TestListConversations_ResolvesPresence(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	_, err := f.svc.StartConversation(context.Background(), f.alice.ID, "bob")
	req.NoError(err)
	f.presence.MarkActive(f.bob.ID)

	views, err := f.svc.ListConversations(context.Background(), f.alice.ID)
	req.NoError(err)
	req.Len(views, 1)
	req.Equal(f.bob.ID, views[0].OtherUser.ID)
	req.True(views[0].OtherUserOnline)

	f.presence.MarkInactive(f.bob.ID)
	views, err = f.svc.ListConversations(context.Background(), f.alice.ID)
	req.NoError(err)
	req.False(views[0].OtherUserOnline)
}

func TestHistory_SweepsAndDecodes(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	conv, err := f.svc.StartConversation(context.Background(), f.alice.ID, "bob")
	req.NoError(err)
	ch := conv.Channel()

	plain := domain.NewMessage(ch, f.bob.ID, "hi alice", domain.TypeText, false, nil)
	_, err = f.msgs.CreateMessage(context.Background(), plain)
	req.NoError(err)
	secret := domain.NewMessage(ch, f.bob.ID, "enc:whisper", domain.TypeText, true, nil)
	_, err = f.msgs.CreateMessage(context.Background(), secret)
	req.NoError(err)

	msgs, err := f.svc.History(context.Background(), f.alice.ID, ch, 0)
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal("hi alice", msgs[0].Content)
	req.Equal("whisper", msgs[1].Content)

	// Reading the history read-swept bob's messages.
	req.Equal(domain.StatusRead, f.msgs.status(plain.ID))
	req.Equal(domain.StatusRead, f.msgs.status(secret.ID))
}

func TestHistory_NonParticipantForbidden(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	f.svc.membership = denyAll

	_, err := f.svc.History(context.Background(), f.alice.ID, domain.Channel{Kind: domain.KindRoom, ID: uuid.New()}, 0)
	req.ErrorIs(err, domain.ErrNotParticipant)
}

func TestRooms_CreateJoinList(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	room, err := f.svc.CreateRoom(context.Background(), f.alice.ID, "general", "open floor")
	req.NoError(err)

	// The creator is a member without an explicit join.
	mine, err := f.svc.ListRooms(context.Background(), f.alice.ID)
	req.NoError(err)
	req.Len(mine, 1)

	req.NoError(f.svc.JoinRoom(context.Background(), room.ID, f.bob.ID))
	req.ErrorIs(f.svc.JoinRoom(context.Background(), room.ID, f.bob.ID), domain.ErrAlreadyRoomMember)
	req.ErrorIs(f.svc.JoinRoom(context.Background(), uuid.New(), f.bob.ID), domain.ErrRoomNotFound)
}
