package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/contracts"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// memMessageRepo is an in-memory MessageRepository with the same monotonic
// advance semantics as the SQL store.
type memMessageRepo struct {
	mu       sync.Mutex
	order    []uuid.UUID
	messages map[uuid.UUID]*domain.Message

	createErr  error
	advanceErr error
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{messages: make(map[uuid.UUID]*domain.Message)}
}

func (r *memMessageRepo) CreateMessage(_ context.Context, m domain.Message) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	stored := m
	stored.CreatedAt = time.Now().UTC()
	r.messages[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	out := stored
	return &out, nil
}

func (r *memMessageRepo) GetMessage(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	out := *m
	return &out, nil
}

func (r *memMessageRepo) AdvanceMessageStatus(_ context.Context, id uuid.UUID, target domain.MessageStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.advanceErr != nil {
		return false, r.advanceErr
	}
	m, ok := r.messages[id]
	if !ok {
		return false, nil
	}
	next, changed := domain.AdvanceStatus(*m, target)
	if changed {
		r.messages[id] = &next
	}
	return changed, nil
}

func (r *memMessageRepo) ListByChannelAndStatus(
	_ context.Context,
	ch domain.Channel,
	excludingSender uuid.UUID,
	status domain.MessageStatus,
) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, id := range r.order {
		m := r.messages[id]
		if m.Channel == ch && m.SenderID != excludingSender && m.Status == status {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *memMessageRepo) ListRecent(_ context.Context, ch domain.Channel, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, id := range r.order {
		if m := r.messages[id]; m.Channel == ch {
			out = append(out, *m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memMessageRepo) status(id uuid.UUID) domain.MessageStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[id].Status
}

// recordedBroadcast captures one fan-out call so tests can assert ordering
// and exclusion without a live transport.
type recordedBroadcast struct {
	Channel domain.Channel
	Event   any
	Exclude contracts.Client
}

type fakeRegistry struct {
	mu         sync.Mutex
	joined     map[contracts.Client]struct{}
	broadcasts []recordedBroadcast
	direct     []any
	sendToErr  error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{joined: make(map[contracts.Client]struct{})}
}

func (r *fakeRegistry) Join(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined[c] = struct{}{}
}

func (r *fakeRegistry) Leave(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.joined, c)
}

func (r *fakeRegistry) Broadcast(_ context.Context, ch domain.Channel, event any, exclude contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, recordedBroadcast{Channel: ch, Event: event, Exclude: exclude})
}

func (r *fakeRegistry) SendTo(_ context.Context, _ contracts.Client, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendToErr != nil {
		return r.sendToErr
	}
	r.direct = append(r.direct, event)
	return nil
}

func (r *fakeRegistry) recorded() []recordedBroadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedBroadcast(nil), r.broadcasts...)
}

func (r *fakeRegistry) isJoined(c contracts.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.joined[c]
	return ok
}

// fakePresence records mark calls in order.
type fakePresence struct {
	mu     sync.Mutex
	active map[uuid.UUID]int
	marks  []string
}

func newFakePresence() *fakePresence {
	return &fakePresence{active: make(map[uuid.UUID]int)}
}

func (p *fakePresence) MarkActive(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[userID]++
	p.marks = append(p.marks, "active")
}

func (p *fakePresence) MarkInactive(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, userID)
	p.marks = append(p.marks, "inactive")
}

func (p *fakePresence) IsOnline(userID uuid.UUID, _ time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active[userID] > 0
}

// fakeConn scripts the inbound side of a connection and records the
// outbound side.
type fakeConn struct {
	inbound chan []byte

	mu           sync.Mutex
	sent         [][]byte
	closed       bool
	policyReason string
}

func newFakeConn(frames ...[]byte) *fakeConn {
	c := &fakeConn{inbound: make(chan []byte, len(frames)+1)}
	for _, f := range frames {
		c.inbound <- f
	}
	close(c.inbound)
	return c
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	frame, ok := <-c.inbound
	if !ok {
		return nil, io.EOF
	}
	return frame, nil
}

func (c *fakeConn) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) ClosePolicyViolation(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policyReason = reason
	c.closed = true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) policy() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policyReason
}

// memUserRepo holds registered users by id and username.
type memUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	touched map[uuid.UUID]int
}

func newMemUserRepo(users ...*domain.User) *memUserRepo {
	r := &memUserRepo{byID: make(map[uuid.UUID]*domain.User), touched: make(map[uuid.UUID]int)}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *memUserRepo) CreateUser(_ context.Context, username, email, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == username {
			return nil, domain.ErrUsernameTaken
		}
	}
	u := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	r.byID[u.ID] = u
	return u, nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) TouchLastSeen(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	r.touched[id]++
	return nil
}

// allowAll authorizes every user for every channel; denyAll the opposite.
type membershipFunc func(ctx context.Context, userID uuid.UUID, ch domain.Channel) (bool, error)

func (f membershipFunc) IsAuthorized(ctx context.Context, userID uuid.UUID, ch domain.Channel) (bool, error) {
	return f(ctx, userID, ch)
}

var allowAll = membershipFunc(func(context.Context, uuid.UUID, domain.Channel) (bool, error) {
	return true, nil
})

var denyAll = membershipFunc(func(context.Context, uuid.UUID, domain.Channel) (bool, error) {
	return false, nil
})

// passthroughCodec marks content reversibly without real encryption.
type passthroughCodec struct {
	encodeErr error
	decodeErr error
}

func (c passthroughCodec) Encode(plaintext string) (string, error) {
	if c.encodeErr != nil {
		return "", c.encodeErr
	}
	return "enc:" + plaintext, nil
}

func (c passthroughCodec) Decode(blob string) (string, error) {
	if c.decodeErr != nil {
		return "", c.decodeErr
	}
	if len(blob) < 4 || blob[:4] != "enc:" {
		return "", errors.New("not an encoded blob")
	}
	return blob[4:], nil
}

// staticClient is a minimal contracts.Client for service-level tests that
// do not exercise a session.
type staticClient struct {
	id       uuid.UUID
	username string
	channel  domain.Channel
	conn     *fakeConn
}

func newStaticClient(ch domain.Channel) *staticClient {
	return &staticClient{id: uuid.New(), username: "tester", channel: ch, conn: newFakeConn()}
}

func (c *staticClient) UserID() uuid.UUID       { return c.id }
func (c *staticClient) Username() string        { return c.username }
func (c *staticClient) Channel() domain.Channel { return c.channel }
func (c *staticClient) Send(ctx context.Context, data []byte) error {
	return c.conn.Send(ctx, data)
}
func (c *staticClient) Close() { c.conn.Close() }
