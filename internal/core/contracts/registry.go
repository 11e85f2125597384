package contracts

import (
	"context"

	"github.com/google/uuid"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

// Client is the minimal surface the Registry needs to talk to one live
// connection. A client belongs to exactly one channel for its lifetime.
type Client interface {
	UserID() uuid.UUID
	Username() string
	Channel() domain.Channel
	Send(ctx context.Context, data []byte) error
	Close()
}

// Registry owns the per-channel membership of live connections and performs
// partial-failure-tolerant fan-out: one stale socket never blocks delivery
// to healthy peers.
type Registry interface {
	// Join registers the client under its channel, creating the bucket
	// lazily on first join.
	Join(c Client)
	// Leave removes the client; idempotent. An emptied bucket is dropped.
	Leave(c Client)
	// Broadcast delivers event to every client in ch except exclude. A
	// failed send prunes that client as a side effect and delivery to the
	// rest continues.
	Broadcast(ctx context.Context, ch domain.Channel, event any, exclude Client)
	// SendTo delivers event to a single client; the failure is the
	// caller's to interpret.
	SendTo(ctx context.Context, c Client, event any) error
}
