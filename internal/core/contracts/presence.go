package contracts

import (
	"time"

	"github.com/google/uuid"
)

// PresenceTracker is the advisory online/offline signal. Keyed by user, not
// by connection: a user with zero open connections has no entry. Purely
// in-memory; restart loses all of it.
type PresenceTracker interface {
	MarkActive(userID uuid.UUID)
	MarkInactive(userID uuid.UUID)
	// IsOnline is true iff the user was marked active less than the
	// freshness window before now. Exactly at the window is offline.
	IsOnline(userID uuid.UUID, now time.Time) bool
}
