package presence

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// OnlineWindow is the freshness threshold: a user is online iff their last
// activity is strictly younger than this.
const OnlineWindow = 30 * time.Second

// Tracker is the process-wide user → last-active map. Advisory only: it is
// never persisted and a restart forgets everyone, which is acceptable
// because presence is a signal, not a record.
type Tracker struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]time.Time
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[uuid.UUID]time.Time),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// MarkActive upserts the current timestamp for the user. Never fails.
func (t *Tracker) MarkActive(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[userID] = t.now()
}

// MarkInactive removes the entry unconditionally. Idempotent.
func (t *Tracker) MarkInactive(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, userID)
}

// IsOnline reports whether the user was active within the window before
// now. Absence of an entry means offline; so does exactly the window.
func (t *Tracker) IsOnline(userID uuid.UUID, now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.entries[userID]
	if !ok {
		return false
	}
	return now.Sub(ts) < OnlineWindow
}
