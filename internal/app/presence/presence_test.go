package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTracker_UnknownUserIsOffline(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	req.False(tracker.IsOnline(uuid.New(), time.Now()))
}

func TestTracker_ActiveUserIsOnline(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }

	tracker.MarkActive(userID)

	req.True(tracker.IsOnline(userID, base))
	req.True(tracker.IsOnline(userID, base.Add(29*time.Second)))
}

func TestTracker_WindowBoundaryIsOffline(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }
	tracker.MarkActive(userID)

	// Exactly the window is already stale.
	req.False(tracker.IsOnline(userID, base.Add(OnlineWindow)))
	req.False(tracker.IsOnline(userID, base.Add(OnlineWindow+time.Second)))
	req.True(tracker.IsOnline(userID, base.Add(OnlineWindow-time.Nanosecond)))
}

func TestTracker_MarkActiveRefreshes(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tracker.now = func() time.Time { return now }

	tracker.MarkActive(userID)
	now = base.Add(25 * time.Second)
	tracker.MarkActive(userID)

	// The refresh moved the horizon past what the first mark allowed.
	req.True(tracker.IsOnline(userID, base.Add(40*time.Second)))
}

func TestTracker_MarkInactiveIsImmediateAndIdempotent(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	userID := uuid.New()

	tracker.MarkActive(userID)
	tracker.MarkInactive(userID)
	req.False(tracker.IsOnline(userID, time.Now()))

	// Second removal of the same user is a no-op.
	tracker.MarkInactive(userID)
	req.False(tracker.IsOnline(userID, time.Now()))
}

func TestTracker_UsersAreIndependent(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	alice := uuid.New()
	bob := uuid.New()

	tracker.MarkActive(alice)
	tracker.MarkActive(bob)
	tracker.MarkInactive(alice)

	now := time.Now().UTC()
	req.False(tracker.IsOnline(alice, now))
	req.True(tracker.IsOnline(bob, now))
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewTracker()
	users := make([]uuid.UUID, 16)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				u := users[(n+j)%len(users)]
				tracker.MarkActive(u)
				tracker.IsOnline(u, time.Now())
				tracker.MarkInactive(u)
			}
		}(i)
	}
	wg.Wait()
}
