package inmemory

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/netmirror/server/internal/repository/ratelimit"
)

func newTestRepo(limits map[string]ratelimit.Limit) (*repo, *time.Time) {
	r := NewRepo(limits, slog.Default())
	now := time.Now()
	r.now = func() time.Time { return now }
	return r, &now
}

func TestAllowWithinLimit(t *testing.T) {
	r, _ := newTestRepo(map[string]ratelimit.Limit{
		ratelimit.ClassAction: {Max: 5, Window: 10 * time.Second},
	})

	for i := 0; i < 5; i++ {
		assert.True(t, r.Allow("user1", ratelimit.ClassAction), "request %d", i+1)
	}
	assert.False(t, r.Allow("user1", ratelimit.ClassAction))
}

func TestRejectionHasNoSideEffect(t *testing.T) {
	r, now := newTestRepo(map[string]ratelimit.Limit{
		ratelimit.ClassChat: {Max: 3, Window: time.Second},
	})

	for i := 0; i < 3; i++ {
		assert.True(t, r.Allow("user1", ratelimit.ClassChat))
	}
	for i := 0; i < 10; i++ {
		assert.False(t, r.Allow("user1", ratelimit.ClassChat))
	}

	// rejections must not have extended the window
	*now = now.Add(time.Second + time.Millisecond)
	assert.True(t, r.Allow("user1", ratelimit.ClassChat))
}

func TestWindowReset(t *testing.T) {
	r, now := newTestRepo(map[string]ratelimit.Limit{
		ratelimit.ClassAction: {Max: 2, Window: 10 * time.Second},
	})

	assert.True(t, r.Allow("user1", ratelimit.ClassAction))
	assert.True(t, r.Allow("user1", ratelimit.ClassAction))
	assert.False(t, r.Allow("user1", ratelimit.ClassAction))

	*now = now.Add(10*time.Second + time.Millisecond)
	assert.True(t, r.Allow("user1", ratelimit.ClassAction))
}

func TestIdentitiesAndClassesAreIndependent(t *testing.T) {
	r, _ := newTestRepo(map[string]ratelimit.Limit{
		ratelimit.ClassAction: {Max: 1, Window: 10 * time.Second},
		ratelimit.ClassChat:   {Max: 1, Window: time.Second},
	})

	assert.True(t, r.Allow("user1", ratelimit.ClassAction))
	assert.False(t, r.Allow("user1", ratelimit.ClassAction))

	assert.True(t, r.Allow("user2", ratelimit.ClassAction))
	assert.True(t, r.Allow("user1", ratelimit.ClassChat))
}

func TestUnknownClassAdmitted(t *testing.T) {
	r, _ := newTestRepo(map[string]ratelimit.Limit{})

	for i := 0; i < 100; i++ {
		assert.True(t, r.Allow("user1", "unknown"))
	}
}

func TestSweep(t *testing.T) {
	r, now := newTestRepo(map[string]ratelimit.Limit{
		ratelimit.ClassChat: {Max: 3, Window: time.Second},
	})

	assert.True(t, r.Allow("user1", ratelimit.ClassChat))
	assert.True(t, r.Allow("user2", ratelimit.ClassChat))

	*now = now.Add(3 * time.Second)
	r.sweep()

	r.mu.Lock()
	remaining := len(r.entries)
	r.mu.Unlock()
	assert.Equal(t, 0, remaining)
}
