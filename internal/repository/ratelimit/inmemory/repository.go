package inmemory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/netmirror/server/internal/repository/ratelimit"
)

type key struct {
	identity string
	class    string
}

type entry struct {
	count     int
	resetTime time.Time
}

type repo struct {
	limits  map[string]ratelimit.Limit
	entries map[key]entry
	mu      sync.Mutex
	logger  *slog.Logger

	now func() time.Time
}

func NewRepo(limits map[string]ratelimit.Limit, logger *slog.Logger) *repo {
	return &repo{
		limits:  limits,
		entries: make(map[key]entry),
		logger:  logger,
		now:     time.Now,
	}
}

// Allow admits the request under the identity's fixed window for the class.
// A rejected request has no side effect: it neither extends the window nor
// counts toward it, so spamming cannot keep an identity locked out forever.
// Unknown classes are admitted.
func (r *repo) Allow(identity, class string) bool {
	limit, ok := r.limits[class]
	if !ok {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	k := key{identity, class}

	e, ok := r.entries[k]
	if !ok || now.After(e.resetTime) {
		r.entries[k] = entry{count: 1, resetTime: now.Add(limit.Window)}
		return true
	}

	if e.count >= limit.Max {
		metricRejected.WithLabelValues(class).Inc()
		return false
	}

	e.count++
	r.entries[k] = e
	return true
}

// RunSweeper evicts entries whose window expired more than a full window ago,
// bounding the table against identity churn. Blocks until ctx is done.
func (r *repo) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *repo) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for k, e := range r.entries {
		grace := r.limits[k.class].Window
		if now.After(e.resetTime.Add(grace)) {
			delete(r.entries, k)
			removed++
		}
	}

	if removed > 0 {
		r.logger.Debug("rate limit entries swept", "removed", removed, "remaining", len(r.entries))
	}
}
