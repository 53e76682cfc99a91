package browser

import (
	"context"
	"log/slog"
	"sync"
)

// Registry keys proxies by room id so each room drives its own browser
// instance. Proxies are created lazily on the first browser event for a room
// and torn down when the room is destroyed.
type Registry struct {
	newDriver func() Driver
	logger    *slog.Logger

	mu      sync.Mutex
	proxies map[string]*Proxy
	onFrame func(roomId string, data []byte)
}

func NewRegistry(newDriver func() Driver, logger *slog.Logger) *Registry {
	return &Registry{
		newDriver: newDriver,
		logger:    logger,
		proxies:   make(map[string]*Proxy),
	}
}

// OnFrame registers the fan-out callback invoked for every produced frame.
// Must be set before the first browser event.
func (r *Registry) OnFrame(fn func(roomId string, data []byte)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFrame = fn
}

func (r *Registry) Navigate(ctx context.Context, roomId, url string) {
	r.getOrCreate(roomId).Navigate(url)
}

func (r *Registry) DispatchInput(ctx context.Context, roomId string, event InputEvent) {
	r.getOrCreate(roomId).DispatchInput(event)
}

func (r *Registry) getOrCreate(roomId string) *Proxy {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.proxies[roomId]; ok {
		return p
	}

	onFrame := r.onFrame
	p := NewProxy(r.newDriver(), func(data []byte) {
		if onFrame != nil {
			onFrame(roomId, data)
		}
	}, r.logger.With("room_id", roomId))
	r.proxies[roomId] = p

	r.logger.Debug("browser proxy created", "room_id", roomId)
	return p
}

// Release shuts down the room's proxy, if any.
func (r *Registry) Release(roomId string) {
	r.mu.Lock()
	p, ok := r.proxies[roomId]
	delete(r.proxies, roomId)
	r.mu.Unlock()

	if ok {
		p.Shutdown()
		r.logger.Debug("browser proxy released", "room_id", roomId)
	}
}

// Shutdown tears down every proxy. Idempotent.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	proxies := r.proxies
	r.proxies = make(map[string]*Proxy)
	r.mu.Unlock()

	for _, p := range proxies {
		p.Shutdown()
	}
}
