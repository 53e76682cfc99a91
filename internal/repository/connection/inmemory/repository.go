package inmemory

import (
	"log/slog"
	"sync"

	"github.com/netmirror/server/internal/repository/connection"
	"github.com/netmirror/server/pkg/wsconn"
)

type repo struct {
	conns   map[string]*wsconn.Conn
	roomIds map[string]string
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:   make(map[string]*wsconn.Conn),
		roomIds: make(map[string]string),
		logger:  logger,
	}
}

func (r *repo) Add(conn *wsconn.Conn, memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[memberId]; ok {
		return connection.ErrAlreadyExists
	}

	r.conns[memberId] = conn

	r.logger.Debug("connection added", "member_id", memberId)
	return nil
}

func (r *repo) RemoveByMemberId(memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[memberId]; !ok {
		return connection.ErrNotFound
	}

	delete(r.conns, memberId)
	delete(r.roomIds, memberId)

	r.logger.Debug("connection removed", "member_id", memberId)
	return nil
}

func (r *repo) GetConn(memberId string) (*wsconn.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// SetRoomId records the room the member has joined; an empty room id clears it.
func (r *repo) SetRoomId(memberId, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[memberId]; !ok {
		return connection.ErrNotFound
	}

	if roomId == "" {
		delete(r.roomIds, memberId)
		return nil
	}

	r.roomIds[memberId] = roomId
	return nil
}

func (r *repo) GetRoomId(memberId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomId, ok := r.roomIds[memberId]
	if !ok {
		return "", connection.ErrNotFound
	}

	return roomId, nil
}
