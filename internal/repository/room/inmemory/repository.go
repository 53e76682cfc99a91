// Package inmemory holds the authoritative room table. All state is
// process-local and dies with the process; clients re-sync via snapshots.
package inmemory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/netmirror/server/internal/repository/room"
)

type roomState struct {
	hostId                string
	members               []room.Member
	playing               bool
	approxPositionSeconds float64
	updatedAt             int64
	seq                   uint64
	sessionTitle          string
	currentVideoUrl       string
}

type repo struct {
	rooms  map[string]*roomState
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*roomState),
		logger: logger,
	}
}

func (r *repo) Create(ctx context.Context, params *room.CreateParams) (room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[params.RoomId]; ok {
		return room.Room{}, room.ErrAlreadyExists
	}

	rs := &roomState{
		hostId:    params.HostId,
		members:   []room.Member{},
		updatedAt: time.Now().UnixMilli(),
	}
	r.rooms[params.RoomId] = rs

	r.logger.DebugContext(ctx, "room created", "room_id", params.RoomId, "host_id", params.HostId)
	return r.snapshot(params.RoomId, rs), nil
}

func (r *repo) Get(ctx context.Context, roomId string) (room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}

	return r.snapshot(roomId, rs), nil
}

// AddMember appends the member in insertion order. Re-adding an existing id is
// a no-op. Membership changes do not advance seq; seq versions the shared
// playback state, and a freshly created room must stay at seq 0.
func (r *repo) AddMember(ctx context.Context, params *room.AddMemberParams) (room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}

	if !hasMember(rs, params.MemberId) {
		rs.members = append(rs.members, room.Member{
			Id:          params.MemberId,
			DisplayName: params.DisplayName,
			IsHost:      params.MemberId == rs.hostId,
		})
	}

	return r.snapshot(params.RoomId, rs), nil
}

// RemoveMember removes the member and reports whether the room was destroyed
// as a result. A departing host is replaced by the earliest-joined remaining
// member; the last member leaving destroys the room.
func (r *repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) (room.Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.Room{}, false, room.ErrNotFound
	}

	members := rs.members[:0]
	for _, m := range rs.members {
		if m.Id != params.MemberId {
			members = append(members, m)
		}
	}
	rs.members = members

	if len(rs.members) == 0 {
		delete(r.rooms, params.RoomId)
		r.logger.DebugContext(ctx, "room destroyed", "room_id", params.RoomId)
		return room.Room{}, true, nil
	}

	if rs.hostId == params.MemberId {
		r.setHost(rs, rs.members[0].Id)
	}

	return r.snapshot(params.RoomId, rs), false, nil
}

// TransferHost reassigns the host. A new host id naming a non-member is
// ignored, preserving the single-resolvable-host invariant.
func (r *repo) TransferHost(ctx context.Context, params *room.TransferHostParams) (room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}

	if hasMember(rs, params.NewHostId) {
		r.setHost(rs, params.NewHostId)
	}

	return r.snapshot(params.RoomId, rs), nil
}

// ApplyUpdate merges the non-nil fields into the room, bumping updatedAt and
// seq by exactly one. A hostId field takes the host-transfer path rather than
// a blind overwrite.
func (r *repo) ApplyUpdate(ctx context.Context, params *room.ApplyUpdateParams) (room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}

	if params.Playing != nil {
		rs.playing = *params.Playing
	}
	if params.ApproxPositionSeconds != nil {
		rs.approxPositionSeconds = max(0, *params.ApproxPositionSeconds)
	}
	if params.HostId != nil && hasMember(rs, *params.HostId) {
		r.setHost(rs, *params.HostId)
	}
	if params.SessionTitle != nil {
		rs.sessionTitle = *params.SessionTitle
	}
	if params.CurrentVideoUrl != nil {
		rs.currentVideoUrl = *params.CurrentVideoUrl
	}

	rs.updatedAt = time.Now().UnixMilli()
	rs.seq++

	return r.snapshot(params.RoomId, rs), nil
}

func (r *repo) setHost(rs *roomState, newHostId string) {
	rs.hostId = newHostId
	for i := range rs.members {
		rs.members[i].IsHost = rs.members[i].Id == newHostId
	}
}

func hasMember(rs *roomState, memberId string) bool {
	for _, m := range rs.members {
		if m.Id == memberId {
			return true
		}
	}

	return false
}

func (r *repo) snapshot(roomId string, rs *roomState) room.Room {
	members := make([]room.Member, len(rs.members))
	copy(members, rs.members)

	return room.Room{
		Id:                    roomId,
		HostId:                rs.hostId,
		Members:               members,
		Playing:               rs.playing,
		ApproxPositionSeconds: rs.approxPositionSeconds,
		UpdatedAt:             rs.updatedAt,
		Seq:                   rs.seq,
		SessionTitle:          rs.sessionTitle,
		CurrentVideoUrl:       rs.currentVideoUrl,
	}
}
