package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/netmirror/server/internal/repository/ratelimit"
	"github.com/netmirror/server/internal/repository/room"
	"github.com/netmirror/server/pkg/wsconn"
)

type TransferHostParams struct {
	SenderId  string
	RoomId    string
	NewHostId string
}

type TransferHostResponse struct {
	Room  Room
	Conns []*wsconn.Conn
}

// TransferHost may only be initiated by the current host. Requests from
// non-hosts are dropped without feedback; a stale-UI host button press is not
// an actionable client error.
func (s *service) TransferHost(ctx context.Context, params *TransferHostParams) (TransferHostResponse, error) {
	if !s.rateLimiter.Allow(params.SenderId, ratelimit.ClassAction) {
		return TransferHostResponse{}, ErrRateLimited
	}

	if params.RoomId == "" || params.NewHostId == "" {
		return TransferHostResponse{}, ErrValidationError
	}

	current, err := s.roomRepo.Get(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return TransferHostResponse{}, ErrRoomNotFound
		}
		return TransferHostResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if current.HostId != params.SenderId {
		return TransferHostResponse{}, ErrPermissionDenied
	}

	if !hasMemberId(current.Members, params.NewHostId) {
		return TransferHostResponse{}, ErrMemberNotFound
	}

	snapshot, err := s.roomRepo.ApplyUpdate(ctx, &room.ApplyUpdateParams{
		RoomId: params.RoomId,
		HostId: &params.NewHostId,
	})
	if err != nil {
		return TransferHostResponse{}, fmt.Errorf("failed to apply update: %w", err)
	}

	s.logger.InfoContext(ctx, "host transferred", "room_id", params.RoomId, "host_id", params.NewHostId)
	return TransferHostResponse{
		Room:  roomFromRepo(snapshot),
		Conns: s.getConns(ctx, snapshot.Members, ""),
	}, nil
}
