package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/netmirror/server/internal/repository/ratelimit"
	"github.com/netmirror/server/internal/repository/room"
	"github.com/netmirror/server/pkg/wsconn"
)

type PlayParams struct {
	SenderId string
	RoomId   string
}

type PauseParams struct {
	SenderId string
	RoomId   string
}

type SeekParams struct {
	SenderId     string
	RoomId       string
	DeltaSeconds float64
}

// ActionResponse carries the discrete action event and the snapshot taken
// right after it was applied; the gateway broadcasts both, snapshot second.
type ActionResponse struct {
	Action ActionBroadcast
	Room   Room
	Conns  []*wsconn.Conn
}

func (s *service) Play(ctx context.Context, params *PlayParams) (ActionResponse, error) {
	return s.updatePlaying(ctx, params.SenderId, params.RoomId, true, ActionPlay)
}

func (s *service) Pause(ctx context.Context, params *PauseParams) (ActionResponse, error) {
	return s.updatePlaying(ctx, params.SenderId, params.RoomId, false, ActionPause)
}

func (s *service) updatePlaying(ctx context.Context, senderId, roomId string, playing bool, actionType string) (ActionResponse, error) {
	if !s.rateLimiter.Allow(senderId, ratelimit.ClassAction) {
		return ActionResponse{}, ErrRateLimited
	}

	if roomId == "" {
		return ActionResponse{}, ErrValidationError
	}

	snapshot, err := s.roomRepo.ApplyUpdate(ctx, &room.ApplyUpdateParams{
		RoomId:  roomId,
		Playing: &playing,
	})
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return ActionResponse{}, ErrRoomNotFound
		}
		return ActionResponse{}, fmt.Errorf("failed to apply update: %w", err)
	}

	return s.actionResponse(ctx, snapshot, actionType, senderId, nil), nil
}

// Seek is relative: clients seek against their own local estimate of "now",
// so the server only keeps a running approximation, clamped at zero.
func (s *service) Seek(ctx context.Context, params *SeekParams) (ActionResponse, error) {
	if !s.rateLimiter.Allow(params.SenderId, ratelimit.ClassAction) {
		return ActionResponse{}, ErrRateLimited
	}

	if params.RoomId == "" {
		return ActionResponse{}, ErrValidationError
	}

	current, err := s.roomRepo.Get(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return ActionResponse{}, ErrRoomNotFound
		}
		return ActionResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	newPosition := max(0, current.ApproxPositionSeconds+params.DeltaSeconds)
	snapshot, err := s.roomRepo.ApplyUpdate(ctx, &room.ApplyUpdateParams{
		RoomId:                params.RoomId,
		ApproxPositionSeconds: &newPosition,
	})
	if err != nil {
		return ActionResponse{}, fmt.Errorf("failed to apply update: %w", err)
	}

	delta := params.DeltaSeconds
	return s.actionResponse(ctx, snapshot, ActionSeek, params.SenderId, &delta), nil
}

func (s *service) actionResponse(ctx context.Context, snapshot room.Room, actionType, actorId string, deltaSeconds *float64) ActionResponse {
	return ActionResponse{
		Action: ActionBroadcast{
			RoomId:       snapshot.Id,
			Type:         actionType,
			DeltaSeconds: deltaSeconds,
			UpdatedAt:    snapshot.UpdatedAt,
			Seq:          snapshot.Seq,
			ActorId:      actorId,
		},
		Room:  roomFromRepo(snapshot),
		Conns: s.getConns(ctx, snapshot.Members, ""),
	}
}

type ChangeVideoParams struct {
	SenderId string
	RoomId   string
	VideoUrl string
}

type ChangeVideoResponse struct {
	Room  Room
	Conns []*wsconn.Conn
}

// ChangeVideo is host-only and always pauses playback, so co-viewers do not
// auto-play a different video mid-transition.
func (s *service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	if !s.rateLimiter.Allow(params.SenderId, ratelimit.ClassAction) {
		return ChangeVideoResponse{}, ErrRateLimited
	}

	if params.RoomId == "" || params.VideoUrl == "" {
		return ChangeVideoResponse{}, ErrValidationError
	}

	current, err := s.roomRepo.Get(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return ChangeVideoResponse{}, ErrRoomNotFound
		}
		return ChangeVideoResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if current.HostId != params.SenderId {
		return ChangeVideoResponse{}, ErrPermissionDenied
	}

	playing := false
	snapshot, err := s.roomRepo.ApplyUpdate(ctx, &room.ApplyUpdateParams{
		RoomId:          params.RoomId,
		CurrentVideoUrl: &params.VideoUrl,
		Playing:         &playing,
	})
	if err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to apply update: %w", err)
	}

	s.logger.InfoContext(ctx, "video changed", "room_id", params.RoomId, "url", params.VideoUrl)
	return ChangeVideoResponse{
		Room:  roomFromRepo(snapshot),
		Conns: s.getConns(ctx, snapshot.Members, ""),
	}, nil
}
