package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/netmirror/server/internal/repository/connection"
	"github.com/netmirror/server/internal/repository/room"
	"github.com/netmirror/server/pkg/wsconn"
)

const createRoomAttempts = 5

type ConnectParams struct {
	Conn     *wsconn.Conn
	MemberId string
}

func (s *service) Connect(ctx context.Context, params *ConnectParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	return nil
}

type CreateRoomParams struct {
	SenderId    string
	DisplayName string
}

type CreateRoomResponse struct {
	RoomId    string
	InviteRef string
	Room      Room
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	if !validDisplayName(params.DisplayName) {
		return CreateRoomResponse{}, ErrValidationError
	}

	if _, err := s.connRepo.GetRoomId(params.SenderId); err == nil {
		return CreateRoomResponse{}, ErrAlreadyInRoom
	}

	var roomId string
	for attempt := 0; ; attempt++ {
		roomId = s.generator.GenerateRandomString(roomIdLength)
		_, err := s.roomRepo.Create(ctx, &room.CreateParams{
			RoomId: roomId,
			HostId: params.SenderId,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, room.ErrAlreadyExists) || attempt == createRoomAttempts-1 {
			return CreateRoomResponse{}, fmt.Errorf("failed to create room: %w", err)
		}
	}

	snapshot, err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomId:      roomId,
		MemberId:    params.SenderId,
		DisplayName: params.DisplayName,
	})
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to add creator: %w", err)
	}

	if err := s.connRepo.SetRoomId(params.SenderId, roomId); err != nil {
		s.logger.WarnContext(ctx, "failed to set room id", "member_id", params.SenderId, "error", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "host_id", params.SenderId)
	return CreateRoomResponse{
		RoomId:    roomId,
		InviteRef: "/room/" + roomId,
		Room:      roomFromRepo(snapshot),
	}, nil
}

type JoinRoomParams struct {
	SenderId    string
	RoomId      string
	DisplayName string
}

type JoinRoomResponse struct {
	Room  Room
	Conns []*wsconn.Conn
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if params.RoomId == "" || !validDisplayName(params.DisplayName) {
		return JoinRoomResponse{}, ErrValidationError
	}

	if _, err := s.connRepo.GetRoomId(params.SenderId); err == nil {
		return JoinRoomResponse{}, ErrAlreadyInRoom
	}

	snapshot, err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomId:      params.RoomId,
		MemberId:    params.SenderId,
		DisplayName: params.DisplayName,
	})
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return JoinRoomResponse{}, ErrRoomNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	if err := s.connRepo.SetRoomId(params.SenderId, params.RoomId); err != nil {
		s.logger.WarnContext(ctx, "failed to set room id", "member_id", params.SenderId, "error", err)
	}

	s.logger.InfoContext(ctx, "member joined", "room_id", params.RoomId, "member_id", params.SenderId)
	return JoinRoomResponse{
		Room:  roomFromRepo(snapshot),
		Conns: s.getConns(ctx, snapshot.Members, ""),
	}, nil
}

type DisconnectParams struct {
	SenderId string
}

type DisconnectResponse struct {
	// RoomId is empty when the connection had not joined a room.
	RoomId        string
	IsRoomDeleted bool
	Room          Room
	Conns         []*wsconn.Conn
}

func (s *service) Disconnect(ctx context.Context, params *DisconnectParams) (DisconnectResponse, error) {
	roomId, err := s.connRepo.GetRoomId(params.SenderId)

	if removeErr := s.connRepo.RemoveByMemberId(params.SenderId); removeErr != nil && !errors.Is(removeErr, connection.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to remove connection", "member_id", params.SenderId, "error", removeErr)
	}

	if err != nil {
		return DisconnectResponse{}, nil
	}

	snapshot, deleted, err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		RoomId:   roomId,
		MemberId: params.SenderId,
	})
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	if deleted {
		s.browser.Release(roomId)
		s.logger.InfoContext(ctx, "room deleted", "room_id", roomId)
		return DisconnectResponse{RoomId: roomId, IsRoomDeleted: true}, nil
	}

	s.logger.InfoContext(ctx, "member disconnected", "room_id", roomId, "member_id", params.SenderId)
	return DisconnectResponse{
		RoomId: roomId,
		Room:   roomFromRepo(snapshot),
		Conns:  s.getConns(ctx, snapshot.Members, ""),
	}, nil
}

func validDisplayName(displayName string) bool {
	length := utf8.RuneCountInString(displayName)
	return length >= 1 && length <= maxDisplayNameLength
}
