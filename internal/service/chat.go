package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/netmirror/server/internal/repository/ratelimit"
	"github.com/netmirror/server/internal/repository/room"
	"github.com/netmirror/server/pkg/wsconn"
)

type SendChatParams struct {
	SenderId string
	RoomId   string
	Message  string
}

type SendChatResponse struct {
	Message ChatMessage
	Conns   []*wsconn.Conn
}

// SendChat admits the message through the chat-class limiter before anything
// else, so flooding is throttled without producing any reply traffic.
func (s *service) SendChat(ctx context.Context, params *SendChatParams) (SendChatResponse, error) {
	if !s.rateLimiter.Allow(params.SenderId, ratelimit.ClassChat) {
		return SendChatResponse{}, ErrRateLimited
	}

	if params.RoomId == "" || params.Message == "" || utf8.RuneCountInString(params.Message) > maxChatMessageLength {
		return SendChatResponse{}, ErrValidationError
	}

	snapshot, err := s.roomRepo.Get(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return SendChatResponse{}, ErrRoomNotFound
		}
		return SendChatResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	var displayName string
	found := false
	for _, m := range snapshot.Members {
		if m.Id == params.SenderId {
			displayName = m.DisplayName
			found = true
			break
		}
	}
	if !found {
		return SendChatResponse{}, ErrMemberNotFound
	}

	return SendChatResponse{
		Message: ChatMessage{
			RoomId:      params.RoomId,
			UserId:      params.SenderId,
			DisplayName: displayName,
			Message:     params.Message,
			Ts:          time.Now().UnixMilli(),
		},
		Conns: s.getConns(ctx, snapshot.Members, ""),
	}, nil
}
