package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/netmirror/server/internal/browser"
	"github.com/netmirror/server/internal/repository/room"
	"github.com/netmirror/server/pkg/randstr"
	"github.com/netmirror/server/pkg/wsconn"
)

var (
	ErrValidationError  = errors.New("validation error")
	ErrRoomNotFound     = errors.New("room not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRateLimited      = errors.New("rate limited")
	ErrAlreadyInRoom    = errors.New("already in room")
)

const (
	roomIdLength         = 8
	maxChatMessageLength = 400
	maxDisplayNameLength = 20
)

type iRoomRepo interface {
	Create(context.Context, *room.CreateParams) (room.Room, error)
	Get(context.Context, string) (room.Room, error)
	AddMember(context.Context, *room.AddMemberParams) (room.Room, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) (room.Room, bool, error)
	ApplyUpdate(context.Context, *room.ApplyUpdateParams) (room.Room, error)
}

type iConnRepo interface {
	Add(conn *wsconn.Conn, memberId string) error
	RemoveByMemberId(memberId string) error
	GetConn(memberId string) (*wsconn.Conn, error)
	SetRoomId(memberId, roomId string) error
	GetRoomId(memberId string) (string, error)
}

type iRateLimiter interface {
	Allow(identity, class string) bool
}

type iBrowserRegistry interface {
	OnFrame(fn func(roomId string, data []byte))
	Navigate(ctx context.Context, roomId, url string)
	DispatchInput(ctx context.Context, roomId string, event browser.InputEvent)
	Release(roomId string)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo    iRoomRepo
	connRepo    iConnRepo
	rateLimiter iRateLimiter
	browser     iBrowserRegistry
	generator   iGenerator
	logger      *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, rateLimiter iRateLimiter, browserRegistry iBrowserRegistry, logger *slog.Logger) *service {
	s := &service{
		roomRepo:    roomRepo,
		connRepo:    connRepo,
		rateLimiter: rateLimiter,
		browser:     browserRegistry,
		logger:      logger,
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	s.generator = randstr.New(letterBytes)

	browserRegistry.OnFrame(s.relayBrowserFrame)

	return s
}
