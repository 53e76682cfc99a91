package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/netmirror/server/internal/service"
	"github.com/netmirror/server/pkg/validator"
	"github.com/netmirror/server/pkg/wsrouter"
)

type iRoomService interface {
	Connect(context.Context, *service.ConnectParams) error
	CreateRoom(context.Context, *service.CreateRoomParams) (service.CreateRoomResponse, error)
	JoinRoom(context.Context, *service.JoinRoomParams) (service.JoinRoomResponse, error)
	Disconnect(context.Context, *service.DisconnectParams) (service.DisconnectResponse, error)
	SendChat(context.Context, *service.SendChatParams) (service.SendChatResponse, error)
	Play(context.Context, *service.PlayParams) (service.ActionResponse, error)
	Pause(context.Context, *service.PauseParams) (service.ActionResponse, error)
	Seek(context.Context, *service.SeekParams) (service.ActionResponse, error)
	TransferHost(context.Context, *service.TransferHostParams) (service.TransferHostResponse, error)
	ChangeVideo(context.Context, *service.ChangeVideoParams) (service.ChangeVideoResponse, error)
	BrowserInput(context.Context, *service.BrowserInputParams) (service.BrowserInputResponse, error)
	BrowserNavigate(context.Context, *service.BrowserNavigateParams) error
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter

	// mu serializes the validate-mutate-broadcast section of every
	// room-mutating handler, so snapshots are enqueued to each member in
	// seq order.
	mu sync.Mutex
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
