package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/netmirror/server/internal/browser"
	"github.com/netmirror/server/internal/service"
	"github.com/netmirror/server/pkg/wsconn"
)

type HostChangedPayload struct {
	RoomId string `json:"roomId"`
	HostId string `json:"hostId"`
}

type CreateRoomInput struct {
	DisplayName string `json:"displayName" validate:"required,max=20"`
}

func (c *controller) handleCreateRoom(ctx context.Context, conn *wsconn.Conn, input CreateRoomInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, errs)
	}

	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	createRoomResp, err := c.roomService.CreateRoom(ctx, &service.CreateRoomParams{
		SenderId:    memberId,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "room-created",
		Payload: map[string]any{
			"roomId":    createRoomResp.RoomId,
			"inviteRef": createRoomResp.InviteRef,
		},
	}); err != nil {
		return fmt.Errorf("failed to write room created: %w", err)
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type:    "room-state",
		Payload: createRoomResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to write room state: %w", err)
	}

	return nil
}

type JoinRoomInput struct {
	RoomId      string `json:"roomId" validate:"required"`
	DisplayName string `json:"displayName" validate:"required,max=20"`
}

func (c *controller) handleJoinRoom(ctx context.Context, conn *wsconn.Conn, input JoinRoomInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, errs)
	}

	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &service.JoinRoomParams{
		SenderId:    memberId,
		RoomId:      input.RoomId,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return c.writeError(ctx, conn, errCodeRoomNotFound, "room not found")
		}
		return fmt.Errorf("failed to join room: %w", err)
	}

	if err := c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type:    "room-state",
		Payload: joinRoomResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room state: %w", err)
	}

	return nil
}

type ChatSendInput struct {
	RoomId  string `json:"roomId"`
	Message string `json:"message"`
}

// Chat and action payloads are validated in the service, after its rate-limit
// check.
func (c *controller) handleChatSend(ctx context.Context, _ *wsconn.Conn, input ChatSendInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	sendChatResp, err := c.roomService.SendChat(ctx, &service.SendChatParams{
		SenderId: memberId,
		RoomId:   input.RoomId,
		Message:  input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat: %w", err)
	}

	if err := c.broadcast(ctx, sendChatResp.Conns, &Output{
		Type:    "chat-message",
		Payload: sendChatResp.Message,
	}); err != nil {
		return fmt.Errorf("failed to broadcast chat message: %w", err)
	}

	return nil
}

type ActionInput struct {
	RoomId string `json:"roomId"`
}

func (c *controller) handleActionPlay(ctx context.Context, _ *wsconn.Conn, input ActionInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	actionResp, err := c.roomService.Play(ctx, &service.PlayParams{
		SenderId: memberId,
		RoomId:   input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	return c.broadcastAction(ctx, &actionResp)
}

func (c *controller) handleActionPause(ctx context.Context, _ *wsconn.Conn, input ActionInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	actionResp, err := c.roomService.Pause(ctx, &service.PauseParams{
		SenderId: memberId,
		RoomId:   input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return c.broadcastAction(ctx, &actionResp)
}

type ActionSeekInput struct {
	RoomId       string  `json:"roomId"`
	DeltaSeconds float64 `json:"deltaSeconds"`
}

func (c *controller) handleActionSeek(ctx context.Context, _ *wsconn.Conn, input ActionSeekInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	actionResp, err := c.roomService.Seek(ctx, &service.SeekParams{
		SenderId:     memberId,
		RoomId:       input.RoomId,
		DeltaSeconds: input.DeltaSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	return c.broadcastAction(ctx, &actionResp)
}

// broadcastAction sends the discrete action event first and the fresh
// snapshot second, under the handler's lock, so every member observes them in
// that order with matching seq values.
func (c *controller) broadcastAction(ctx context.Context, actionResp *service.ActionResponse) error {
	if err := c.broadcast(ctx, actionResp.Conns, &Output{
		Type:    "action-broadcast",
		Payload: actionResp.Action,
	}); err != nil {
		return fmt.Errorf("failed to broadcast action: %w", err)
	}

	if err := c.broadcast(ctx, actionResp.Conns, &Output{
		Type:    "room-state",
		Payload: actionResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room state: %w", err)
	}

	return nil
}

type TransferHostInput struct {
	RoomId        string `json:"roomId"`
	NewHostUserId string `json:"newHostUserId"`
}

func (c *controller) handleTransferHost(ctx context.Context, _ *wsconn.Conn, input TransferHostInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	transferHostResp, err := c.roomService.TransferHost(ctx, &service.TransferHostParams{
		SenderId:  memberId,
		RoomId:    input.RoomId,
		NewHostId: input.NewHostUserId,
	})
	if err != nil {
		return fmt.Errorf("failed to transfer host: %w", err)
	}

	if err := c.broadcast(ctx, transferHostResp.Conns, &Output{
		Type: "host-changed",
		Payload: HostChangedPayload{
			RoomId: transferHostResp.Room.RoomId,
			HostId: transferHostResp.Room.HostId,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast host changed: %w", err)
	}

	if err := c.broadcast(ctx, transferHostResp.Conns, &Output{
		Type:    "room-state",
		Payload: transferHostResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room state: %w", err)
	}

	return nil
}

type VideoChangeInput struct {
	RoomId string `json:"roomId"`
	Url    string `json:"url"`
}

func (c *controller) handleVideoChange(ctx context.Context, _ *wsconn.Conn, input VideoChangeInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	changeVideoResp, err := c.roomService.ChangeVideo(ctx, &service.ChangeVideoParams{
		SenderId: memberId,
		RoomId:   input.RoomId,
		VideoUrl: input.Url,
	})
	if err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	if err := c.broadcast(ctx, changeVideoResp.Conns, &Output{
		Type:    "room-state",
		Payload: changeVideoResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room state: %w", err)
	}

	return nil
}

type BrowserInputInput struct {
	RoomId string  `json:"roomId" validate:"required"`
	Type   string  `json:"type" validate:"required,oneof=mousemove mousedown mouseup click keydown keyup keypress scroll"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Key    string  `json:"key"`
	Text   string  `json:"text"`
	DeltaY float64 `json:"deltaY"`
}

// Browser handlers do not take the room lock: input and navigation are
// enqueued to the room's browser worker and never touch room state, so a hung
// browser cannot stall synchronization traffic.
func (c *controller) handleBrowserInput(ctx context.Context, _ *wsconn.Conn, input BrowserInputInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, errs)
	}

	memberId := c.getMemberIdFromCtx(ctx)

	browserInputResp, err := c.roomService.BrowserInput(ctx, &service.BrowserInputParams{
		SenderId: memberId,
		RoomId:   input.RoomId,
		Event: browser.InputEvent{
			Type:   input.Type,
			X:      input.X,
			Y:      input.Y,
			Key:    input.Key,
			Text:   input.Text,
			DeltaY: input.DeltaY,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to dispatch browser input: %w", err)
	}

	if browserInputResp.Cursor != nil {
		if err := c.broadcastVolatile(ctx, browserInputResp.Conns, &Output{
			Type:    "browser-cursor",
			Payload: browserInputResp.Cursor,
		}); err != nil {
			return fmt.Errorf("failed to broadcast browser cursor: %w", err)
		}
	}

	return nil
}

type BrowserNavigateInput struct {
	RoomId string `json:"roomId" validate:"required"`
	Url    string `json:"url" validate:"required,url"`
}

func (c *controller) handleBrowserNavigate(ctx context.Context, _ *wsconn.Conn, input BrowserNavigateInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, errs)
	}

	memberId := c.getMemberIdFromCtx(ctx)

	if err := c.roomService.BrowserNavigate(ctx, &service.BrowserNavigateParams{
		SenderId: memberId,
		RoomId:   input.RoomId,
		Url:      input.Url,
	}); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	return nil
}
