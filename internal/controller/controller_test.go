package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netmirror/server/internal/browser"
	connectioninmemory "github.com/netmirror/server/internal/repository/connection/inmemory"
	"github.com/netmirror/server/internal/repository/ratelimit"
	ratelimitinmemory "github.com/netmirror/server/internal/repository/ratelimit/inmemory"
	roominmemory "github.com/netmirror/server/internal/repository/room/inmemory"
	"github.com/netmirror/server/internal/service"
)

type stubRegistry struct {
	mu      sync.Mutex
	onFrame func(roomId string, data []byte)
	inputs  []browser.InputEvent
}

func (r *stubRegistry) OnFrame(fn func(roomId string, data []byte)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFrame = fn
}

func (r *stubRegistry) Navigate(ctx context.Context, roomId, url string) {}

func (r *stubRegistry) DispatchInput(ctx context.Context, roomId string, event browser.InputEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, event)
}

func (r *stubRegistry) Release(roomId string) {}

func (r *stubRegistry) emitFrame(roomId string, data []byte) {
	r.mu.Lock()
	fn := r.onFrame
	r.mu.Unlock()
	fn(roomId, data)
}

func newTestServer(t *testing.T) (*httptest.Server, *stubRegistry) {
	t.Helper()

	registry := &stubRegistry{}
	roomService := service.NewService(
		roominmemory.NewRepo(slog.Default()),
		connectioninmemory.NewRepo(slog.Default()),
		ratelimitinmemory.NewRepo(map[string]ratelimit.Limit{
			ratelimit.ClassAction: {Max: 100, Window: time.Second},
			ratelimit.ClassChat:   {Max: 100, Window: time.Second},
		}, slog.Default()),
		registry,
		slog.Default(),
	)

	server := httptest.NewServer(NewController(roomService, slog.Default()).GetMux())
	t.Cleanup(server.Close)

	return server, registry
}

func dialWS(t *testing.T, server *httptest.Server, userId string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws?user-id=" + userId
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, messageType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": messageType, "payload": payload}))
}

func readOutput(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var output struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&output))

	return output.Type, output.Payload
}

func readRoomState(t *testing.T, conn *websocket.Conn) service.Room {
	t.Helper()

	messageType, payload := readOutput(t, conn)
	require.Equal(t, "room-state", messageType)
	var room service.Room
	require.NoError(t, json.Unmarshal(payload, &room))

	return room
}

func createRoom(t *testing.T, conn *websocket.Conn, displayName string) string {
	t.Helper()

	send(t, conn, "create-room", map[string]any{"displayName": displayName})

	messageType, payload := readOutput(t, conn)
	require.Equal(t, "room-created", messageType)
	var created struct {
		RoomId    string `json:"roomId"`
		InviteRef string `json:"inviteRef"`
	}
	require.NoError(t, json.Unmarshal(payload, &created))
	require.Equal(t, "/room/"+created.RoomId, created.InviteRef)

	state := readRoomState(t, conn)
	require.Equal(t, created.RoomId, state.RoomId)

	return created.RoomId
}

func TestCreateAndJoinRoom(t *testing.T) {
	server, _ := newTestServer(t)

	host := dialWS(t, server, "user1")
	roomId := createRoom(t, host, "alice")

	guest := dialWS(t, server, "user2")
	send(t, guest, "join-room", map[string]any{"roomId": roomId, "displayName": "bob"})

	guestState := readRoomState(t, guest)
	assert.Len(t, guestState.Members, 2)
	assert.Equal(t, "user1", guestState.HostId)

	hostState := readRoomState(t, host)
	assert.Len(t, hostState.Members, 2)
}

func TestJoinMissingRoom(t *testing.T) {
	server, _ := newTestServer(t)

	guest := dialWS(t, server, "user1")
	send(t, guest, "join-room", map[string]any{"roomId": "missing1", "displayName": "bob"})

	messageType, payload := readOutput(t, guest)
	require.Equal(t, "error", messageType)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(payload, &errPayload))
	assert.Equal(t, "ROOM_NOT_FOUND", errPayload.Code)
}

func TestChat(t *testing.T) {
	server, _ := newTestServer(t)

	host := dialWS(t, server, "user1")
	roomId := createRoom(t, host, "alice")

	guest := dialWS(t, server, "user2")
	send(t, guest, "join-room", map[string]any{"roomId": roomId, "displayName": "bob"})
	readRoomState(t, guest)
	readRoomState(t, host)

	send(t, guest, "chat-send", map[string]any{"roomId": roomId, "message": "hi all"})

	for _, conn := range []*websocket.Conn{host, guest} {
		messageType, payload := readOutput(t, conn)
		require.Equal(t, "chat-message", messageType)
		var msg service.ChatMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "bob", msg.DisplayName)
		assert.Equal(t, "hi all", msg.Message)
		assert.NotZero(t, msg.Ts)
	}
}

func TestActionBroadcastOrdering(t *testing.T) {
	server, _ := newTestServer(t)

	host := dialWS(t, server, "user1")
	roomId := createRoom(t, host, "alice")

	guest := dialWS(t, server, "user2")
	send(t, guest, "join-room", map[string]any{"roomId": roomId, "displayName": "bob"})
	readRoomState(t, guest)
	readRoomState(t, host)

	send(t, host, "action-play", map[string]any{"roomId": roomId})

	for _, conn := range []*websocket.Conn{host, guest} {
		messageType, payload := readOutput(t, conn)
		require.Equal(t, "action-broadcast", messageType)
		var action service.ActionBroadcast
		require.NoError(t, json.Unmarshal(payload, &action))
		assert.Equal(t, service.ActionPlay, action.Type)
		assert.Equal(t, uint64(1), action.Seq)
		assert.Equal(t, "user1", action.ActorId)

		state := readRoomState(t, conn)
		assert.True(t, state.Playing)
		assert.Equal(t, action.Seq, state.Seq, "the snapshot follows its action with the same seq")
	}

	send(t, guest, "action-seek", map[string]any{"roomId": roomId, "deltaSeconds": -5.0})

	for _, conn := range []*websocket.Conn{host, guest} {
		messageType, payload := readOutput(t, conn)
		require.Equal(t, "action-broadcast", messageType)
		var action service.ActionBroadcast
		require.NoError(t, json.Unmarshal(payload, &action))
		assert.Equal(t, service.ActionSeek, action.Type)
		require.NotNil(t, action.DeltaSeconds)
		assert.Equal(t, -5.0, *action.DeltaSeconds)

		state := readRoomState(t, conn)
		assert.Equal(t, 0.0, state.ApproxPositionSeconds)
		assert.Equal(t, uint64(2), state.Seq)
	}
}

func TestTransferHostE2E(t *testing.T) {
	server, _ := newTestServer(t)

	host := dialWS(t, server, "user1")
	roomId := createRoom(t, host, "alice")

	guest := dialWS(t, server, "user2")
	send(t, guest, "join-room", map[string]any{"roomId": roomId, "displayName": "bob"})
	readRoomState(t, guest)
	readRoomState(t, host)

	send(t, host, "transfer-host", map[string]any{"roomId": roomId, "newHostUserId": "user2"})

	for _, conn := range []*websocket.Conn{host, guest} {
		messageType, payload := readOutput(t, conn)
		require.Equal(t, "host-changed", messageType)
		var changed HostChangedPayload
		require.NoError(t, json.Unmarshal(payload, &changed))
		assert.Equal(t, "user2", changed.HostId)

		state := readRoomState(t, conn)
		assert.Equal(t, "user2", state.HostId)
	}
}

func TestDisconnectPromotesHostE2E(t *testing.T) {
	server, _ := newTestServer(t)

	host := dialWS(t, server, "user1")
	roomId := createRoom(t, host, "alice")

	guest := dialWS(t, server, "user2")
	send(t, guest, "join-room", map[string]any{"roomId": roomId, "displayName": "bob"})
	readRoomState(t, guest)
	readRoomState(t, host)

	require.NoError(t, host.Close())

	state := readRoomState(t, guest)
	assert.Equal(t, roomId, state.RoomId)
	assert.Len(t, state.Members, 1)
	assert.Equal(t, "user2", state.HostId)
}

func TestBrowserFrameAndCursor(t *testing.T) {
	server, registry := newTestServer(t)

	host := dialWS(t, server, "user1")
	roomId := createRoom(t, host, "alice")

	guest := dialWS(t, server, "user2")
	send(t, guest, "join-room", map[string]any{"roomId": roomId, "displayName": "bob"})
	readRoomState(t, guest)
	readRoomState(t, host)

	// frames arrive as raw binary messages
	frame := []byte{0xff, 0xd8, 0x01, 0x02}
	registry.emitFrame(roomId, frame)

	guest.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, data, err := guest.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	assert.Equal(t, frame, data)

	// pointer moves become volatile cursor events for the other members
	send(t, host, "browser-input", map[string]any{
		"roomId": roomId,
		"type":   "mousemove",
		"x":      120.0,
		"y":      80.0,
	})

	outputType, payload := readOutput(t, guest)
	require.Equal(t, "browser-cursor", outputType)
	var cursor service.BrowserCursor
	require.NoError(t, json.Unmarshal(payload, &cursor))
	assert.Equal(t, 120.0, cursor.X)
	assert.Equal(t, "user1", cursor.UserId)

	registry.mu.Lock()
	defer registry.mu.Unlock()
	require.Len(t, registry.inputs, 1)
	assert.Equal(t, browser.InputMouseMove, registry.inputs[0].Type)
}
