package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/netmirror/server/internal/service"
	"github.com/netmirror/server/pkg/ctxlogger"
	"github.com/netmirror/server/pkg/wsconn"
)

// serveWS upgrades the request and serves the connection until it drops. The
// client may supply a stable user-id query param to keep its identity across
// reconnects; otherwise one is minted.
func (c *controller) serveWS(w http.ResponseWriter, r *http.Request) {
	memberId := r.URL.Query().Get("user-id")
	if memberId == "" {
		memberId = uuid.NewString()
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	conn := wsconn.New(ws)
	defer conn.Close()

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("member_id", memberId))
	ctx = context.WithValue(ctx, memberIdCtxKey, memberId)

	if err := c.roomService.Connect(ctx, &service.ConnectParams{
		Conn:     conn,
		MemberId: memberId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		return
	}
	defer c.disconnect(ctx, memberId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

func (c *controller) disconnect(ctx context.Context, memberId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	disconnectResp, err := c.roomService.Disconnect(ctx, &service.DisconnectParams{
		SenderId: memberId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if disconnectResp.RoomId == "" || disconnectResp.IsRoomDeleted {
		return
	}

	if err := c.broadcast(ctx, disconnectResp.Conns, &Output{
		Type:    "room-state",
		Payload: disconnectResp.Room,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to broadcast room state", "error", err)
	}
}
