package controller

import (
	"context"

	"github.com/netmirror/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw())
	mux.Use(c.loggerWSMw())

	mux.OnError = func(ctx context.Context, err error) {
		c.logger.DebugContext(ctx, "failed to handle message", "error", err)
	}

	// room
	wsrouter.Handle(mux, "create-room", c.handleCreateRoom)
	wsrouter.Handle(mux, "join-room", c.handleJoinRoom)

	// chat
	wsrouter.Handle(mux, "chat-send", c.handleChatSend)

	// player
	wsrouter.Handle(mux, "action-play", c.handleActionPlay)
	wsrouter.Handle(mux, "action-pause", c.handleActionPause)
	wsrouter.Handle(mux, "action-seek", c.handleActionSeek)
	wsrouter.Handle(mux, "video-change", c.handleVideoChange)

	// member
	wsrouter.Handle(mux, "transfer-host", c.handleTransferHost)

	// browser
	wsrouter.Handle(mux, "browser-input", c.handleBrowserInput)
	wsrouter.Handle(mux, "browser-navigate", c.handleBrowserNavigate)

	return mux
}
