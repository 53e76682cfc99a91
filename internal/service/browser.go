package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/netmirror/server/internal/browser"
	"github.com/netmirror/server/internal/repository/room"
	"github.com/netmirror/server/pkg/wsconn"
)

type BrowserInputParams struct {
	SenderId string
	RoomId   string
	Event    browser.InputEvent
}

type BrowserInputResponse struct {
	// Cursor is set for pointer moves; the gateway relays it volatile to
	// the other members for live-cursor visualization.
	Cursor *BrowserCursor
	Conns  []*wsconn.Conn
}

// BrowserInput forwards the event to the room's browser session. Room state is
// read only to resolve the cursor fan-out; nothing is mutated.
func (s *service) BrowserInput(ctx context.Context, params *BrowserInputParams) (BrowserInputResponse, error) {
	snapshot, err := s.roomRepo.Get(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return BrowserInputResponse{}, ErrRoomNotFound
		}
		return BrowserInputResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	s.browser.DispatchInput(ctx, params.RoomId, params.Event)

	if params.Event.Type != browser.InputMouseMove {
		return BrowserInputResponse{}, nil
	}

	return BrowserInputResponse{
		Cursor: &BrowserCursor{
			X:      params.Event.X,
			Y:      params.Event.Y,
			UserId: params.SenderId,
		},
		Conns: s.getConns(ctx, snapshot.Members, params.SenderId),
	}, nil
}

type BrowserNavigateParams struct {
	SenderId string
	RoomId   string
	Url      string
}

func (s *service) BrowserNavigate(ctx context.Context, params *BrowserNavigateParams) error {
	if _, err := s.roomRepo.Get(ctx, params.RoomId); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	s.browser.Navigate(ctx, params.RoomId, params.Url)
	return nil
}

// relayBrowserFrame fans a produced frame out to every member of the room it
// belongs to. Delivery is volatile: a saturated subscriber loses the frame.
func (s *service) relayBrowserFrame(roomId string, data []byte) {
	ctx := context.Background()

	snapshot, err := s.roomRepo.Get(ctx, roomId)
	if err != nil {
		return
	}

	for _, conn := range s.getConns(ctx, snapshot.Members, "") {
		if conn.SendVolatileBinary(data) {
			metricFramesRelayed.Inc()
		} else {
			metricFramesDropped.Inc()
		}
	}
}
