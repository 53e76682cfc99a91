package service

import (
	"context"

	"github.com/netmirror/server/internal/repository/room"
	"github.com/netmirror/server/pkg/wsconn"
)

func roomFromRepo(r room.Room) Room {
	members := make([]Member, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, Member{
			Id:          m.Id,
			DisplayName: m.DisplayName,
			IsHost:      m.IsHost,
		})
	}

	return Room{
		RoomId:                r.Id,
		HostId:                r.HostId,
		Members:               members,
		Playing:               r.Playing,
		ApproxPositionSeconds: r.ApproxPositionSeconds,
		UpdatedAt:             r.UpdatedAt,
		Seq:                   r.Seq,
		SessionTitle:          r.SessionTitle,
		CurrentVideoUrl:       r.CurrentVideoUrl,
	}
}

// getConns resolves member connections, skipping members whose connection is
// already gone; a departing member must not block a broadcast to the rest.
func (s *service) getConns(ctx context.Context, members []room.Member, excludeId string) []*wsconn.Conn {
	conns := make([]*wsconn.Conn, 0, len(members))
	for _, m := range members {
		if m.Id == excludeId {
			continue
		}

		conn, err := s.connRepo.GetConn(m.Id)
		if err != nil {
			s.logger.DebugContext(ctx, "no connection for member", "member_id", m.Id)
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}

func hasMemberId(members []room.Member, memberId string) bool {
	for _, m := range members {
		if m.Id == memberId {
			return true
		}
	}

	return false
}
