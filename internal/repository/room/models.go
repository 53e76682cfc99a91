package room

type Member struct {
	Id          string
	DisplayName string
	IsHost      bool
}

// Room is a snapshot of a room's state. Repositories return copies; callers
// never observe a partially updated room.
type Room struct {
	Id                    string
	HostId                string
	Members               []Member
	Playing               bool
	ApproxPositionSeconds float64
	UpdatedAt             int64
	Seq                   uint64
	SessionTitle          string
	CurrentVideoUrl       string
}
