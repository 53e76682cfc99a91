package room

type CreateParams struct {
	RoomId string
	HostId string
}

type AddMemberParams struct {
	RoomId      string
	MemberId    string
	DisplayName string
}

type RemoveMemberParams struct {
	RoomId   string
	MemberId string
}

type TransferHostParams struct {
	RoomId    string
	NewHostId string
}

// ApplyUpdateParams carries a partial update; nil fields are left untouched.
type ApplyUpdateParams struct {
	RoomId                string
	Playing               *bool
	ApproxPositionSeconds *float64
	HostId                *string
	SessionTitle          *string
	CurrentVideoUrl       *string
}
