package service

const (
	ActionPlay  = "PLAY"
	ActionPause = "PAUSE"
	ActionSeek  = "SEEK"
)

type Member struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
}

type Room struct {
	RoomId                string   `json:"roomId"`
	HostId                string   `json:"hostId"`
	Members               []Member `json:"members"`
	Playing               bool     `json:"playing"`
	ApproxPositionSeconds float64  `json:"approxPositionSeconds"`
	UpdatedAt             int64    `json:"updatedAt"`
	Seq                   uint64   `json:"seq"`
	SessionTitle          string   `json:"sessionTitle,omitempty"`
	CurrentVideoUrl       string   `json:"currentVideoUrl,omitempty"`
}

type ChatMessage struct {
	RoomId      string `json:"roomId"`
	UserId      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Message     string `json:"message"`
	Ts          int64  `json:"ts"`
}

type ActionBroadcast struct {
	RoomId       string   `json:"roomId"`
	Type         string   `json:"type"`
	DeltaSeconds *float64 `json:"deltaSeconds,omitempty"`
	UpdatedAt    int64    `json:"updatedAt"`
	Seq          uint64   `json:"seq"`
	ActorId      string   `json:"actorId"`
}

type BrowserCursor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserId string  `json:"userId"`
}
