package packets

// REQUESTS FOR /api/tv/devices/:id/heartbeat

// HeartbeatRequest names the screen when the heartbeat has to create its
// record. Both fields are optional.
type HeartbeatRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}
