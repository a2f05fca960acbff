package model

type DeviceStatus string

const (
	StatusOnline  DeviceStatus = "online"
	StatusOffline DeviceStatus = "offline"
)

// ScreenDevice represents a display device in the system.
type ScreenDevice struct {
	ID                 string       `json:"-"`
	Name               string       `json:"name"`
	Location           string       `json:"location"`
	Status             DeviceStatus `json:"status"`
	AssignedPlaylistID *string      `json:"assignedPlaylistId"`
	LastPing           int64        `json:"lastPing"`
}

// Override returns the manually assigned playlist id, if any.
func (d ScreenDevice) Override() (string, bool) {
	if d.AssignedPlaylistID == nil || *d.AssignedPlaylistID == "" {
		return "", false
	}
	return *d.AssignedPlaylistID, true
}
