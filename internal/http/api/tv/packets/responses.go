package packets

import "github.com/Nixie-Tech-LLC/signton/internal/schedule"

// RESPONSES FOR /api/tv/devices/:id/*

// NowItem is a playlist entry resolved against the media library.
type NowItem struct {
	Index     int    `json:"index"`
	MediaID   string `json:"mediaId"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
	// Duration is in seconds. Untimed items (video) advance when playback
	// ends and report 0.
	Duration int  `json:"duration"`
	Timed    bool `json:"timed"`
}

type NowPlaylist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Orientation string    `json:"orientation,omitempty"`
	Items       []NowItem `json:"items"`
}

// NowResponse is what a browser player should be showing. Playlist is null
// when nothing is due.
type NowResponse struct {
	DeviceID string          `json:"deviceId"`
	Source   schedule.Source `json:"source"`
	Playlist *NowPlaylist    `json:"playlist"`
}

type HeartbeatResponse struct {
	Created  bool  `json:"created"`
	LastPing int64 `json:"lastPing"`
}
