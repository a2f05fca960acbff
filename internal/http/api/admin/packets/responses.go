package packets

import (
	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/schedule"
)

type MediaResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Duration    int    `json:"duration"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Orientation string `json:"orientation,omitempty"`
}

func NewMediaResponse(m model.MediaItem) MediaResponse {
	return MediaResponse{
		ID:          m.ID,
		Type:        m.Kind.String(),
		URL:         m.URL,
		Name:        m.Name,
		Duration:    m.Duration,
		Thumbnail:   m.Thumbnail,
		Orientation: string(m.Orientation),
	}
}

type PlaylistResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Items       []model.PlaylistItem `json:"items"`
	Orientation string               `json:"orientation"`
	Schedule    model.Schedule       `json:"schedule"`
}

func NewPlaylistResponse(p model.Playlist) PlaylistResponse {
	items := p.Items
	if items == nil {
		items = []model.PlaylistItem{}
	}
	return PlaylistResponse{
		ID:          p.ID,
		Name:        p.Name,
		Items:       items,
		Orientation: string(p.Orientation),
		Schedule:    p.Schedule,
	}
}

type DeviceResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Location           string  `json:"location"`
	Status             string  `json:"status"`
	AssignedPlaylistID *string `json:"assignedPlaylistId"`
	LastPing           int64   `json:"lastPing"`
}

func NewDeviceResponse(d model.ScreenDevice) DeviceResponse {
	return DeviceResponse{
		ID:                 d.ID,
		Name:               d.Name,
		Location:           d.Location,
		Status:             string(d.Status),
		AssignedPlaylistID: d.AssignedPlaylistID,
		LastPing:           d.LastPing,
	}
}

// RESPONSES FOR /api/admin/dashboard and /api/admin/stream

type NowPlaying struct {
	PlaylistID string          `json:"playlistId"`
	Name       string          `json:"name"`
	Source     schedule.Source `json:"source"`
}

type DashboardDevice struct {
	DeviceResponse
	NowPlaying *NowPlaying `json:"nowPlaying"`
}

type DashboardResponse struct {
	Devices     []DashboardDevice `json:"devices"`
	Online      int               `json:"online"`
	Total       int               `json:"total"`
	Playlists   int               `json:"playlists"`
	Media       int               `json:"media"`
	GeneratedAt int64             `json:"generatedAt"`
}

type CommandResponse struct {
	Sent int `json:"sent"`
}
