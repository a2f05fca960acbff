package packets

import (
	"strings"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

// REQUESTS FOR /api/admin/media

type SaveMediaRequest struct {
	Type        string `json:"type" binding:"required"`
	URL         string `json:"url" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Duration    int    `json:"duration"`
	Thumbnail   string `json:"thumbnail"`
	Orientation string `json:"orientation"`
}

// ToModel builds the media item; an unrecognised type is left as
// KindUnknown for validation to reject.
func (r SaveMediaRequest) ToModel(id string) model.MediaItem {
	kind, _ := model.ParseMediaKind(strings.TrimSpace(r.Type))
	return model.MediaItem{
		ID:          id,
		Kind:        kind,
		URL:         strings.TrimSpace(r.URL),
		Name:        strings.TrimSpace(r.Name),
		Duration:    r.Duration,
		Thumbnail:   r.Thumbnail,
		Orientation: model.Orientation(r.Orientation),
	}
}

// REQUESTS FOR /api/admin/playlists

type PlaylistItemRequest struct {
	MediaID  string `json:"mediaId" binding:"required"`
	Duration int    `json:"duration"`
}

type ScheduleRequest struct {
	Days      []int  `json:"days"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Active    bool   `json:"active"`
}

type SavePlaylistRequest struct {
	Name        string                `json:"name" binding:"required"`
	Items       []PlaylistItemRequest `json:"items" binding:"required,dive"`
	Orientation string                `json:"orientation"`
	Schedule    ScheduleRequest       `json:"schedule"`
}

func (r SavePlaylistRequest) ToModel(id string) model.Playlist {
	items := make([]model.PlaylistItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = model.PlaylistItem{MediaID: it.MediaID, Duration: it.Duration}
	}
	return model.Playlist{
		ID:          id,
		Name:        r.Name,
		Items:       items,
		Orientation: model.Orientation(r.Orientation),
		Schedule: model.Schedule{
			Days:      r.Schedule.Days,
			StartTime: r.Schedule.StartTime,
			EndTime:   r.Schedule.EndTime,
			Active:    r.Schedule.Active,
		},
	}
}

// REQUESTS FOR /api/admin/devices

type CreateDeviceRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

type UpdateDeviceRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

// AssignPlaylistRequest sets the manual override; null or "" clears it.
type AssignPlaylistRequest struct {
	PlaylistID *string `json:"playlistId"`
}

type CommandRequest struct {
	Type    string `json:"type" binding:"required"`
	MediaID string `json:"mediaId"`
	Cue     uint64 `json:"cue"`
}
