package model

import "slices"

type PlaylistItem struct {
	MediaID  string `json:"mediaId"`
	Duration int    `json:"duration"`
}

// Schedule is a weekly window. Days use time.Weekday numbering (0 = Sunday);
// StartTime and EndTime are zero-padded "HH:MM" in the player's local clock.
type Schedule struct {
	Days      []int  `json:"days"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Active    bool   `json:"active"`
}

type Playlist struct {
	ID          string         `json:"-"`
	Name        string         `json:"name"`
	Items       []PlaylistItem `json:"items"`
	Orientation Orientation    `json:"orientation"`
	Schedule    Schedule       `json:"schedule"`
}

// SameItems reports whether both playlists carry the same ordered item list.
func (p Playlist) SameItems(other Playlist) bool {
	return slices.Equal(p.Items, other.Items)
}
