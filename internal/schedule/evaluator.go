// Package schedule decides which playlist a screen should be showing.
//
// Selection is a pure function of the wall-clock instant, the playlist
// collection and the device record. A manual override on the device always
// wins; otherwise the first active playlist whose weekly window contains the
// instant is chosen. Windows compare "HH:MM" strings lexicographically, so a
// window whose start is later than its end (22:00-02:00) never matches.
package schedule

import (
	"slices"
	"time"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

// Source tells callers why a playlist was chosen.
type Source string

const (
	SourceNone     Source = "none"
	SourceOverride Source = "override"
	SourceSchedule Source = "schedule"
)

// ClockTime renders the wall-clock hour and minute of now as "HH:MM".
func ClockTime(now time.Time) string {
	return now.Format("15:04")
}

// Active reports whether s covers now. Both ends are inclusive.
func Active(s model.Schedule, now time.Time) bool {
	if !s.Active {
		return false
	}
	if !slices.Contains(s.Days, int(now.Weekday())) {
		return false
	}
	current := ClockTime(now)
	return s.StartTime <= current && current <= s.EndTime
}

// SelectPlaylist returns the playlist due at now for device, or nil when the
// screen should idle. device may be nil for a screen that has not registered
// yet. The returned pointer aliases an element of playlists.
func SelectPlaylist(now time.Time, playlists []model.Playlist, device *model.ScreenDevice) (*model.Playlist, Source) {
	if device != nil {
		if id, ok := device.Override(); ok {
			for i := range playlists {
				if playlists[i].ID == id {
					return &playlists[i], SourceOverride
				}
			}
			// deleted override target: fall back to the weekly schedule
		}
	}

	for i := range playlists {
		if Active(playlists[i].Schedule, now) {
			return &playlists[i], SourceSchedule
		}
	}
	return nil, SourceNone
}
