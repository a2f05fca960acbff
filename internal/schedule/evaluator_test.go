package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

// 2024-01-01 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, time.January, 1, hour, minute, 0, 0, time.UTC)
}

func weekdayPlaylist(id string) model.Playlist {
	return model.Playlist{
		ID:    id,
		Name:  "Weekdays " + id,
		Items: []model.PlaylistItem{{MediaID: "m1", Duration: 10}},
		Schedule: model.Schedule{
			Days:      []int{1, 2, 3, 4, 5},
			StartTime: "09:00",
			EndTime:   "18:00",
			Active:    true,
		},
	}
}

func strPtr(s string) *string { return &s }

func TestSelectPlaylist_WeekdayWindow(t *testing.T) {
	playlists := []model.Playlist{weekdayPlaylist("p")}

	got, src := SelectPlaylist(monday(10, 0), playlists, nil)
	require.NotNil(t, got)
	assert.Equal(t, "p", got.ID)
	assert.Equal(t, SourceSchedule, src)

	got, src = SelectPlaylist(monday(20, 0), playlists, nil)
	assert.Nil(t, got)
	assert.Equal(t, SourceNone, src)
}

func TestSelectPlaylist_OverrideIgnoresInactiveSchedule(t *testing.T) {
	p := weekdayPlaylist("p")
	p.Schedule.Active = false
	device := &model.ScreenDevice{ID: "d", AssignedPlaylistID: strPtr("p")}

	instants := []time.Time{
		monday(3, 0),
		monday(10, 0),
		monday(23, 59),
		monday(12, 0).AddDate(0, 0, 5), // Saturday
	}
	for _, now := range instants {
		got, src := SelectPlaylist(now, []model.Playlist{p}, device)
		require.NotNil(t, got, now)
		assert.Equal(t, "p", got.ID)
		assert.Equal(t, SourceOverride, src)
	}
}

func TestSelectPlaylist_DanglingOverrideFallsThrough(t *testing.T) {
	playlists := []model.Playlist{weekdayPlaylist("p")}
	device := &model.ScreenDevice{ID: "d", AssignedPlaylistID: strPtr("deleted")}

	got, src := SelectPlaylist(monday(10, 0), playlists, device)
	require.NotNil(t, got)
	assert.Equal(t, "p", got.ID)
	assert.Equal(t, SourceSchedule, src)

	got, _ = SelectPlaylist(monday(20, 0), playlists, device)
	assert.Nil(t, got)
}

func TestSelectPlaylist_EmptyOverrideIsNoOverride(t *testing.T) {
	device := &model.ScreenDevice{ID: "d", AssignedPlaylistID: strPtr("")}
	got, src := SelectPlaylist(monday(10, 0), []model.Playlist{weekdayPlaylist("p")}, device)
	require.NotNil(t, got)
	assert.Equal(t, SourceSchedule, src)
}

func TestSelectPlaylist_FirstMatchWins(t *testing.T) {
	playlists := []model.Playlist{weekdayPlaylist("a"), weekdayPlaylist("b")}

	got, _ := SelectPlaylist(monday(12, 0), playlists, nil)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	got, _ = SelectPlaylist(monday(12, 0), []model.Playlist{playlists[1], playlists[0]}, nil)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)
}

func TestActive_Boundaries(t *testing.T) {
	s := weekdayPlaylist("p").Schedule

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"start inclusive", monday(9, 0), true},
		{"end inclusive", monday(18, 0), true},
		{"last second of end minute", monday(18, 0).Add(59 * time.Second), true},
		{"minute before start", monday(8, 59), false},
		{"minute after end", monday(18, 1), false},
		{"sunday excluded", monday(12, 0).AddDate(0, 0, -1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Active(s, tt.now))
		})
	}
}

func TestActive_InactiveNeverMatches(t *testing.T) {
	s := weekdayPlaylist("p").Schedule
	s.Active = false
	assert.False(t, Active(s, monday(12, 0)))
}

func TestActive_OvernightWindowNeverMatches(t *testing.T) {
	s := model.Schedule{Days: []int{0, 1, 2, 3, 4, 5, 6}, StartTime: "22:00", EndTime: "02:00", Active: true}
	require.True(t, Overnight(s))

	for hour := 0; hour < 24; hour++ {
		assert.False(t, Active(s, monday(hour, 30)), "hour %d", hour)
	}
}

func TestActive_UsesLocalWallClock(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)
	s := weekdayPlaylist("p").Schedule

	// 03:00 UTC Monday is 10:00 Monday in Bangkok.
	utc := monday(3, 0)
	assert.False(t, Active(s, utc))
	assert.True(t, Active(s, utc.In(bangkok)))
}

func TestSelectPlaylist_Idempotent(t *testing.T) {
	playlists := []model.Playlist{weekdayPlaylist("a"), weekdayPlaylist("b")}
	device := &model.ScreenDevice{ID: "d"}
	now := monday(11, 11)

	first, firstSrc := SelectPlaylist(now, playlists, device)
	second, secondSrc := SelectPlaylist(now, playlists, device)
	assert.Equal(t, first, second)
	assert.Equal(t, firstSrc, secondSrc)
}

func TestSelectPlaylist_SelectionSatisfiesWindow(t *testing.T) {
	playlists := []model.Playlist{
		weekdayPlaylist("work"),
		{
			ID: "weekend",
			Schedule: model.Schedule{
				Days: []int{0, 6}, StartTime: "00:00", EndTime: "23:59", Active: true,
			},
		},
		{
			ID: "evening",
			Schedule: model.Schedule{
				Days: []int{0, 1, 2, 3, 4, 5, 6}, StartTime: "18:30", EndTime: "21:00", Active: true,
			},
		},
	}

	start := monday(0, 0)
	for now := start; now.Before(start.AddDate(0, 0, 7)); now = now.Add(17 * time.Minute) {
		got, src := SelectPlaylist(now, playlists, nil)
		if got == nil {
			assert.Equal(t, SourceNone, src)
			for _, p := range playlists {
				assert.False(t, Active(p.Schedule, now), "%s should not be active at %s", p.ID, now)
			}
			continue
		}
		assert.Equal(t, SourceSchedule, src)
		assert.True(t, got.Schedule.Active)
		assert.Contains(t, got.Schedule.Days, int(now.Weekday()))
		assert.LessOrEqual(t, got.Schedule.StartTime, ClockTime(now))
		assert.GreaterOrEqual(t, got.Schedule.EndTime, ClockTime(now))
	}
}

func TestValidTime(t *testing.T) {
	valid := []string{"00:00", "09:05", "23:59", "12:30"}
	invalid := []string{"", "9:05", "24:00", "12:60", "12-30", "ab:cd", "12:3", "012:30"}

	for _, s := range valid {
		assert.True(t, ValidTime(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidTime(s), s)
	}
}
