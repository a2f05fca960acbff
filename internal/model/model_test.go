package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		in      string
		want    MediaKind
		wantErr bool
	}{
		{"IMAGE", KindImage, false},
		{"video", KindVideo, false},
		{" Web ", KindWeb, false},
		{"AUDIO", KindUnknown, true},
		{"", KindUnknown, true},
	}
	for _, tc := range tests {
		got, err := ParseMediaKind(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.wantErr, err != nil, tc.in)
	}
}

func TestMediaItem_UnknownKindDecodesButDoesNotEncode(t *testing.T) {
	var m MediaItem
	require.NoError(t, json.Unmarshal([]byte(`{"type":"HOLOGRAM","url":"u","name":"n","duration":3}`), &m))
	assert.Equal(t, KindUnknown, m.Kind)
	assert.Equal(t, 3, m.Duration)

	_, err := json.Marshal(m)
	assert.Error(t, err)

	m.Kind = KindVideo
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"VIDEO","url":"u","name":"n","duration":3}`, string(b))
}

func TestAppState_Lookups(t *testing.T) {
	override := "p2"
	s := AppState{
		MediaLibrary: []MediaItem{{ID: "m1", Kind: KindImage}},
		Playlists:    []Playlist{{ID: "p1"}, {ID: "p2"}},
		Devices: []ScreenDevice{
			{ID: "d1", AssignedPlaylistID: &override},
			{ID: "d2"},
		},
	}

	_, ok := s.Media("m1")
	assert.True(t, ok)
	_, ok = s.Media("m2")
	assert.False(t, ok)

	p, ok := s.Playlist("p2")
	assert.True(t, ok)
	assert.Equal(t, "p2", p.ID)

	d, ok := s.Device("d1")
	require.True(t, ok)
	id, ok := d.Override()
	assert.True(t, ok)
	assert.Equal(t, "p2", id)

	d, _ = s.Device("d2")
	_, ok = d.Override()
	assert.False(t, ok)

	empty := ""
	_, ok = ScreenDevice{AssignedPlaylistID: &empty}.Override()
	assert.False(t, ok)
}

func TestPlaylist_SameItems(t *testing.T) {
	a := Playlist{Items: []PlaylistItem{{MediaID: "m1", Duration: 5}}}
	b := Playlist{Name: "renamed", Items: []PlaylistItem{{MediaID: "m1", Duration: 5}}}
	c := Playlist{Items: []PlaylistItem{{MediaID: "m1", Duration: 6}}}
	assert.True(t, a.SameItems(b))
	assert.False(t, a.SameItems(c))
}
