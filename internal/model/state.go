package model

// AppState is one consistent-enough view of the three collections. It is
// treated as immutable once delivered; a newer AppState supersedes it.
type AppState struct {
	MediaLibrary []MediaItem
	Playlists    []Playlist
	Devices      []ScreenDevice
}

func (s AppState) Media(id string) (MediaItem, bool) {
	for _, m := range s.MediaLibrary {
		if m.ID == id {
			return m, true
		}
	}
	return MediaItem{}, false
}

func (s AppState) Playlist(id string) (Playlist, bool) {
	for _, p := range s.Playlists {
		if p.ID == id {
			return p, true
		}
	}
	return Playlist{}, false
}

func (s AppState) Device(id string) (ScreenDevice, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return ScreenDevice{}, false
}
