package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

// Watch subscribes to all three collections and emits an AppState once each
// has delivered its first snapshot, then again after every change. A slow
// reader only ever sees the newest state. The channel closes when ctx ends.
func (s *Store) Watch(ctx context.Context) (<-chan model.AppState, error) {
	ctx, cancel := context.WithCancel(ctx)

	media, err := s.gw.Subscribe(ctx, gateway.MediaLibrary)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", gateway.MediaLibrary, err)
	}
	playlists, err := s.gw.Subscribe(ctx, gateway.Playlists)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", gateway.Playlists, err)
	}
	devices, err := s.gw.Subscribe(ctx, gateway.Devices)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", gateway.Devices, err)
	}

	out := make(chan model.AppState, 1)
	go func() {
		defer cancel()
		defer close(out)

		var (
			state model.AppState
			seen  = map[gateway.Collection]bool{}
		)
		for {
			var snap gateway.Snapshot
			var ok bool
			select {
			case <-ctx.Done():
				return
			case snap, ok = <-media:
			case snap, ok = <-playlists:
			case snap, ok = <-devices:
			}
			if !ok {
				return
			}

			// each snapshot replaces its slice wholesale; the previous
			// AppState keeps referencing the old slices
			switch snap.Collection {
			case gateway.MediaLibrary:
				state.MediaLibrary = DecodeMedia(snap.Documents)
			case gateway.Playlists:
				state.Playlists = DecodePlaylists(snap.Documents)
			case gateway.Devices:
				state.Devices = DecodeDevices(snap.Documents)
			}
			seen[snap.Collection] = true
			if len(seen) < len(gateway.Collections) {
				continue
			}

			select {
			case <-out:
			default:
			}
			out <- state
		}
	}()
	return out, nil
}

func DecodeMedia(docs []gateway.Document) []model.MediaItem {
	items := make([]model.MediaItem, 0, len(docs))
	for _, d := range docs {
		var m model.MediaItem
		if !decode(gateway.MediaLibrary, d, &m) {
			continue
		}
		m.ID = d.ID
		items = append(items, m)
	}
	return items
}

func DecodePlaylists(docs []gateway.Document) []model.Playlist {
	playlists := make([]model.Playlist, 0, len(docs))
	for _, d := range docs {
		var p model.Playlist
		if !decode(gateway.Playlists, d, &p) {
			continue
		}
		p.ID = d.ID
		playlists = append(playlists, p)
	}
	return playlists
}

func DecodeDevices(docs []gateway.Document) []model.ScreenDevice {
	devices := make([]model.ScreenDevice, 0, len(docs))
	for _, d := range docs {
		var dev model.ScreenDevice
		if !decode(gateway.Devices, d, &dev) {
			continue
		}
		dev.ID = d.ID
		devices = append(devices, dev)
	}
	return devices
}

func decode(c gateway.Collection, d gateway.Document, v any) bool {
	if err := json.Unmarshal(d.Data, v); err != nil {
		log.Warn().Err(err).Str("collection", string(c)).Str("id", d.ID).Msg("Skipping undecodable document")
		return false
	}
	return true
}
