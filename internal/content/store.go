// Package content gives the three gateway collections their types. Admin
// writes are validated here before they reach the store, and Watch folds the
// three collection feeds into AppState snapshots.
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/schedule"
)

const (
	DefaultDeviceName     = "New Screen"
	DefaultDeviceLocation = "Unassigned"
)

type Store struct {
	gw gateway.Gateway
}

func NewStore(gw gateway.Gateway) *Store {
	return &Store{gw: gw}
}

// NewID returns a time-ordered identifier, so id order matches creation order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SaveMedia stores m, assigning an id when it has none.
func (s *Store) SaveMedia(ctx context.Context, m model.MediaItem) (model.MediaItem, error) {
	if err := ValidateMedia(m); err != nil {
		return model.MediaItem{}, err
	}
	if m.ID == "" {
		m.ID = NewID()
	}
	if err := s.put(ctx, gateway.MediaLibrary, m.ID, m); err != nil {
		return model.MediaItem{}, err
	}
	return m, nil
}

// RemoveMedia deletes the item. Playlists referencing it are left alone.
func (s *Store) RemoveMedia(ctx context.Context, id string) error {
	return s.delete(ctx, gateway.MediaLibrary, id)
}

// SavePlaylist replaces the stored playlist wholesale.
func (s *Store) SavePlaylist(ctx context.Context, p model.Playlist) (model.Playlist, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := ValidatePlaylist(p); err != nil {
		return model.Playlist{}, err
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Schedule.Days == nil {
		p.Schedule.Days = []int{}
	}
	if schedule.Overnight(p.Schedule) {
		log.Warn().Str("playlist", p.ID).Str("start", p.Schedule.StartTime).Str("end", p.Schedule.EndTime).
			Msg("Schedule window wraps past midnight and will never match")
	}
	if err := s.put(ctx, gateway.Playlists, p.ID, p); err != nil {
		return model.Playlist{}, err
	}
	return p, nil
}

func (s *Store) RemovePlaylist(ctx context.Context, id string) error {
	return s.delete(ctx, gateway.Playlists, id)
}

// CreateDevice registers a screen ahead of its first heartbeat.
func (s *Store) CreateDevice(ctx context.Context, name, location string) (model.ScreenDevice, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ScreenDevice{}, invalid("name", "device name is required")
	}
	if strings.TrimSpace(location) == "" {
		location = DefaultDeviceLocation
	}
	d := model.ScreenDevice{
		ID:       NewID(),
		Name:     name,
		Location: location,
		Status:   model.StatusOffline,
	}
	if err := s.put(ctx, gateway.Devices, d.ID, d); err != nil {
		return model.ScreenDevice{}, err
	}
	return d, nil
}

// UpdateDevice renames or relocates a screen. Nil arguments are left as
// stored.
func (s *Store) UpdateDevice(ctx context.Context, id string, name, location *string) error {
	fields := map[string]any{}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return invalid("name", "device name cannot be empty")
		}
		fields["name"] = strings.TrimSpace(*name)
	}
	if location != nil {
		fields["location"] = *location
	}
	if len(fields) == 0 {
		return nil
	}
	return s.PatchDevice(ctx, id, fields)
}

// AssignPlaylist sets the device's manual override. A nil playlistID clears
// it and hands the screen back to the weekly schedule.
func (s *Store) AssignPlaylist(ctx context.Context, deviceID string, playlistID *string) error {
	if playlistID != nil && *playlistID == "" {
		playlistID = nil
	}
	return s.PatchDevice(ctx, deviceID, map[string]any{"assignedPlaylistId": playlistID})
}

// PatchDevice merges fields into the device record, creating it when absent.
func (s *Store) PatchDevice(ctx context.Context, id string, fields map[string]any) error {
	if err := s.gw.Patch(ctx, gateway.Devices, id, fields); err != nil {
		log.Error().Err(err).Str("collection", string(gateway.Devices)).Str("id", id).Msg("Failed to patch document")
		return fmt.Errorf("patch device %s: %w", id, err)
	}
	return nil
}

func (s *Store) RemoveDevice(ctx context.Context, id string) error {
	return s.delete(ctx, gateway.Devices, id)
}

func (s *Store) put(ctx context.Context, c gateway.Collection, id string, record any) error {
	if err := s.gw.Put(ctx, c, id, record); err != nil {
		log.Error().Err(err).Str("collection", string(c)).Str("id", id).Msg("Failed to put document")
		return fmt.Errorf("put %s %s: %w", c, id, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, c gateway.Collection, id string) error {
	if err := s.gw.Delete(ctx, c, id); err != nil {
		log.Error().Err(err).Str("collection", string(c)).Str("id", id).Msg("Failed to delete document")
		return fmt.Errorf("delete %s %s: %w", c, id, err)
	}
	return nil
}
