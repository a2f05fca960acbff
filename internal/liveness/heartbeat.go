// Package liveness keeps device records fresh and classifies them for display.
package liveness

import (
	"context"
	"time"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

// DevicePatcher merge-writes device fields, creating the record when absent.
type DevicePatcher interface {
	PatchDevice(ctx context.Context, id string, fields map[string]any) error
}

// Heartbeat registers a player's device record and marks it online.
type Heartbeat struct {
	DeviceID string
	// Name and Location are only written when the record is created; an
	// admin rename is never overwritten.
	Name     string
	Location string

	Store DevicePatcher
}

// Beat runs one heartbeat against the devices in the latest snapshot. It
// reports whether the record had to be created.
func (h *Heartbeat) Beat(ctx context.Context, devices []model.ScreenDevice, now time.Time) (bool, error) {
	lastPing := now.UnixMilli()

	for _, d := range devices {
		if d.ID == h.DeviceID {
			return false, h.Store.PatchDevice(ctx, h.DeviceID, map[string]any{
				"status":   model.StatusOnline,
				"lastPing": lastPing,
			})
		}
	}

	// Creation is a merge as well, so a record that appeared since the
	// snapshot was taken keeps any fields it already had beyond these.
	return true, h.Store.PatchDevice(ctx, h.DeviceID, map[string]any{
		"name":               h.Name,
		"location":           h.Location,
		"status":             model.StatusOnline,
		"assignedPlaylistId": nil,
		"lastPing":           lastPing,
	})
}
