package content

import (
	"fmt"
	"strings"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/playback"
	"github.com/Nixie-Tech-LLC/signton/internal/schedule"
)

// ValidationError reports input rejected before anything was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func ValidateMedia(m model.MediaItem) error {
	if strings.TrimSpace(m.Name) == "" {
		return invalid("name", "media name is required")
	}
	if strings.TrimSpace(m.URL) == "" {
		return invalid("url", "media url is required")
	}
	if m.Kind == model.KindUnknown {
		return invalid("type", "media type must be IMAGE, VIDEO or WEB")
	}
	if m.Duration < 0 {
		return invalid("duration", "duration cannot be negative")
	}
	if m.Duration > playback.MaxDurationSeconds {
		return invalid("duration", "duration cannot exceed %d seconds", playback.MaxDurationSeconds)
	}
	switch m.Orientation {
	case "", model.Landscape, model.Portrait:
	default:
		return invalid("orientation", "unknown orientation %q", m.Orientation)
	}
	return nil
}

// ValidatePlaylist checks a playlist before it replaces the stored one.
// Windows that wrap past midnight are accepted; they never match.
func ValidatePlaylist(p model.Playlist) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "playlist name is required")
	}
	if len(p.Items) == 0 {
		return invalid("items", "playlist needs at least one item")
	}
	for i, item := range p.Items {
		if item.MediaID == "" {
			return invalid(fmt.Sprintf("items[%d].mediaId", i), "media id is required")
		}
		if item.Duration < 0 {
			return invalid(fmt.Sprintf("items[%d].duration", i), "duration cannot be negative")
		}
		if item.Duration > playback.MaxDurationSeconds {
			return invalid(fmt.Sprintf("items[%d].duration", i), "duration cannot exceed %d seconds", playback.MaxDurationSeconds)
		}
	}
	switch p.Orientation {
	case "", model.Landscape, model.Portrait:
	default:
		return invalid("orientation", "unknown orientation %q", p.Orientation)
	}

	s := p.Schedule
	for _, d := range s.Days {
		if !schedule.ValidDay(d) {
			return invalid("schedule.days", "day %d out of range 0-6", d)
		}
	}
	if !schedule.ValidTime(s.StartTime) {
		return invalid("schedule.startTime", "expected HH:MM, got %q", s.StartTime)
	}
	if !schedule.ValidTime(s.EndTime) {
		return invalid("schedule.endTime", "expected HH:MM, got %q", s.EndTime)
	}
	return nil
}
