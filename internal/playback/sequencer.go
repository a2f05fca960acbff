package playback

import (
	"time"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

// FallbackDuration applies when neither the playlist item nor the media
// carries a positive duration.
const FallbackDuration = 10 * time.Second

// MaxDurationSeconds caps how long one item may stay on screen.
const MaxDurationSeconds = 24 * 60 * 60

// MediaLookup resolves media identifiers against the current library.
type MediaLookup interface {
	Media(id string) (model.MediaItem, bool)
}

// Change classifies what Sync did to the sequencer.
type Change int

const (
	Unchanged Change = iota
	// Selected means a different playlist (or none) was adopted and the
	// index was reset to zero.
	Selected
	// Edited means the same playlist was adopted with a different item list.
	Edited
)

// State is the externally visible position of the sequencer.
type State struct {
	PlaylistID string
	Index      int
}

// Cue is one resolved, renderable position in the selected playlist.
type Cue struct {
	PlaylistID string
	Index      int
	// Epoch increases every time the showing position is (re)entered, so a
	// single-item playlist advancing onto itself still yields a fresh cue.
	Epoch    uint64
	Item     model.PlaylistItem
	Media    model.MediaItem
	Duration time.Duration
	// Timed is false for items that advance on an external signal (video end).
	Timed bool
}

// Sequencer tracks which item of the selected playlist is showing. The zero
// value is the idle state with no playlist selected.
type Sequencer struct {
	playlist *model.Playlist
	index    int
	epoch    uint64
}

func (s *Sequencer) State() State {
	if s.playlist == nil {
		return State{}
	}
	return State{PlaylistID: s.playlist.ID, Index: s.index}
}

// Selected reports whether a playlist is currently held.
func (s *Sequencer) Selected() bool {
	return s.playlist != nil
}

// Sync adopts the evaluator's latest choice. p may be nil.
func (s *Sequencer) Sync(p *model.Playlist) Change {
	switch {
	case p == nil && s.playlist == nil:
		return Unchanged
	case p == nil:
		s.playlist = nil
		s.index = 0
		s.epoch++
		return Selected
	case s.playlist == nil || s.playlist.ID != p.ID:
		held := *p
		s.playlist = &held
		s.index = 0
		s.epoch++
		return Selected
	case !s.playlist.SameItems(*p):
		held := *p
		s.playlist = &held
		if s.index >= len(held.Items) {
			s.index = 0
		}
		s.epoch++
		return Edited
	default:
		// name or schedule edits do not disturb playback
		held := *p
		s.playlist = &held
		return Unchanged
	}
}

// Advance moves to the next item, wrapping at the end. It is a no-op when
// nothing is selected or the playlist is empty.
func (s *Sequencer) Advance() {
	if s.playlist == nil || len(s.playlist.Items) == 0 {
		return
	}
	s.index = (s.index + 1) % len(s.playlist.Items)
	s.epoch++
}

// Current resolves the item at the current index. Items whose media is
// missing from lib, or whose kind cannot be rendered, are skipped forward,
// at most once around the playlist. ok is false when there is nothing to show.
func (s *Sequencer) Current(lib MediaLookup) (Cue, bool) {
	if s.playlist == nil {
		return Cue{}, false
	}
	n := len(s.playlist.Items)
	for tried := 0; tried < n; tried++ {
		item := s.playlist.Items[s.index]
		media, found := lib.Media(item.MediaID)
		if found && media.Kind != model.KindUnknown {
			duration, timed := Timing(item, media)
			return Cue{
				PlaylistID: s.playlist.ID,
				Index:      s.index,
				Epoch:      s.epoch,
				Item:       item,
				Media:      media,
				Duration:   duration,
				Timed:      timed,
			}, true
		}
		s.Advance()
	}
	return Cue{}, false
}

// DisplayDuration is the item's override when positive, else the media's
// default when positive, else FallbackDuration. Values past
// MaxDurationSeconds are clamped.
func DisplayDuration(item model.PlaylistItem, media model.MediaItem) time.Duration {
	switch {
	case item.Duration > 0:
		return seconds(item.Duration)
	case media.Duration > 0:
		return seconds(media.Duration)
	default:
		return FallbackDuration
	}
}

func seconds(n int) time.Duration {
	return time.Duration(min(n, MaxDurationSeconds)) * time.Second
}

// Timing decides how an item leaves the screen: after a duration, or on the
// renderer's finished signal.
func Timing(item model.PlaylistItem, media model.MediaItem) (time.Duration, bool) {
	switch media.Kind {
	case model.KindImage, model.KindWeb:
		return DisplayDuration(item, media), true
	case model.KindVideo:
		return 0, false
	case model.KindUnknown:
		return 0, false
	}
	return 0, false
}
