// Package player runs the on-device playback loop: it watches the content
// store, picks the due playlist, walks its items and keeps the device's
// heartbeat going.
package player

import (
	"time"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/playback"
	"github.com/Nixie-Tech-LLC/signton/internal/schedule"
)

// Frame is what the screen should be doing after one evaluation.
type Frame struct {
	Idle   bool
	Cue    playback.Cue
	Source schedule.Source
	// Changed is false when the screen already shows exactly this frame.
	Changed bool
}

// Engine is the synchronous decision core of the player. It holds the
// sequencer and remembers what was last rendered; everything else arrives
// as arguments.
type Engine struct {
	deviceID string
	location *time.Location

	seq      playback.Sequencer
	rendered bool
	last     Frame
}

func NewEngine(deviceID string, location *time.Location) *Engine {
	if location == nil {
		location = time.Local
	}
	return &Engine{deviceID: deviceID, location: location}
}

// Evaluate selects the due playlist for now and resolves the item to show.
func (e *Engine) Evaluate(now time.Time, state model.AppState) Frame {
	var device *model.ScreenDevice
	if d, ok := state.Device(e.deviceID); ok {
		device = &d
	}
	selected, source := schedule.SelectPlaylist(now.In(e.location), state.Playlists, device)
	e.seq.Sync(selected)

	frame := Frame{Idle: true, Source: source}
	if cue, ok := e.seq.Current(state); ok {
		frame = Frame{Cue: cue, Source: source}
	}
	frame.Changed = !e.rendered || !sameFrame(e.last, frame)
	e.rendered = true
	e.last = frame
	return frame
}

// Advance moves past the showing item. Call Evaluate afterwards.
func (e *Engine) Advance() {
	e.seq.Advance()
}

// VideoEnded advances when mediaID is the video currently on screen. A
// non-zero epoch must also match the showing cue, which tells a late signal
// apart from the same video queued twice in a row.
func (e *Engine) VideoEnded(mediaID string, epoch uint64) bool {
	if e.last.Idle || e.last.Cue.Timed || e.last.Cue.Media.ID != mediaID {
		return false
	}
	if epoch != 0 && epoch != e.last.Cue.Epoch {
		return false
	}
	e.seq.Advance()
	return true
}

// Invalidate makes the next Evaluate report a change.
func (e *Engine) Invalidate() {
	e.rendered = false
}

// Current returns the last evaluated frame.
func (e *Engine) Current() Frame {
	return e.last
}

func (e *Engine) State() playback.State {
	return e.seq.State()
}

func sameFrame(a, b Frame) bool {
	if a.Idle || b.Idle {
		return a.Idle == b.Idle
	}
	return a.Cue.PlaylistID == b.Cue.PlaylistID &&
		a.Cue.Epoch == b.Cue.Epoch &&
		a.Cue.Item == b.Cue.Item &&
		a.Cue.Media == b.Cue.Media
}
