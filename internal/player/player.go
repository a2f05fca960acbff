package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/liveness"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/playback"
)

const (
	DefaultPollInterval      = 2 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
)

// Renderer puts frames on the physical screen. Calls come from the player
// loop goroutine, one at a time.
type Renderer interface {
	Show(cue playback.Cue)
	Idle()
}

// Source is the slice of the content store a player needs.
type Source interface {
	Watch(ctx context.Context) (<-chan model.AppState, error)
	liveness.DevicePatcher
}

type Config struct {
	DeviceID       string
	DeviceName     string
	DeviceLocation string
	// Location is the wall clock schedules are evaluated against.
	Location          *time.Location
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
}

type eventKind int

const (
	eventVideoEnded eventKind = iota
	eventSkip
	eventRefresh
)

type event struct {
	kind    eventKind
	mediaID string
	epoch   uint64
}

type Player struct {
	cfg       Config
	source    Source
	renderer  Renderer
	clock     clockwork.Clock
	engine    *Engine
	heartbeat *liveness.Heartbeat
	events    chan event
}

func New(cfg Config, source Source, renderer Renderer, clock clockwork.Clock) *Player {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Player{
		cfg:      cfg,
		source:   source,
		renderer: renderer,
		clock:    clock,
		engine:   NewEngine(cfg.DeviceID, cfg.Location),
		heartbeat: &liveness.Heartbeat{
			DeviceID: cfg.DeviceID,
			Name:     cfg.DeviceName,
			Location: cfg.DeviceLocation,
			Store:    source,
		},
		events: make(chan event, 16),
	}
}

// VideoEnded reports that the renderer finished playing mediaID. epoch is
// the Cue.Epoch it was shown under, or zero when the renderer does not track
// it.
func (p *Player) VideoEnded(mediaID string, epoch uint64) {
	p.send(event{kind: eventVideoEnded, mediaID: mediaID, epoch: epoch})
}

// Skip advances to the next item immediately.
func (p *Player) Skip() {
	p.send(event{kind: eventSkip})
}

// Refresh re-evaluates and re-renders the current frame.
func (p *Player) Refresh() {
	p.send(event{kind: eventRefresh})
}

func (p *Player) send(ev event) {
	select {
	case p.events <- ev:
	default:
		log.Warn().Int("kind", int(ev.kind)).Msg("Player event queue full, dropping event")
	}
}

// Run drives playback until ctx ends. All timers are stopped and in-flight
// heartbeats are awaited before it returns.
func (p *Player) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poll := p.clock.NewTicker(p.cfg.PollInterval)
	defer poll.Stop()
	beat := p.clock.NewTicker(p.cfg.HeartbeatInterval)
	defer beat.Stop()

	var item clockwork.Timer
	var itemC <-chan time.Time
	disarm := func() {
		if item != nil {
			item.Stop()
			item = nil
		}
		itemC = nil
	}
	defer disarm()

	states, err := p.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch content: %w", err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	var (
		state     model.AppState
		haveState bool
	)

	sendBeat := func(devices []model.ScreenDevice) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := p.heartbeat.Beat(ctx, devices, p.clock.Now())
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Str("device", p.cfg.DeviceID).Msg("Heartbeat failed")
				}
				return
			}
			if created {
				log.Info().Str("device", p.cfg.DeviceID).Msg("Registered device")
			}
		}()
	}

	render := func() {
		frame := p.engine.Evaluate(p.clock.Now(), state)
		if !frame.Changed {
			return
		}
		disarm()
		if frame.Idle {
			log.Debug().Str("source", string(frame.Source)).Msg("Nothing due, idling")
			p.renderer.Idle()
			return
		}
		if frame.Cue.Timed {
			item = p.clock.NewTimer(frame.Cue.Duration)
			itemC = item.Chan()
		}
		log.Debug().
			Str("playlist", frame.Cue.PlaylistID).
			Int("index", frame.Cue.Index).
			Str("media", frame.Cue.Media.ID).
			Str("source", string(frame.Source)).
			Msg("Showing item")
		p.renderer.Show(frame.Cue)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case s, ok := <-states:
			if !ok {
				return nil
			}
			first := !haveState
			state, haveState = s, true
			if first {
				sendBeat(state.Devices)
			}
			render()

		case <-poll.Chan():
			if haveState {
				render()
			}

		case <-beat.Chan():
			if haveState {
				sendBeat(state.Devices)
			}

		case <-itemC:
			disarm()
			p.engine.Advance()
			render()

		case ev := <-p.events:
			if !haveState {
				continue
			}
			switch ev.kind {
			case eventVideoEnded:
				if !p.engine.VideoEnded(ev.mediaID, ev.epoch) {
					continue
				}
			case eventSkip:
				p.engine.Advance()
			case eventRefresh:
				p.engine.Invalidate()
			}
			render()
		}
	}
}
