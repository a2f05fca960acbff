package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/backend"
	"github.com/Nixie-Tech-LLC/signton/internal/config"
	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/logging"
	"github.com/Nixie-Tech-LLC/signton/internal/mqtt"
	"github.com/Nixie-Tech-LLC/signton/internal/player"
	"github.com/Nixie-Tech-LLC/signton/internal/playback"
)

// logRenderer stands in for a display: it records what would be on screen.
type logRenderer struct {
	deviceID string
}

func (r logRenderer) Show(cue playback.Cue) {
	ev := log.Info().
		Str("device", r.deviceID).
		Str("playlist", cue.PlaylistID).
		Int("index", cue.Index).
		Uint64("cue", cue.Epoch).
		Str("media", cue.Media.ID).
		Str("type", cue.Media.Kind.String()).
		Str("url", cue.Media.URL)
	if cue.Timed {
		ev = ev.Dur("duration", cue.Duration)
	}
	ev.Msg("showing")
}

func (r logRenderer) Idle() {
	log.Info().Str("device", r.deviceID).Msg("idle")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	closer := logging.Setup(logging.Options{Level: cfg.LogLevel, Console: cfg.Development(), File: cfg.LogFile})
	defer closer.Close()

	if err := cfg.RequirePlayer(); err != nil {
		log.Fatal().Err(err).Msg("invalid player configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open document store")
	}
	defer gw.Close()

	p := player.New(player.Config{
		DeviceID:          cfg.DeviceID,
		DeviceName:        cfg.DeviceName,
		DeviceLocation:    cfg.DeviceLocation,
		Location:          cfg.Timezone,
		PollInterval:      cfg.PollInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
	}, content.NewStore(gw), logRenderer{deviceID: cfg.DeviceID}, clockwork.NewRealClock())

	if cfg.MQTTBrokerURL != "" {
		commands, err := mqtt.Connect(ctx, cfg.MQTTBrokerURL, "signton-player-"+cfg.DeviceID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MQTT broker")
		}
		defer commands.Close()
		err = commands.Subscribe(cfg.DeviceID, func(cmd mqtt.Command) {
			log.Debug().Str("command", string(cmd.Type)).Msg("command received")
			switch cmd.Type {
			case mqtt.CommandNext:
				p.Skip()
			case mqtt.CommandRefresh:
				p.Refresh()
			case mqtt.CommandVideoEnded:
				p.VideoEnded(cmd.MediaID, cmd.Cue)
			}
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to device commands")
		}
	}

	log.Info().Str("device", cfg.DeviceID).Str("backend", cfg.StoreBackend).Str("timezone", cfg.Timezone.String()).Msg("player starting")
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("player stopped")
	}
	log.Info().Msg("player stopped")
}
