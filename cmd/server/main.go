package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/backend"
	"github.com/Nixie-Tech-LLC/signton/internal/config"
	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signton/internal/logging"
	"github.com/Nixie-Tech-LLC/signton/internal/mqtt"
)

const shutdownTimeout = 10 * time.Second

func main() {
	issueToken := flag.String("issue-token", "", "print an operator token for `name` and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	closer := logging.Setup(logging.Options{Level: cfg.LogLevel, Console: cfg.Development(), File: cfg.LogFile})
	defer closer.Close()

	if err := cfg.RequireServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid server configuration")
	}

	if *issueToken != "" {
		token, err := middleware.GenerateJWT(*issueToken, cfg.JWTSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("could not sign token")
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open document store")
	}
	defer gw.Close()

	store := content.NewStore(gw)
	states, err := store.Watch(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to watch document store")
	}
	cache := content.NewCache()
	go cache.Run(ctx, states)

	var commands *mqtt.Client
	if cfg.MQTTBrokerURL != "" {
		commands, err = mqtt.Connect(ctx, cfg.MQTTBrokerURL, "signton-server-"+content.NewID())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MQTT broker")
		}
		defer commands.Close()
	} else {
		log.Warn().Msg("MQTT_BROKER_URL not set; device commands are disabled")
	}

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	RegisterRoutes(ctx, r, cfg, store, cache, commands)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", cfg.ServerAddress).Str("backend", cfg.StoreBackend).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}
