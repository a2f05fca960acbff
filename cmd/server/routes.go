package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/Nixie-Tech-LLC/signton/internal/config"
	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api"
	adminapi "github.com/Nixie-Tech-LLC/signton/internal/http/api/admin/endpoints"
	clientapi "github.com/Nixie-Tech-LLC/signton/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signton/internal/mqtt"
)

// Browser players poll every couple of seconds; allow that with headroom.
const (
	tvRate       = rate.Limit(2)
	tvBurst      = 10
	commandRate  = rate.Limit(1)
	commandBurst = 5
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, store *content.Store, cache *content.Cache, commands *mqtt.Client) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
			"Retry-After",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		if !cache.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	clock := clockwork.NewRealClock()

	admin := adminapi.Deps{
		Store:          store,
		Cache:          cache,
		Clock:          clock,
		Location:       cfg.Timezone,
		StaleAfter:     cfg.DeviceStaleAfter,
		CommandLimiter: middleware.NewRateLimiter(ctx, commandRate, commandBurst),
	}
	// A nil *mqtt.Client must stay a nil interface.
	if commands != nil {
		admin.Commands = commands
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
	},
		adminapi.AdminModule(admin),
	)

	tvLimiter := middleware.NewRateLimiter(ctx, tvRate, tvBurst)
	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api/tv",
		Middleware: []gin.HandlerFunc{middleware.RateLimit(tvLimiter, middleware.ByParam("id"))},
	},
		clientapi.ScreenModule(clientapi.Deps{
			Store:    store,
			Cache:    cache,
			Clock:    clock,
			Location: cfg.Timezone,
		}),
	)
}
