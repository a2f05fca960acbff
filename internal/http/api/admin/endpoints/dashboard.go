package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/http/api"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signton/internal/liveness"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/schedule"
)

const (
	writeWait = 10 * time.Second
	// streamRefresh re-sends the dashboard without a store change so that
	// staleness and schedule windows stay current on screen.
	streamRefresh = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (a *AdminController) mountDashboard(c *api.Controller) {
	c.GET("/dashboard", a.dashboard)
	c.Group.GET("/stream", a.stream)
}

// buildDashboard renders the fleet overview as of now.
func (a *AdminController) buildDashboard(state model.AppState, now time.Time) packets.DashboardResponse {
	devices := liveness.Displayed(state.Devices, now, a.StaleAfter)
	liveness.SortByStatus(devices)
	summary := liveness.Summarize(devices)

	local := now.In(a.Location)
	out := packets.DashboardResponse{
		Devices:     make([]packets.DashboardDevice, len(devices)),
		Online:      summary.Online,
		Total:       summary.Total,
		Playlists:   len(state.Playlists),
		Media:       len(state.MediaLibrary),
		GeneratedAt: now.UnixMilli(),
	}
	for i := range devices {
		entry := packets.DashboardDevice{DeviceResponse: packets.NewDeviceResponse(devices[i])}
		if p, source := schedule.SelectPlaylist(local, state.Playlists, &devices[i]); p != nil {
			entry.NowPlaying = &packets.NowPlaying{PlaylistID: p.ID, Name: p.Name, Source: source}
		}
		out.Devices[i] = entry
	}
	return out
}

// GET /api/admin/dashboard
func (a *AdminController) dashboard(ctx *gin.Context, _ string) (any, *api.APIError) {
	state, apiErr := a.state()
	if apiErr != nil {
		return nil, apiErr
	}
	return a.buildDashboard(state, a.Clock.Now()), nil
}

// GET /api/admin/stream
// Pushes the dashboard on every store change until the client goes away.
func (a *AdminController) stream(ctx *gin.Context) {
	operator, _ := middleware.CurrentOperator(ctx)
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("dashboard stream upgrade failed")
		return
	}
	defer conn.Close()
	log.Info().Str("operator", operator).Str("remote", ctx.Request.RemoteAddr).Msg("dashboard stream connected")

	// The client never sends anything meaningful; reading surfaces the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := a.Clock.NewTicker(streamRefresh)
	defer ticker.Stop()

	for {
		changed := a.Cache.Changed()
		if a.Cache.Ready() {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Msg("dashboard stream deadline failed")
				return
			}
			if err := conn.WriteJSON(a.buildDashboard(a.Cache.State(), a.Clock.Now())); err != nil {
				log.Debug().Err(err).Msg("dashboard stream write failed")
				return
			}
		}
		select {
		case <-gone:
			log.Info().Str("operator", operator).Msg("dashboard stream closed")
			return
		case <-ctx.Request.Context().Done():
			return
		case <-changed:
		case <-ticker.Chan():
		}
	}
}
