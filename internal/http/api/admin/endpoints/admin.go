package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api"
	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/mqtt"
)

const commandTimeout = 10 * time.Second

// Commander delivers device commands. *mqtt.Client satisfies it.
type Commander interface {
	Publish(deviceID string, cmd mqtt.Command) error
	Broadcast(ctx context.Context, deviceIDs []string, cmd mqtt.Command) error
}

type Deps struct {
	Store *content.Store
	Cache *content.Cache
	// Commands may be nil when no broker is configured; commands then
	// answer 503 and refresh notifications are skipped.
	Commands   Commander
	Clock      clockwork.Clock
	Location   *time.Location
	StaleAfter time.Duration
	// CommandLimiter throttles per-device commands; nil disables it.
	CommandLimiter *middleware.RateLimiter
}

type AdminController struct {
	Deps
}

func newAdminController(deps Deps) *AdminController {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &AdminController{Deps: deps}
}

// AdminModule mounts every authenticated /api/admin endpoint.
func AdminModule(deps Deps) api.Module {
	ctl := newAdminController(deps)
	return api.ModuleFunc(func(c *api.Controller) {
		ctl.mountMedia(c)
		ctl.mountPlaylists(c)
		ctl.mountDevices(c)
		ctl.mountDashboard(c)
	})
}

var errNotReady = &api.APIError{Code: http.StatusServiceUnavailable, Message: "content store is still loading"}

// state returns the cached snapshot once the first one has arrived.
func (a *AdminController) state() (model.AppState, *api.APIError) {
	if !a.Cache.Ready() {
		return model.AppState{}, errNotReady
	}
	return a.Cache.State(), nil
}

// refresh tells screens to re-evaluate now. Failures are logged only: the
// next poll picks the change up anyway.
func (a *AdminController) refresh(deviceIDs ...string) {
	if a.Commands == nil || len(deviceIDs) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		cmd := mqtt.Command{Type: mqtt.CommandRefresh, SentAt: a.Clock.Now().UnixMilli()}
		if err := a.Commands.Broadcast(ctx, deviceIDs, cmd); err != nil {
			log.Warn().Err(err).Int("devices", len(deviceIDs)).Msg("could not notify screens of change")
		}
	}()
}

// refreshAll notifies every known screen.
func (a *AdminController) refreshAll() {
	devices := a.Cache.State().Devices
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
	}
	a.refresh(ids...)
}
