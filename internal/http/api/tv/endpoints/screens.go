package endpoints

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/signton/internal/liveness"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/playback"
	"github.com/Nixie-Tech-LLC/signton/internal/schedule"
)

type Deps struct {
	Store    *content.Store
	Cache    *content.Cache
	Clock    clockwork.Clock
	Location *time.Location
}

type TvController struct {
	Deps
}

func NewTvController(deps Deps) *TvController {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &TvController{Deps: deps}
}

// ScreenModule mounts the unauthenticated endpoints browser players poll.
func ScreenModule(deps Deps) api.Module {
	ctl := NewTvController(deps)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/devices/:id/now", ctl.nowPlaying)
		c.POST("/devices/:id/heartbeat", ctl.heartbeat)
	})
}

var errNotReady = &api.APIError{Code: http.StatusServiceUnavailable, Message: "content store is still loading"}

// Resolve builds the response for deviceID at now. Items whose media is
// missing or of an unknown kind are left out, as a player would skip them.
func Resolve(state model.AppState, deviceID string, now time.Time) packets.NowResponse {
	var device *model.ScreenDevice
	if d, ok := state.Device(deviceID); ok {
		device = &d
	}
	selected, source := schedule.SelectPlaylist(now, state.Playlists, device)
	out := packets.NowResponse{DeviceID: deviceID, Source: source}
	if selected == nil {
		return out
	}

	playlist := &packets.NowPlaylist{
		ID:          selected.ID,
		Name:        selected.Name,
		Orientation: string(selected.Orientation),
		Items:       []packets.NowItem{},
	}
	for i, item := range selected.Items {
		media, ok := state.Media(item.MediaID)
		if !ok || media.Kind == model.KindUnknown {
			continue
		}
		d, timed := playback.Timing(item, media)
		playlist.Items = append(playlist.Items, packets.NowItem{
			Index:     i,
			MediaID:   media.ID,
			Type:      media.Kind.String(),
			URL:       media.URL,
			Name:      media.Name,
			Thumbnail: media.Thumbnail,
			Duration:  int(d / time.Second),
			Timed:     timed,
		})
	}
	out.Playlist = playlist
	return out
}

func etag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func matches(ifNoneMatch, tag string) bool {
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == tag || candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}

// GET /api/tv/devices/:id/now
func (t *TvController) nowPlaying(ctx *gin.Context) (any, *api.APIError) {
	if !t.Cache.Ready() {
		return nil, errNotReady
	}
	resp := Resolve(t.Cache.State(), ctx.Param("id"), t.Clock.Now().In(t.Location))

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, api.FromError(err)
	}
	tag := etag(body)
	ctx.Header("ETag", tag)
	ctx.Header("Cache-Control", "no-cache")
	if inm := ctx.GetHeader("If-None-Match"); inm != "" && matches(inm, tag) {
		ctx.Status(http.StatusNotModified)
		ctx.Writer.WriteHeaderNow()
		return nil, nil
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
	return nil, nil
}

// POST /api/tv/devices/:id/heartbeat
func (t *TvController) heartbeat(ctx *gin.Context) (any, *api.APIError) {
	id := ctx.Param("id")
	// The body is optional, chunked or not.
	var request packets.HeartbeatRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		return nil, api.BadRequest(err.Error())
	}
	// Without a first snapshot every device looks absent and the beat would
	// overwrite its name.
	if !t.Cache.Ready() {
		return nil, errNotReady
	}

	hb := liveness.Heartbeat{
		DeviceID: id,
		Name:     strings.TrimSpace(request.Name),
		Location: strings.TrimSpace(request.Location),
		Store:    t.Store,
	}
	if hb.Name == "" {
		hb.Name = content.DefaultDeviceName
	}
	if hb.Location == "" {
		hb.Location = content.DefaultDeviceLocation
	}

	now := t.Clock.Now()
	created, err := hb.Beat(ctx, t.Cache.State().Devices, now)
	if err != nil {
		return nil, api.FromError(err)
	}
	if created {
		log.Info().Str("device", id).Str("name", hb.Name).Msg("device registered by heartbeat")
	}
	return packets.HeartbeatResponse{Created: created, LastPing: now.UnixMilli()}, nil
}
