package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/http/api"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signton/internal/liveness"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
	"github.com/Nixie-Tech-LLC/signton/internal/mqtt"
)

func (a *AdminController) mountDevices(c *api.Controller) {
	c.GET("/devices", a.listDevices)
	c.POST("/devices", a.createDevice)
	c.GET("/devices/:id", a.getDevice)
	c.PATCH("/devices/:id", a.updateDevice)
	c.DELETE("/devices/:id", a.deleteDevice)

	// device <-> playlist override
	c.PUT("/devices/:id/playlist", a.assignPlaylist)

	// commands
	var limit []gin.HandlerFunc
	if a.CommandLimiter != nil {
		limit = append(limit, middleware.RateLimit(a.CommandLimiter, middleware.ByParam("id")))
	}
	c.POST("/devices/:id/commands", a.sendCommand, limit...)
	c.POST("/commands", a.broadcastCommand)
}

// displayed applies the staleness view to a single device.
func (a *AdminController) displayed(d model.ScreenDevice) packets.DeviceResponse {
	d.Status = liveness.Classify(d, a.Clock.Now(), a.StaleAfter)
	return packets.NewDeviceResponse(d)
}

// GET /api/admin/devices
func (a *AdminController) listDevices(ctx *gin.Context, _ string) (any, *api.APIError) {
	state, apiErr := a.state()
	if apiErr != nil {
		return nil, apiErr
	}
	devices := liveness.Displayed(state.Devices, a.Clock.Now(), a.StaleAfter)
	liveness.SortByStatus(devices)

	out := make([]packets.DeviceResponse, len(devices))
	for i, d := range devices {
		out[i] = packets.NewDeviceResponse(d)
	}
	return out, nil
}

// GET /api/admin/devices/:id
func (a *AdminController) getDevice(ctx *gin.Context, _ string) (any, *api.APIError) {
	d, err := a.Cache.Device(ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return a.displayed(d), nil
}

// POST /api/admin/devices
// Registers a screen before it first reports in.
func (a *AdminController) createDevice(ctx *gin.Context, operator string) (any, *api.APIError) {
	var request packets.CreateDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	d, err := a.Store.CreateDevice(ctx, request.Name, request.Location)
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("device", d.ID).Str("name", d.Name).Msg("device created")
	return api.Created{Body: packets.NewDeviceResponse(d)}, nil
}

// PATCH /api/admin/devices/:id
func (a *AdminController) updateDevice(ctx *gin.Context, operator string) (any, *api.APIError) {
	id := ctx.Param("id")
	var request packets.UpdateDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	// Patches upsert, so an unknown id would otherwise create a stub record.
	if _, err := a.Cache.Device(id); err != nil {
		return nil, api.FromError(err)
	}
	if err := a.Store.UpdateDevice(ctx, id, request.Name, request.Location); err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("device", id).Msg("device updated")
	return nil, nil
}

// PUT /api/admin/devices/:id/playlist
func (a *AdminController) assignPlaylist(ctx *gin.Context, operator string) (any, *api.APIError) {
	id := ctx.Param("id")
	var request packets.AssignPlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if _, err := a.Cache.Device(id); err != nil {
		return nil, api.FromError(err)
	}
	// A dangling override is tolerated by players, but refusing it here
	// catches typos.
	if request.PlaylistID != nil && *request.PlaylistID != "" {
		if _, err := a.Cache.Playlist(*request.PlaylistID); err != nil {
			return nil, api.BadRequest("unknown playlist " + *request.PlaylistID)
		}
	}
	if err := a.Store.AssignPlaylist(ctx, id, request.PlaylistID); err != nil {
		return nil, api.FromError(err)
	}

	logEvent := log.Info().Str("operator", operator).Str("device", id)
	if request.PlaylistID != nil && *request.PlaylistID != "" {
		logEvent.Str("playlist", *request.PlaylistID).Msg("playlist override set")
	} else {
		logEvent.Msg("playlist override cleared")
	}
	a.refresh(id)
	return nil, nil
}

// DELETE /api/admin/devices/:id
// A running player re-creates its record on the next heartbeat.
func (a *AdminController) deleteDevice(ctx *gin.Context, operator string) (any, *api.APIError) {
	id := ctx.Param("id")
	if err := a.Store.RemoveDevice(ctx, id); err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("device", id).Msg("device removed")
	return nil, nil
}

func (a *AdminController) command(request packets.CommandRequest) (mqtt.Command, *api.APIError) {
	if a.Commands == nil {
		return mqtt.Command{}, &api.APIError{Code: http.StatusServiceUnavailable, Message: "no command broker configured"}
	}
	cmd := mqtt.Command{
		Type:    mqtt.CommandType(request.Type),
		MediaID: request.MediaID,
		Cue:     request.Cue,
		SentAt:  a.Clock.Now().UnixMilli(),
	}
	if !cmd.Type.Valid() {
		return mqtt.Command{}, api.BadRequest("unknown command " + request.Type)
	}
	if cmd.Type == mqtt.CommandVideoEnded && cmd.MediaID == "" {
		return mqtt.Command{}, api.BadRequest("video_ended requires mediaId")
	}
	return cmd, nil
}

// POST /api/admin/devices/:id/commands
func (a *AdminController) sendCommand(ctx *gin.Context, operator string) (any, *api.APIError) {
	id := ctx.Param("id")
	var request packets.CommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	cmd, apiErr := a.command(request)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := a.Commands.Publish(id, cmd); err != nil {
		log.Error().Err(err).Str("device", id).Str("command", string(cmd.Type)).Msg("failed to send command")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not reach device"}
	}
	log.Info().Str("operator", operator).Str("device", id).Str("command", string(cmd.Type)).Msg("command sent")
	return packets.CommandResponse{Sent: 1}, nil
}

// POST /api/admin/commands
// Sends the command to every known device.
func (a *AdminController) broadcastCommand(ctx *gin.Context, operator string) (any, *api.APIError) {
	var request packets.CommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	cmd, apiErr := a.command(request)
	if apiErr != nil {
		return nil, apiErr
	}
	state, apiErr := a.state()
	if apiErr != nil {
		return nil, apiErr
	}
	ids := make([]string, len(state.Devices))
	for i, d := range state.Devices {
		ids[i] = d.ID
	}
	if err := a.Commands.Broadcast(ctx, ids, cmd); err != nil {
		log.Error().Err(err).Str("command", string(cmd.Type)).Msg("broadcast partially failed")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: err.Error()}
	}
	log.Info().Str("operator", operator).Int("devices", len(ids)).Str("command", string(cmd.Type)).Msg("command broadcast")
	return packets.CommandResponse{Sent: len(ids)}, nil
}
