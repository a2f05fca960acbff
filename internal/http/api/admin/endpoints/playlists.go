package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/http/api"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api/admin/packets"
)

func (a *AdminController) mountPlaylists(c *api.Controller) {
	c.GET("/playlists", a.listPlaylists)
	c.POST("/playlists", a.createPlaylist)
	c.GET("/playlists/:id", a.getPlaylist)
	c.PUT("/playlists/:id", a.replacePlaylist)
	c.DELETE("/playlists/:id", a.deletePlaylist)
}

// GET /api/admin/playlists
func (a *AdminController) listPlaylists(ctx *gin.Context, _ string) (any, *api.APIError) {
	state, apiErr := a.state()
	if apiErr != nil {
		return nil, apiErr
	}
	out := make([]packets.PlaylistResponse, len(state.Playlists))
	for i, p := range state.Playlists {
		out[i] = packets.NewPlaylistResponse(p)
	}
	return out, nil
}

// GET /api/admin/playlists/:id
func (a *AdminController) getPlaylist(ctx *gin.Context, _ string) (any, *api.APIError) {
	p, err := a.Cache.Playlist(ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewPlaylistResponse(p), nil
}

// POST /api/admin/playlists
func (a *AdminController) createPlaylist(ctx *gin.Context, operator string) (any, *api.APIError) {
	var request packets.SavePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	p, err := a.Store.SavePlaylist(ctx, request.ToModel(""))
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("playlist", p.ID).Int("items", len(p.Items)).Msg("playlist created")
	a.refreshAll()
	return api.Created{Body: packets.NewPlaylistResponse(p)}, nil
}

// PUT /api/admin/playlists/:id
// The playlist is replaced wholesale; players keep their position when the
// item list is unchanged.
func (a *AdminController) replacePlaylist(ctx *gin.Context, operator string) (any, *api.APIError) {
	var request packets.SavePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	p, err := a.Store.SavePlaylist(ctx, request.ToModel(ctx.Param("id")))
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("playlist", p.ID).Int("items", len(p.Items)).Msg("playlist saved")
	a.refreshAll()
	return packets.NewPlaylistResponse(p), nil
}

// DELETE /api/admin/playlists/:id
// Devices overriding to it fall back to the schedule on their next evaluation.
func (a *AdminController) deletePlaylist(ctx *gin.Context, operator string) (any, *api.APIError) {
	id := ctx.Param("id")
	if err := a.Store.RemovePlaylist(ctx, id); err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("playlist", id).Msg("playlist removed")
	a.refreshAll()
	return nil, nil
}
