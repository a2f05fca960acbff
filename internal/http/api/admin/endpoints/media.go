package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/http/api"
	"github.com/Nixie-Tech-LLC/signton/internal/http/api/admin/packets"
)

func (a *AdminController) mountMedia(c *api.Controller) {
	c.GET("/media", a.listMedia)
	c.POST("/media", a.createMedia)
	c.GET("/media/:id", a.getMedia)
	c.PUT("/media/:id", a.replaceMedia)
	c.DELETE("/media/:id", a.deleteMedia)
}

// GET /api/admin/media
func (a *AdminController) listMedia(ctx *gin.Context, _ string) (any, *api.APIError) {
	state, apiErr := a.state()
	if apiErr != nil {
		return nil, apiErr
	}
	out := make([]packets.MediaResponse, len(state.MediaLibrary))
	for i, m := range state.MediaLibrary {
		out[i] = packets.NewMediaResponse(m)
	}
	return out, nil
}

// GET /api/admin/media/:id
func (a *AdminController) getMedia(ctx *gin.Context, _ string) (any, *api.APIError) {
	m, err := a.Cache.Media(ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewMediaResponse(m), nil
}

// POST /api/admin/media
func (a *AdminController) createMedia(ctx *gin.Context, operator string) (any, *api.APIError) {
	var request packets.SaveMediaRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	m, err := a.Store.SaveMedia(ctx, request.ToModel(""))
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("media", m.ID).Str("type", m.Kind.String()).Msg("media added")
	return api.Created{Body: packets.NewMediaResponse(m)}, nil
}

// PUT /api/admin/media/:id
func (a *AdminController) replaceMedia(ctx *gin.Context, operator string) (any, *api.APIError) {
	var request packets.SaveMediaRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	m, err := a.Store.SaveMedia(ctx, request.ToModel(ctx.Param("id")))
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("media", m.ID).Msg("media replaced")
	return packets.NewMediaResponse(m), nil
}

// DELETE /api/admin/media/:id
// Playlists that reference the item keep their entries; players skip them.
func (a *AdminController) deleteMedia(ctx *gin.Context, operator string) (any, *api.APIError) {
	id := ctx.Param("id")
	if err := a.Store.RemoveMedia(ctx, id); err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("operator", operator).Str("media", id).Msg("media removed")
	return nil, nil
}
