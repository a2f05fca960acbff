package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
)

// Module is a pluggable feature that attaches its endpoints to a Controller (a gin group).
type Module interface {
	Mount(c *Controller)
}

// ModuleFunc lets you define a Module with a simple function.
type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// Controller registers endpoints on one group. Handlers on an Auth group
// receive the operator named by the token.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) handle(method, path string, h any, extra []gin.HandlerFunc) {
	var final gin.HandlerFunc
	switch fn := h.(type) {
	case func(*gin.Context, string) (any, *APIError):
		final = ResolveEndpointWithAuth(fn)
	case func(*gin.Context) (any, *APIError):
		final = ResolveEndpoint(fn)
	case HandlerFuncWithAuth:
		final = ResolveEndpointWithAuth(fn)
	case HandlerFunc:
		final = ResolveEndpoint(fn)
	default:
		log.Fatal().Str("type", fmt.Sprintf("%T", h)).Str("path", path).Msg("api.Controller: unsupported handler type")
	}
	c.Group.Handle(method, path, append(extra, final)...)
}

// GET registers h, which is a HandlerFunc or HandlerFuncWithAuth, behind
// any extra middleware.
func (c *Controller) GET(path string, h any, extra ...gin.HandlerFunc) {
	c.handle("GET", path, h, extra)
}

func (c *Controller) POST(path string, h any, extra ...gin.HandlerFunc) {
	c.handle("POST", path, h, extra)
}

func (c *Controller) PUT(path string, h any, extra ...gin.HandlerFunc) {
	c.handle("PUT", path, h, extra)
}

func (c *Controller) PATCH(path string, h any, extra ...gin.HandlerFunc) {
	c.handle("PATCH", path, h, extra)
}

func (c *Controller) DELETE(path string, h any, extra ...gin.HandlerFunc) {
	c.handle("DELETE", path, h, extra)
}

// GroupConfig tells the api package how to mount a group.
type GroupConfig struct {
	Prefix     string
	Auth       bool
	SecretKey  string            // required if Auth == true
	Middleware []gin.HandlerFunc // optional additional middleware
}

// MountGroup mounts one or more Modules under a prefix with optional auth.
func MountGroup(parent gin.IRoutes, cfg GroupConfig, modules ...Module) {
	var grp *gin.RouterGroup

	switch v := parent.(type) {
	case *gin.Engine:
		grp = v.Group(cfg.Prefix)
	case *gin.RouterGroup:
		if cfg.Prefix != "" {
			grp = v.Group(cfg.Prefix)
		} else {
			grp = v
		}
	default:
		log.Fatal().Str("type", fmt.Sprintf("%T", parent)).Msg("api.MountGroup: unsupported router type")
	}

	// Apply middleware in a deterministic order.
	for _, mw := range cfg.Middleware {
		grp.Use(mw)
	}
	if cfg.Auth {
		if cfg.SecretKey == "" {
			log.Fatal().Msg("api.MountGroup: Auth enabled but SecretKey is empty")
		}
		grp.Use(middleware.JWTMiddleware(cfg.SecretKey))
	}

	controller := &Controller{Group: grp}

	for _, m := range modules {
		m.Mount(controller)
	}
}
