package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
)

type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func BadRequest(message string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Code: http.StatusNotFound, Message: message}
}

// FromError maps store errors onto responses. Anything unrecognised is
// logged and reported as a 500 without its details.
func FromError(err error) *APIError {
	var invalid *content.ValidationError
	switch {
	case errors.As(err, &invalid):
		return BadRequest(invalid.Error())
	case errors.Is(err, content.ErrNotFound):
		return NotFound(err.Error())
	case errors.Is(err, gateway.ErrUnknownCollection):
		return BadRequest(err.Error())
	}
	log.Error().Err(err).Msg("request failed")
	return &APIError{Code: http.StatusInternalServerError, Message: "internal error"}
}

// Created marks a result that should be answered with 201.
type Created struct {
	Body any
}

type HandlerFuncWithAuth func(ctx *gin.Context, operator string) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		operator, ok := middleware.CurrentOperator(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		respond(ctx, func(ctx *gin.Context) (any, *APIError) { return h(ctx, operator) })
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		respond(ctx, h)
	}
}

// respond writes the handler's outcome unless the handler already wrote
// the response itself (conditional GETs answer 304 that way).
func respond(ctx *gin.Context, h HandlerFunc) {
	result, apiErr := h(ctx)
	if ctx.Writer.Written() {
		return
	}
	if apiErr != nil {
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}
	switch r := result.(type) {
	case nil:
		ctx.Status(http.StatusNoContent)
	case Created:
		ctx.JSON(http.StatusCreated, r.Body)
	default:
		ctx.JSON(http.StatusOK, result)
	}
}
