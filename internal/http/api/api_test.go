package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
	"github.com/Nixie-Tech-LLC/signton/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("save: %w", content.ValidateMedia(model.MediaItem{})), http.StatusBadRequest},
		{"not found", fmt.Errorf("device x: %w", content.ErrNotFound), http.StatusNotFound},
		{"collection", gateway.ErrUnknownCollection, http.StatusBadRequest},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, FromError(tc.err).Code)
		})
	}
	assert.Equal(t, "internal error", FromError(errors.New("secret detail")).Message)
}

func TestMountGroup_ResolvesResults(t *testing.T) {
	r := gin.New()
	MountGroup(r, GroupConfig{Prefix: "/api/x", Auth: true, SecretKey: "s"}, ModuleFunc(func(c *Controller) {
		c.GET("/ok", func(ctx *gin.Context, operator string) (any, *APIError) {
			return gin.H{"operator": operator}, nil
		})
		c.POST("/created", func(ctx *gin.Context) (any, *APIError) {
			return Created{Body: gin.H{"id": "1"}}, nil
		})
		c.DELETE("/gone", func(ctx *gin.Context) (any, *APIError) { return nil, nil })
		c.GET("/missing", func(ctx *gin.Context) (any, *APIError) { return nil, NotFound("nope") })
	}))

	token, err := middleware.GenerateJWT("bob", "s")
	require.NoError(t, err)
	call := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call(http.MethodGet, "/api/x/ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"operator":"bob"}`, w.Body.String())

	w = call(http.MethodPost, "/api/x/created")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"1"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, call(http.MethodDelete, "/api/x/gone").Code)

	w = call(http.MethodGet, "/api/x/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"nope"}`, w.Body.String())
}
