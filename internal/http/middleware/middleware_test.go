package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func protected() *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTMiddleware(testSecret), func(c *gin.Context) {
		operator, ok := CurrentOperator(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, operator)
	})
	return r
}

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT("alice", testSecret)
	require.NoError(t, err)

	operator, err := parseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "alice", operator)

	_, err = parseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestJWT_RejectsExpiredAndNumericSubject(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = parseToken(expired, testSecret)
	assert.Error(t, err)

	numeric, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 7,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = parseToken(numeric, testSecret)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	token, err := GenerateJWT("alice", testSecret)
	require.NoError(t, err)
	r := protected()

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"missing", "/me", "", http.StatusUnauthorized},
		{"malformed header", "/me", "Token " + token, http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"bearer", "/me", "Bearer " + token, http.StatusOK},
		{"query", "/me?token=" + token, "", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "alice", w.Body.String())
			}
		})
	}
}

func TestRateLimit_PerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, rate.Every(time.Hour), 2)

	r := gin.New()
	r.GET("/devices/:id", RateLimit(rl, ByParam("id")), func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(id string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/devices/"+id, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get("a").Code)
	assert.Equal(t, http.StatusOK, get("a").Code)
	limited := get("a")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "3600", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get("b").Code)
}
