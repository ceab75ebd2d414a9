package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimitStore(t *testing.T) {
	store := NewMemoryRateLimitStore()

	assert.Equal(t, 1, store.Incr("user-a", time.Minute))
	assert.Equal(t, 2, store.Incr("user-a", time.Minute))
	assert.Equal(t, 1, store.Incr("user-b", time.Minute), "keys are independent")

	// An expired window starts over.
	assert.Equal(t, 1, store.Incr("burst", time.Nanosecond))
	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, store.Incr("burst", time.Nanosecond))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(limit int, userID string) *gin.Engine {
		router := gin.New()
		if userID != "" {
			router.Use(func(c *gin.Context) { c.Set(ContextUserIDKey, userID) })
		}
		router.Use(RateLimitMiddleware(NewMemoryRateLimitStore(), limit))
		router.GET("/", func(c *gin.Context) { respondOK(c, http.StatusOK, gin.H{}) })
		return router
	}

	do := func(router *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("requests beyond the budget get 429", func(t *testing.T) {
		router := newRouter(2, "user-1")
		assert.Equal(t, http.StatusOK, do(router).Code)
		assert.Equal(t, http.StatusOK, do(router).Code)

		w := do(router)
		require.Equal(t, http.StatusTooManyRequests, w.Code)

		var body struct {
			Success bool `json:"success"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, CodeRateLimited, body.Error.Code)
	})

	t.Run("zero limit disables the middleware", func(t *testing.T) {
		router := newRouter(0, "user-1")
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusOK, do(router).Code)
		}
	})

	t.Run("anonymous requests fall back to client ip keying", func(t *testing.T) {
		router := newRouter(1, "")
		assert.Equal(t, http.StatusOK, do(router).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(router).Code)
	})
}
