package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"bgaming-proxy/internal/middleware"
	"bgaming-proxy/internal/services"
)

func newLimitedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RateLimitMiddleware(services.NewMemoryRateLimiter()))
	router.POST("/api/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	router.POST("/api/bgaming/callback/*path", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	router.GET("/api/bgaming/entry-session", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	return router
}

func TestRateLimitSessions(t *testing.T) {
	router := newLimitedRouter()

	var last int
	for i := 0; i < 31; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
		last = w.Code
		if i < 30 && last != http.StatusOK {
			t.Fatalf("Request %d should pass, got %d", i+1, last)
		}
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("Request over the limit should get 429, got %d", last)
	}
}

func TestRateLimitCallbackCountsPerClientNotPerToken(t *testing.T) {
	router := newLimitedRouter()

	// Distinct token paths share one window per caller.
	paths := []string{
		"/api/bgaming/callback/Game/1/token-a",
		"/api/bgaming/callback/Game/1/token-b",
	}
	denied := false
	for i := 0; i < 301; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, paths[i%2], nil))
		if w.Code == http.StatusTooManyRequests {
			denied = true
		}
	}
	if !denied {
		t.Error("Callback requests past the shared window should get 429")
	}
}

func TestRateLimitIgnoresOtherRoutes(t *testing.T) {
	router := newLimitedRouter()

	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bgaming/entry-session", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Unlimited route should always pass, got %d", w.Code)
		}
	}
}
