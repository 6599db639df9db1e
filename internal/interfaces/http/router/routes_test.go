package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	variationapp "github.com/stockwave/harmony/internal/application/variation"
	"github.com/stockwave/harmony/internal/infrastructure/cache"
	"github.com/stockwave/harmony/internal/interfaces/http/handler"
	"github.com/stockwave/harmony/internal/interfaces/http/middleware"
)

func newTestEngine(t *testing.T, maxBody int64) *gin.Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{
		Logger:      zap.NewNop(),
		Tracing:     middleware.TracingConfig{Enabled: false},
		Security:    middleware.DefaultSecurityConfig(),
		CORS:        middleware.DefaultCORSConfig(),
		MaxBodySize: maxBody,
	})
	require.NoError(t, err)
	return engine
}

func variationHandler() *handler.VariationHandler {
	svc := variationapp.NewVariationService(variationapp.ServiceConfig{
		Sessions: cache.NewInMemorySessionRepository(),
	})
	return handler.NewVariationHandler(svc)
}

func TestVariationRoutes(t *testing.T) {
	engine := newTestEngine(t, 0)
	guarded := 0
	storeGuard := func(c *gin.Context) {
		guarded++
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
	NewRouter(engine).Register(VariationRoutes(variationHandler(), storeGuard)).Setup()

	// no session exists, so reaching a handler answers ERR_SESSION_NOT_FOUND
	sessionRoutes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/products/1/variation-session"},
		{http.MethodDelete, "/api/v1/products/1/variation-session"},
		{http.MethodPost, "/api/v1/products/1/variation-session/generate"},
		{http.MethodGet, "/api/v1/products/1/variation-session/payload"},
		{http.MethodDelete, "/api/v1/products/1/variation-session/variations/0"},
	}
	for _, r := range sessionRoutes {
		w := serve(engine, r.method, r.path)
		assert.Equal(t, http.StatusNotFound, w.Code, r.path)
		assert.Contains(t, w.Body.String(), "ERR_SESSION_NOT_FOUND", r.method+" "+r.path)
	}

	storeRoutes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/products/1/variation-session"},
		{http.MethodPost, "/api/v1/products/1/variation-session/submit"},
		{http.MethodPost, "/api/v1/products/1/variation-session/variations/0/image"},
	}
	for _, r := range storeRoutes {
		w := serve(engine, r.method, r.path)
		assert.Equal(t, http.StatusTooManyRequests, w.Code, r.path)
	}
	assert.Equal(t, len(storeRoutes), guarded)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/variations/generate",
		strings.NewReader(`{"attributes":[{"name":"Size","variation":true,"options":["S","M"]}]}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSystemRoutes(t *testing.T) {
	engine := newTestEngine(t, 0)
	h := handler.NewSystemHandler("test")
	h.AddCheck("database", func(context.Context) error { return errors.New("down") })
	NewRouter(engine).Register(SystemRoutes(h)).Setup()
	RegisterHealth(engine, h)

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/ping").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/system/info").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(engine, http.MethodGet, "/health").Code)
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(t, 16)
	engine.POST("/echo", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	w := serve(engine, http.MethodPost, "/echo")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(middleware.RequestIDKey), 32)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Equal(t, http.StatusInternalServerError, serve(engine, http.MethodGet, "/panic").Code)
}
