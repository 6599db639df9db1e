package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/infrastructure/logger"
	"github.com/stockwave/harmony/internal/interfaces/http/middleware"
)

// EngineConfig holds what the global middleware chain needs
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Security       middleware.SecurityConfig
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	Meter          metric.Meter // nil disables HTTP metrics
	TrustedProxies []string
}

// NewEngine builds a gin engine with the global middleware installed in order:
// request id, panic recovery, request logging, tracing, security headers,
// CORS, body limit and HTTP metrics.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
	)
	engine.Use(middleware.TracingWithConfig(cfg.Tracing)...)
	engine.Use(
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.HTTPMetrics(cfg.Meter),
	)
	return engine, nil
}
