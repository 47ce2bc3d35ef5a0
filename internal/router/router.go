package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/gentacalc/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type MetricsHandler interface {
	Middleware() gin.HandlerFunc
	Handler() gin.HandlerFunc
}

type Router struct {
	engine   *gin.Engine
	dosingH  Handler
	healthH  Handler
	webH     Handler
	metricsH MetricsHandler
	config   RouterConfig
}

type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimit      rate.Limit
	RateBurst      int
	RateLimitTTL   time.Duration
	RateEnabled    bool
	CORSConfig     middleware.CORSConfig
	TracerProvider trace.TracerProvider
	ServiceName    string
}

func NewRouter(
	dosingH Handler,
	healthH Handler,
	webH Handler,
	metricsH MetricsHandler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		dosingH:  dosingH,
		healthH:  healthH,
		webH:     webH,
		metricsH: metricsH,
		config:   config,
	}

	// Core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
	)
	if config.TracerProvider != nil {
		engine.Use(middleware.Tracing(config.TracerProvider, config.ServiceName))
	}
	if metricsH != nil {
		engine.Use(metricsH.Middleware())
	}
	engine.Use(
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	return r
}

func (r *Router) Setup() {
	config := r.config

	r.setupHealthCheck(r.engine.Group(""))

	if r.webH != nil {
		page := r.engine.Group("")
		page.Use(middleware.Cache(middleware.StaticCacheConfig()))
		r.webH.RegisterRoutes(page)
	}

	api := r.engine.Group("/api")
	api.Use(
		middleware.Cache(middleware.NoStoreConfig()),
		middleware.SizeLimit(middleware.SizeLimitConfig{
			MaxBodySize:   config.MaxBodyBytes,
			MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
		}),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
	)
	if config.RateEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
			TTL:   config.RateLimitTTL,
		})
		api.Use(limiter.RateLimit())
	}
	r.dosingH.RegisterRoutes(api)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	r.healthH.RegisterRoutes(rg)
	if r.metricsH != nil {
		rg.GET("/health/metrics", r.metricsH.Handler())
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
