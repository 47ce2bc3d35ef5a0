package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/gentacalc/internal/config"
	dosingHandler "github.com/jwalitptl/gentacalc/internal/handler/dosing"
	"github.com/jwalitptl/gentacalc/internal/handler/health"
	"github.com/jwalitptl/gentacalc/internal/handler/prometheus"
	"github.com/jwalitptl/gentacalc/internal/handler/web"
	"github.com/jwalitptl/gentacalc/internal/middleware"
	"github.com/jwalitptl/gentacalc/internal/observability/tracing"
	"github.com/jwalitptl/gentacalc/internal/router"
	dosingService "github.com/jwalitptl/gentacalc/internal/service/dosing"
	"github.com/jwalitptl/gentacalc/internal/texts"
	"github.com/jwalitptl/gentacalc/pkg/logger"
	"github.com/jwalitptl/gentacalc/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})
	logger.SetGlobal(appLogger)

	ctx := context.Background()

	// Initialize tracing
	tp, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.Version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	table, err := texts.LoadFile(cfg.Texts.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load alert texts")
	}

	loc, err := cfg.Calc.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid calculation timezone")
	}

	m := metrics.New(cfg.Monitoring.Namespace)

	// Initialize services
	dosingSvc := dosingService.NewService(table,
		dosingService.WithLocation(loc),
		dosingService.WithMetrics(m),
		dosingService.WithTracerProvider(tp.TracerProvider()),
		dosingService.WithLogger(appLogger.Zerolog().With().Str("component", "dosing").Logger()),
	)

	// Initialize handlers
	var metricsH router.MetricsHandler
	if cfg.Monitoring.PrometheusEnabled {
		metricsH = prometheus.New(m)
	}
	healthH := health.NewHandler(map[string]health.Check{
		"texts": func() error {
			if len(table.Keys()) == 0 {
				return errors.New("alert text table is empty")
			}
			return nil
		},
	})

	// Setup router
	r := router.NewRouter(
		dosingHandler.NewHandler(dosingSvc),
		healthH,
		web.NewHandler(),
		metricsH,
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RateEnabled:    cfg.RateLimit.Enabled,
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			RateLimitTTL:   cfg.RateLimit.ClientTTL,
			CORSConfig: middleware.CORSConfig{
				AllowOrigins: cfg.Security.AllowedOrigins,
				AllowMethods: cfg.Security.AllowedMethods,
				AllowHeaders: cfg.Security.AllowedHeaders,
				MaxAge:       12 * time.Hour,
			},
			TracerProvider: tp.TracerProvider(),
			ServiceName:    cfg.Tracing.ServiceName,
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("timezone", loc.String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to flush traces")
	}

	log.Info().Msg("server exited properly")
}
