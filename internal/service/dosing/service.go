package dosing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jwalitptl/gentacalc/internal/calc"
	"github.com/jwalitptl/gentacalc/internal/model"
	"github.com/jwalitptl/gentacalc/internal/texts"
	apperrors "github.com/jwalitptl/gentacalc/pkg/errors"
	"github.com/jwalitptl/gentacalc/pkg/metrics"
)

// UnderAgeMessage is shown when the patient is too young for the calculator.
const UnderAgeMessage = "Kalkulatoren støtter ikke pasienter under 16 år."

const tracerName = "github.com/jwalitptl/gentacalc/internal/service/dosing"

type DosingServicer interface {
	Calculate(ctx context.Context, input model.PatientInput) (*model.DosingPlan, error)
	Guidance() map[string]string
	Reject(reason string)
}

// Clock returns the reference time for a calculation.
type Clock func() time.Time

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation pins the reference time to loc, so schedules follow the ward's
// wall clock regardless of the host zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithMetrics records calculation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracerProvider sets the provider spans are started from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

// WithLogger sets the audit logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

type Service struct {
	engine   *calc.Engine
	texts    *texts.Table
	clock    Clock
	location *time.Location
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	log      zerolog.Logger
}

func NewService(table *texts.Table, opts ...Option) *Service {
	s := &Service{
		engine: calc.NewEngine(table),
		texts:  table,
		clock:  time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

// Calculate runs the dosing engine against the current reference time.
func (s *Service) Calculate(ctx context.Context, input model.PatientInput) (*model.DosingPlan, error) {
	_, span := s.tracer.Start(ctx, "dosing.calculate")
	defer span.End()

	now := s.clock()
	if s.location != nil {
		now = now.In(s.location)
	}

	start := time.Now()
	plan, err := s.engine.Calculate(input, now)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "calculation rejected")
		if errors.Is(err, calc.ErrUnderAge) {
			s.reject("under_age")
			s.log.Info().Str("reason", "under_age").Msg("calculation rejected")
			return nil, apperrors.NewBusinessRule(UnderAgeMessage, err)
		}
		s.reject("internal")
		return nil, apperrors.NewInternal(err)
	}

	band := bandLabel(plan.Context.GFRBand)
	span.SetAttributes(
		attribute.String("dosing.gfr_band", band),
		attribute.Int("dosing.alert_count", len(plan.AlertKeys)),
	)

	if s.metrics != nil {
		s.metrics.CalculationDuration.Observe(elapsed.Seconds())
		s.metrics.Calculations.WithLabelValues(band).Inc()
		for _, key := range plan.AlertKeys {
			s.metrics.Alerts.WithLabelValues(key).Inc()
		}
	}

	// No patient values are logged.
	s.log.Info().
		Str("gfr_band", band).
		Interface("first_dose_mg", plan.FirstDoseMg).
		Interface("second_dose_mg", plan.SecondDoseMg).
		Interface("third_dose_mg", plan.ThirdDoseMg).
		Strs("alerts", plan.AlertKeys).
		Dur("duration", elapsed).
		Msg("dosing plan calculated")

	return &plan, nil
}

// Guidance returns the static guidance texts shown beside the calculator.
func (s *Service) Guidance() map[string]string {
	return s.texts.Guidance()
}

// Reject counts a request refused before reaching the engine.
func (s *Service) Reject(reason string) {
	s.reject(reason)
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.Rejections.WithLabelValues(reason).Inc()
	}
}

func bandLabel(band *model.GFRBand) string {
	if band == nil {
		return "none"
	}
	return strconv.Itoa(int(*band))
}
