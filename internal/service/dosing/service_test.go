package dosing

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jwalitptl/gentacalc/internal/model"
	"github.com/jwalitptl/gentacalc/internal/texts"
	apperrors "github.com/jwalitptl/gentacalc/pkg/errors"
	"github.com/jwalitptl/gentacalc/pkg/metrics"
)

var fixedNow = time.Date(2025, time.August, 24, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func referencePatient() model.PatientInput {
	height := 169.0
	return model.PatientInput{
		Sex:             model.SexFemale,
		AgeYears:        72,
		WeightKg:        49,
		HeightCm:        &height,
		CreatinineUmolL: 77,
		MgPerKg:         6,
		FirstDoseHour:   23,
	}
}

func TestCalculate_UsesClock(t *testing.T) {
	svc := NewService(texts.Default(), WithClock(fixedClock))

	plan, err := svc.Calculate(context.Background(), referencePatient())
	require.NoError(t, err)

	assert.Equal(t, 280, *plan.FirstDoseMg)
	assert.Equal(t, " Gis umiddelbart  -  24.08 23:00", plan.Instructions[0])
	assert.Equal(t, "Vurder videre bruk: 27.08 08:00", *plan.Monitoring)
}

func TestCalculate_LocationShiftsReferenceDay(t *testing.T) {
	// 23:30 UTC is already the next day in Oslo.
	late := time.Date(2025, time.August, 24, 23, 30, 0, 0, time.UTC)
	oslo := time.FixedZone("CEST", 2*60*60)
	svc := NewService(texts.Default(),
		WithClock(func() time.Time { return late }),
		WithLocation(oslo),
	)

	plan, err := svc.Calculate(context.Background(), referencePatient())
	require.NoError(t, err)
	assert.Equal(t, " Gis umiddelbart  -  25.08 23:00", plan.Instructions[0])
}

func TestCalculate_UnderAge(t *testing.T) {
	m := metrics.New("test")
	svc := NewService(texts.Default(), WithClock(fixedClock), WithMetrics(m))

	p := referencePatient()
	p.AgeYears = 15
	plan, err := svc.Calculate(context.Background(), p)

	assert.Nil(t, plan)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBusinessRule))
	assert.Contains(t, err.Error(), "under 16")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Rejections.WithLabelValues("under_age")))
}

func TestCalculate_RecordsMetrics(t *testing.T) {
	m := metrics.New("test")
	svc := NewService(texts.Default(), WithClock(fixedClock), WithMetrics(m))

	p := referencePatient()
	p.CreatinineUmolL = 50
	_, err := svc.Calculate(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Alerts.WithLabelValues(texts.KeyCreatinineFloor)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Calculations))
}

func TestCalculate_Span(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	svc := NewService(texts.Default(), WithClock(fixedClock), WithTracerProvider(tp))

	_, err := svc.Calculate(context.Background(), referencePatient())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "dosing.calculate", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "2", attrs["dosing.gfr_band"])
	assert.Equal(t, "0", attrs["dosing.alert_count"])
}

func TestCalculate_AuditLogOmitsPatientValues(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(texts.Default(), WithClock(fixedClock), WithLogger(zerolog.New(&buf)))

	_, err := svc.Calculate(context.Background(), referencePatient())
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, `"gfr_band":"2"`)
	assert.Contains(t, line, `"first_dose_mg":280`)
	assert.NotContains(t, line, "weight")
	assert.NotContains(t, line, "creatinine")
}

func TestGuidance(t *testing.T) {
	svc := NewService(texts.Default())

	guidance := svc.Guidance()
	assert.Contains(t, guidance, "contraindications")
	assert.NotContains(t, guidance, texts.KeyDoseOver600)
}
