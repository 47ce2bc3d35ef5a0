package batch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jwalitptl/gentacalc/internal/calc"
	"github.com/jwalitptl/gentacalc/internal/texts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var referenceNow = time.Date(2025, time.August, 24, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newRunner(workers int) *Runner {
	return NewRunner(calc.NewEngine(texts.Default()), workers, referenceNow)
}

func TestParseInstruction(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *Instruction
	}{
		{"blank", "   ", nil},
		{
			"engine immediate",
			" Gis umiddelbart  -   24.08 20:00",
			&Instruction{Action: "gis umiddelbart", Date: "24.08", Time: "20:00"},
		},
		{
			"spreadsheet immediate with weekday",
			"Gis umiddelbart  -   16.10.Thursday kl.20:00",
			&Instruction{Action: "gis umiddelbart", Date: "16.10", Time: "20:00"},
		},
		{
			"spreadsheet with year",
			" Gis umiddelbart  -   16.10.2025 kl.20:00",
			&Instruction{Action: "gis umiddelbart", Date: "16.10", Time: "20:00"},
		},
		{
			"36 hour delay",
			" Gis 36 timer etter dose 1  -  26.08 11:00",
			&Instruction{Action: "gis 36 timer etter dose 1", Date: "26.08", Time: "11:00"},
		},
		{
			"plain give",
			" Gis 5.9 kl 12",
			&Instruction{Action: "gis", Date: "05.09", Time: "12:00"},
		},
		{
			"no third dose",
			" Tredje dose Gentamicin skal ikke gis",
			&Instruction{Action: "tredje dose gentamicin skal ikke gis"},
		},
		{
			"caution",
			calc.CautionText,
			&Instruction{Text: "Gentamicin anbefales ikke ved GFR <40"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInstruction(tt.in))
		})
	}
}

func TestGenerateScenarios(t *testing.T) {
	first := GenerateScenarios(200, DefaultSeed)
	second := GenerateScenarios(200, DefaultSeed)

	require.NotEmpty(t, first)
	assert.LessOrEqual(t, len(first), 200)
	assert.Equal(t, first, second)

	for _, s := range first {
		assert.GreaterOrEqual(t, s.Age, float64(calc.MinAgeYears))
		require.NotNil(t, s.Height)
		assert.Contains(t, SexValues, s.Sex)
	}

	assert.Empty(t, GenerateScenarios(0, DefaultSeed))
	assert.NotEqual(t, first, GenerateScenarios(200, DefaultSeed+1))
}

func TestRunner_Run(t *testing.T) {
	fixtures := []Fixture{
		{
			ID: 1,
			Input: Scenario{
				Sex: "Mann", Age: 40, Weight: 85, Height: ptr(180.0),
				Creatinine: 60, MgPerKg: 7, FirstDoseHour: 20,
			},
			Expected: Expected{
				FirstDoseMg:  ptr(600.0),
				SecondDoseMg: ptr(400.0),
				ThirdDoseMg:  ptr(600.0),
				Instructions: [3]string{
					"Gis umiddelbart  -   24.08.Sunday kl.20:00",
					"Gis 25.08.Monday kl.12:00",
					"Gis 26.08.Tuesday kl.12:00",
				},
				ChosenGFR: ptr(174.0),
				GFRBand:   ptr(3),
			},
		},
		{
			ID: 2,
			Input: Scenario{
				Sex: "female", Age: 72, Weight: 49, Height: ptr(169.0),
				Creatinine: 77, MgPerKg: 6, FirstDoseHour: 23,
			},
			Expected: Expected{
				FirstDoseMg:  ptr(320.0),
				SecondDoseMg: ptr(280.0),
				GFRBand:      ptr(2),
			},
		},
		{
			ID:    3,
			Input: Scenario{Sex: "female", Age: 15, Weight: 60, Creatinine: 70, MgPerKg: 5, FirstDoseHour: 8},
		},
		{
			ID:    4,
			Input: Scenario{Sex: "x", Age: 50, Weight: 60, Creatinine: 70, MgPerKg: 5, FirstDoseHour: 8},
		},
	}

	summary, err := newRunner(2).Run(context.Background(), fixtures)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Mismatches)
	assert.Equal(t, 2, summary.Errors)
	assert.False(t, summary.OK())

	require.Len(t, summary.Results, 4)
	assert.Empty(t, summary.Results[0].Differences)
	assert.Equal(t, []Difference{{Field: "dose_1", Expected: 320.0, Actual: 280}}, summary.Results[1].Differences)
	assert.NotEmpty(t, summary.Results[2].Error)
	assert.Contains(t, summary.Results[3].Error, "unknown sex")
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fixtures := make([]Fixture, 10)
	_, err := newRunner(1).Run(ctx, fixtures)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_GeneratedScenariosEvaluate(t *testing.T) {
	scenarios := GenerateScenarios(300, DefaultSeed)
	fixtures := make([]Fixture, len(scenarios))
	for i, s := range scenarios {
		fixtures[i] = Fixture{ID: i + 1, Input: s}
	}

	summary, err := newRunner(4).Run(context.Background(), fixtures)
	require.NoError(t, err)
	assert.True(t, summary.OK())
	assert.Equal(t, len(scenarios), summary.Total)
}

func TestLoadFixtures(t *testing.T) {
	fixtures, err := LoadFixtures(strings.NewReader(`[
		{"id": 7, "input": {"sex": "female", "age": 60, "weight": 70, "height": null,
			"creatinine": 90, "mg_per_kg": 6, "first_dose_hour": 12},
		 "expected": {"first_dose_mg": 400, "third_dose_mg": null, "instructions": ["", "", ""]}}
	]`))
	require.NoError(t, err)
	require.Len(t, fixtures, 1)

	fx := fixtures[0]
	assert.Equal(t, 7, fx.ID)
	assert.Nil(t, fx.Input.Height)
	assert.Equal(t, 400.0, *fx.Expected.FirstDoseMg)
	assert.Nil(t, fx.Expected.ThirdDoseMg)

	_, err = LoadFixtures(strings.NewReader(`{`))
	assert.Error(t, err)
}
