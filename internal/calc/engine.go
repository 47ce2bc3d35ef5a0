// Package calc implements the gentamicin dosing rules. Everything in it is a
// pure function of the patient input and a reference time.
package calc

import (
	"errors"
	"time"

	"github.com/jwalitptl/gentacalc/internal/model"
)

// MinAgeYears is the youngest patient the calculator supports.
const MinAgeYears = 16

// ErrUnderAge is returned for patients younger than MinAgeYears.
var ErrUnderAge = errors.New("patient is under the minimum supported age")

const monitoringHour = 8

// Engine composes the calculation stages into a dosing plan.
type Engine struct {
	texts TextSource
}

func NewEngine(texts TextSource) *Engine {
	return &Engine{texts: texts}
}

// Calculate produces the dosing plan for p relative to now.
func (e *Engine) Calculate(p model.PatientInput, now time.Time) (model.DosingPlan, error) {
	if p.AgeYears < MinAgeYears {
		return model.DosingPlan{}, ErrUnderAge
	}

	w := ComputeWeightMetrics(p)
	r := ComputeRenalMetrics(p, w)
	doses := ComputeDoses(p, w, r, now)
	alerts, keys := ComposeAlerts(e.texts, EvaluateAlerts(p, w, r))

	return model.DosingPlan{
		FirstDoseMg:  doses.FirstDoseMg,
		SecondDoseMg: doses.SecondDoseMg,
		ThirdDoseMg:  doses.ThirdDoseMg,
		Instructions: doses.Instructions,
		Alerts:       alerts,
		AlertKeys:    keys,
		Monitoring:   Monitoring(now, r.Band, p.FirstDoseHour),
		Context: model.CalculationContext{
			BMI:                  w.BMI,
			IdealBodyWeight:      w.IdealBodyWeight,
			AdjustedBodyWeight:   w.AdjustedBodyWeight,
			DosingWeight:         w.DosingWeight,
			CockcroftGaultMale:   r.CockcroftGaultMale,
			CockcroftGaultFemale: r.CockcroftGaultFemale,
			CockcroftGaultBMI:    r.SurrogateGFR,
			ChosenGFR:            r.ChosenGFR,
			CreatinineUsed:       r.CreatinineUsed,
			GFRBand:              r.Band,
		},
	}, nil
}

// Monitoring returns when continued use should be reviewed, or nil when no
// review applies.
func Monitoring(ref time.Time, band *model.GFRBand, firstHour int) *string {
	if band == nil {
		return nil
	}

	var days int
	switch {
	case *band >= model.GFRBandNormal:
		days = 3
		if firstHour >= 1 && firstHour <= 7 {
			days = 2
		}
	case *band == model.GFRBandModerate:
		days = 2
		if firstHour >= 12 && firstHour <= 24 {
			days = 3
		}
	default:
		return nil
	}

	text := "Vurder videre bruk: " + formatTimestamp(atHour(ref, days, monitoringHour))
	return &text
}
