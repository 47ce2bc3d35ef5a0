package calc

import (
	"math"

	"github.com/jwalitptl/gentacalc/internal/model"
)

const (
	creatinineFloor     = 60.0
	cockcroftConstant   = 0.814
	femaleFactor        = 0.85
	surrogateBMI        = 29.9
	obeseBMI            = 30.0
	bandNormalAbove     = 59.0
	bandModerateAtLeast = 40.0
)

// RenalMetrics are the renal-function estimates used for banding.
type RenalMetrics struct {
	CreatinineUsed       float64
	CockcroftGaultMale   *float64
	CockcroftGaultFemale *float64
	SurrogateGFR         *float64
	ChosenGFR            *float64
	Band                 *model.GFRBand
}

// ComputeRenalMetrics estimates creatinine clearance and picks the GFR that
// drives dosing.
func ComputeRenalMetrics(p model.PatientInput, w WeightMetrics) RenalMetrics {
	creatinine := max(p.CreatinineUmolL, creatinineFloor)
	r := RenalMetrics{CreatinineUsed: creatinine}

	cgWeight := p.WeightKg
	if w.BMI != nil && *w.BMI > obeseBMI && w.AdjustedBodyWeight != nil && *w.AdjustedBodyWeight != 0 {
		cgWeight = *w.AdjustedBodyWeight
	}

	// Both sexes floor the same raw ratio independently.
	raw := (140 - p.AgeYears) * cgWeight / (cockcroftConstant * creatinine)
	cgMale := math.Floor(raw)
	cgFemale := math.Floor(raw * femaleFactor)
	r.CockcroftGaultMale = &cgMale
	r.CockcroftGaultFemale = &cgFemale

	ownCG := cgFemale
	sexFactor := femaleFactor
	if p.Sex.IsMale() {
		ownCG = cgMale
		sexFactor = 1.0
	}

	if p.HeightCm != nil && *p.HeightCm != 0 {
		heightM := *p.HeightCm / 100
		surrogate := (140 - p.AgeYears) * surrogateBMI * (heightM * heightM) / (cockcroftConstant * creatinine) * sexFactor
		r.SurrogateGFR = &surrogate
	}

	chosen := ownCG
	if w.BMI != nil && *w.BMI > obeseBMI && r.SurrogateGFR != nil {
		chosen = max(ownCG, *r.SurrogateGFR)
	}
	r.ChosenGFR = &chosen

	band := bandFor(chosen)
	r.Band = &band
	return r
}

func bandFor(gfr float64) model.GFRBand {
	switch {
	case gfr > bandNormalAbove:
		return model.GFRBandNormal
	case gfr >= bandModerateAtLeast:
		return model.GFRBandModerate
	default:
		return model.GFRBandSevere
	}
}
