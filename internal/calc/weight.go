package calc

import (
	"github.com/jwalitptl/gentacalc/internal/model"
)

const (
	ibwBaseMale   = 50.0
	ibwBaseFemale = 45.5

	// The spreadsheet compares against 1.25 × IBW but doses from 1.249 × IBW.
	obesityThreshold  = 1.25
	obesityMultiplier = 1.249
)

// WeightMetrics are the anthropometric values derived from weight and height.
type WeightMetrics struct {
	BMI                *float64
	IdealBodyWeight    *float64
	AdjustedBodyWeight *float64
	DosingWeight       float64
}

// ComputeWeightMetrics derives BMI, IBW, ABW and the dosing weight. Values
// that need a height are nil when the height is missing.
func ComputeWeightMetrics(p model.PatientInput) WeightMetrics {
	weight := p.WeightKg
	m := WeightMetrics{DosingWeight: weight}

	if p.HeightCm == nil || *p.HeightCm <= 0 {
		return m
	}
	heightCm := *p.HeightCm

	heightM := heightCm / 100
	bmi := weight / (heightM * heightM)
	m.BMI = &bmi

	base := ibwBaseFemale
	if p.Sex.IsMale() {
		base = ibwBaseMale
	}
	ibw := base + 0.9*(heightCm-152)
	m.IdealBodyWeight = &ibw

	abw := ibw + 0.4*(weight-ibw)
	m.AdjustedBodyWeight = &abw

	if ibw*obesityThreshold <= weight {
		m.DosingWeight = max(abw, ibw*obesityMultiplier)
	}
	return m
}
