package calc

import (
	"time"

	"github.com/jwalitptl/gentacalc/internal/model"
)

var referenceNow = time.Date(2025, time.August, 24, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func patient(sex model.Sex, age, weight, height, creatinine, mgPerKg float64, hour int) model.PatientInput {
	return model.PatientInput{
		Sex:             sex,
		AgeYears:        age,
		WeightKg:        weight,
		HeightCm:        ptr(height),
		CreatinineUmolL: creatinine,
		MgPerKg:         mgPerKg,
		FirstDoseHour:   hour,
	}
}

func defaultPatient() model.PatientInput {
	return patient(model.SexFemale, 72, 49, 169, 77, 6, 23)
}

func doses(p model.PatientInput) DoseResult {
	w := ComputeWeightMetrics(p)
	return ComputeDoses(p, w, ComputeRenalMetrics(p, w), referenceNow)
}

type mapTexts map[string]string

func (m mapTexts) Compose(key string) (string, bool) {
	s, ok := m[key]
	return s, ok
}
