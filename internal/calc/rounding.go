package calc

import "math"

const (
	doseStepMg = 40
	maxDoseMg  = 600
)

// RoundToMultiple rounds value to the nearest multiple. Exact ties go up.
func RoundToMultiple(value float64, multiple int) int {
	quotient := value / float64(multiple)
	lower := math.Floor(quotient)
	upper := math.Ceil(quotient)

	chosen := upper
	if quotient-lower < upper-quotient {
		chosen = lower
	}
	return int(chosen) * multiple
}

// capDose clamps a raw dose to the maximum or rounds it to the dose step.
func capDose(raw float64) int {
	if raw > maxDoseMg {
		return maxDoseMg
	}
	return RoundToMultiple(raw, doseStepMg)
}
