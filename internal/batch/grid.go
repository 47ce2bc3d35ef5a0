// Package batch runs the dosing engine over sampled input grids and compares
// the results against reference fixtures exported from the spreadsheet.
package batch

import (
	"fmt"
	"math/rand"

	"github.com/jwalitptl/gentacalc/internal/calc"
	"github.com/jwalitptl/gentacalc/internal/model"
)

// Grid value lists. Ages below the supported minimum are skipped when sampling.
var (
	AgeValues        = []float64{1, 5, 10, 15, 20, 25, 30, 40, 50, 60, 70, 80, 90, 100, 110}
	WeightValues     = []float64{35, 45, 55, 65, 75, 90, 110, 130, 160, 200, 250}
	HeightValues     = []float64{130, 140, 150, 160, 170, 180, 190, 200}
	CreatinineValues = []float64{30, 45, 60, 75, 90, 110, 150, 200, 300, 450, 600, 800, 1000}
	MgPerKgValues    = []float64{3, 4, 5, 6, 7}
	FirstDoseHours   = []int{1, 6, 8, 12, 18, 20, 23}
	SexValues        = []string{"female", "male"}
)

// DefaultSeed matches the seed the reference fixtures were sampled with.
const DefaultSeed int64 = 2024

// Scenario is one set of calculator inputs.
type Scenario struct {
	Sex           string   `json:"sex"`
	Age           float64  `json:"age"`
	Weight        float64  `json:"weight"`
	Height        *float64 `json:"height"`
	Creatinine    float64  `json:"creatinine"`
	MgPerKg       float64  `json:"mg_per_kg"`
	FirstDoseHour int      `json:"first_dose_hour"`
}

// Patient converts the scenario to engine input.
func (s Scenario) Patient() (model.PatientInput, error) {
	sex, ok := model.ParseSex(s.Sex)
	if !ok {
		return model.PatientInput{}, fmt.Errorf("unknown sex %q", s.Sex)
	}
	return model.PatientInput{
		Sex:             sex,
		AgeYears:        s.Age,
		WeightKg:        s.Weight,
		HeightCm:        s.Height,
		CreatinineUmolL: s.Creatinine,
		MgPerKg:         s.MgPerKg,
		FirstDoseHour:   s.FirstDoseHour,
	}, nil
}

// GridSize is the size of the full cartesian product, including the
// under-age rows that are never emitted.
func GridSize() int {
	return len(SexValues) * len(AgeValues) * len(WeightValues) * len(HeightValues) *
		len(CreatinineValues) * len(MgPerKgValues) * len(FirstDoseHours)
}

// GenerateScenarios walks the grid in a fixed order and keeps each row with
// probability limit/GridSize, stopping once limit rows are collected. The same
// seed always yields the same scenarios.
func GenerateScenarios(limit int, seed int64) []Scenario {
	if limit <= 0 {
		return nil
	}
	includeProb := min(1.0, float64(limit)/float64(GridSize()))
	rng := rand.New(rand.NewSource(seed))

	scenarios := make([]Scenario, 0, min(limit, GridSize()))
	for _, sex := range SexValues {
		for _, age := range AgeValues {
			if age < calc.MinAgeYears {
				continue
			}
			for _, weight := range WeightValues {
				for _, height := range HeightValues {
					for _, creatinine := range CreatinineValues {
						for _, mgPerKg := range MgPerKgValues {
							for _, hour := range FirstDoseHours {
								if len(scenarios) >= limit {
									return scenarios
								}
								if rng.Float64() <= includeProb {
									h := height
									scenarios = append(scenarios, Scenario{
										Sex:           sex,
										Age:           age,
										Weight:        weight,
										Height:        &h,
										Creatinine:    creatinine,
										MgPerKg:       mgPerKg,
										FirstDoseHour: hour,
									})
								}
							}
						}
					}
				}
			}
		}
	}
	return scenarios
}
