package model

import "strings"

// Sex is the normalized patient sex used by every formula downstream of the
// input boundary.
type Sex int

const (
	SexUnknown Sex = iota
	SexFemale
	SexMale
)

var sexLabels = map[string]Sex{
	"male":   SexMale,
	"mann":   SexMale,
	"m":      SexMale,
	"female": SexFemale,
	"kvinne": SexFemale,
	"f":      SexFemale,
	"k":      SexFemale,
}

// ParseSex maps a free-form label (English or Norwegian, any case) to a Sex.
func ParseSex(label string) (Sex, bool) {
	sex, ok := sexLabels[strings.ToLower(strings.TrimSpace(label))]
	return sex, ok
}

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return "unknown"
	}
}

// IsMale reports whether the male variant of a formula applies. Unknown is
// treated as female.
func (s Sex) IsMale() bool {
	return s == SexMale
}

// PatientInput holds the structurally validated calculator inputs.
type PatientInput struct {
	Sex             Sex
	AgeYears        float64
	WeightKg        float64
	HeightCm        *float64
	CreatinineUmolL float64
	MgPerKg         float64
	FirstDoseHour   int
}
