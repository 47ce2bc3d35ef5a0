package calc

import (
	"math"
	"time"

	"github.com/jwalitptl/gentacalc/internal/model"
)

// CautionText replaces every instruction when the GFR is too low for dosing.
const CautionText = " Gentamicin anbefales ikke ved GFR <40.  "

const (
	noonHour           = 12
	reductionGraceHrs  = 3
	reductionPerHour   = 0.04167
	secondDoseWindow   = 19
	earlyMorningCutoff = 7
	moderateDelayHours = 36
)

// DoseResult holds the rounded doses and the administration instructions.
// Doses are nil when they must not be given.
type DoseResult struct {
	FirstDoseMg  *int
	SecondDoseMg *int
	ThirdDoseMg  *int
	Instructions [3]string
}

// RawFirstDose is the unrounded first dose in mg.
func RawFirstDose(p model.PatientInput, w WeightMetrics) float64 {
	return p.MgPerKg * w.DosingWeight
}

// ComputeDoses derives up to three doses and their timing from the GFR band.
// now is the reference time; only its date and location are used for
// scheduling.
func ComputeDoses(p model.PatientInput, w WeightMetrics, r RenalMetrics, now time.Time) DoseResult {
	if r.Band == nil || *r.Band == model.GFRBandSevere {
		return DoseResult{Instructions: [3]string{CautionText, CautionText, CautionText}}
	}
	band := *r.Band

	firstRaw := RawFirstDose(p, w)
	first := capDose(firstRaw)

	var second int
	var third *int
	if band == model.GFRBandModerate {
		second = first
	} else {
		offset := p.FirstDoseHour - noonHour
		if p.FirstDoseHour < noonHour {
			offset += 24
		}
		if offset > secondDoseWindow {
			second = first
		} else {
			second = capDose(math.Min(maxDoseMg, firstRaw) * (1 - reductionFactor(offset)))
		}
		t := capDose(firstRaw)
		third = &t
	}

	return DoseResult{
		FirstDoseMg:  &first,
		SecondDoseMg: &second,
		ThirdDoseMg:  third,
		Instructions: instructions(band, p.FirstDoseHour, now),
	}
}

// reductionFactor scales the second dose down the later past noon the first
// dose was given.
func reductionFactor(offset int) float64 {
	if offset <= reductionGraceHrs {
		return 0
	}
	return math.Min(float64(offset)*reductionPerHour, 1)
}

func instructions(band model.GFRBand, hour int, now time.Time) [3]string {
	first := atHour(now, 0, hour)

	if band == model.GFRBandModerate {
		return [3]string{
			" Gis umiddelbart  -  " + formatTimestamp(first),
			" Gis 36 timer etter dose 1  -  " + formatTimestamp(atHour(now, 0, hour+moderateDelayHours)),
			" Tredje dose Gentamicin skal ikke gis",
		}
	}

	secondDay, thirdDay := 0, 1
	if hour > earlyMorningCutoff {
		secondDay, thirdDay = 1, 2
	}
	return [3]string{
		" Gis umiddelbart  -   " + formatTimestamp(first),
		" Gis " + formatTimestamp(atHour(now, secondDay, noonHour)),
		" Gis " + formatTimestamp(atHour(now, thirdDay, noonHour)),
	}
}
