package calc

import (
	"github.com/jwalitptl/gentacalc/internal/model"
	"github.com/jwalitptl/gentacalc/internal/texts"
)

// TextSource resolves alert keys to display text.
type TextSource interface {
	Compose(key string) (string, bool)
}

// EvaluateAlerts returns the keys of every alert that applies, in display
// order. Alerts are evaluated regardless of GFR band.
func EvaluateAlerts(p model.PatientInput, w WeightMetrics, r RenalMetrics) []string {
	var keys []string

	if p.CreatinineUmolL < creatinineFloor {
		keys = append(keys, texts.KeyCreatinineFloor)
	}

	if w.BMI != nil {
		bmi := *w.BMI
		chosen := 0.0
		if r.ChosenGFR != nil {
			chosen = *r.ChosenGFR
		}
		switch {
		case bmi > 35 && chosen >= bandModerateAtLeast:
			keys = append(keys, texts.KeyBMIOver35)
		case bmi >= 30 && bmi < 35:
			keys = append(keys, texts.KeyBMI30To35)
		}
	}

	if RawFirstDose(p, w) > maxDoseMg {
		keys = append(keys, texts.KeyDoseOver600)
	}
	return keys
}

// ComposeAlerts resolves keys to texts. Keys without text are skipped, so the
// returned keys may be a subset of the input.
func ComposeAlerts(src TextSource, keys []string) (messages, resolved []string) {
	for _, key := range keys {
		text, ok := src.Compose(key)
		if !ok {
			continue
		}
		messages = append(messages, text)
		resolved = append(resolved, key)
	}
	return messages, resolved
}
