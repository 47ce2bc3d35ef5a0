package validator

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/gentacalc/internal/model"
	"github.com/jwalitptl/gentacalc/pkg/errors"
)

// Payload keys accepted by ParsePatient.
const (
	FieldSex           = "sex"
	FieldAge           = "age"
	FieldWeight        = "weight"
	FieldHeight        = "height"
	FieldCreatinine    = "creatinine"
	FieldMgPerKg       = "mg_per_kg"
	FieldFirstDoseHour = "first_dose_hour"
)

const (
	msgSex        = "Kjønn må være 'kvinne' eller 'mann'"
	msgWholeHour  = "Klokkeslett for første dose må være en hel time"
	labelHour     = "Klokkeslett for første dose"
	ruleAge       = "gte=16,lte=110"
	ruleWeight    = "gte=35,lte=250"
	ruleHeight    = "gte=130,lte=210"
	ruleCreat     = "gte=30,lte=1000"
	ruleMgPerKg   = "gte=3,lte=7"
	ruleFirstHour = "gte=1,lte=24"
)

// Validator checks raw calculator payloads
type Validator struct {
	validate *playground.Validate
}

func New() *Validator {
	return &Validator{validate: playground.New()}
}

var defaultValidator = New()

// ParsePatient validates a raw payload with the package default validator.
func ParsePatient(payload map[string]any) (model.PatientInput, error) {
	return defaultValidator.ParsePatient(payload)
}

// ParsePatient converts a raw payload of JSON numbers or form strings into a
// PatientInput. Fields are checked in a fixed order and the first failure is
// returned as a validation AppError carrying the user-facing message.
func (v *Validator) ParsePatient(payload map[string]any) (model.PatientInput, error) {
	sexLabel, _ := payload[FieldSex].(string)
	sex, ok := model.ParseSex(sexLabel)
	if !ok {
		return model.PatientInput{}, errors.NewValidation(msgSex)
	}

	age, err := v.requireNumber(payload, FieldAge, "Alder", ruleAge)
	if err != nil {
		return model.PatientInput{}, err
	}
	weight, err := v.requireNumber(payload, FieldWeight, "Vekt", ruleWeight)
	if err != nil {
		return model.PatientInput{}, err
	}
	height, err := v.optionalNumber(payload, FieldHeight, "Høyde", ruleHeight)
	if err != nil {
		return model.PatientInput{}, err
	}
	creatinine, err := v.requireNumber(payload, FieldCreatinine, "Kreatinin", ruleCreat)
	if err != nil {
		return model.PatientInput{}, err
	}
	mgPerKg, err := v.requireNumber(payload, FieldMgPerKg, "Dose (mg/kg)", ruleMgPerKg)
	if err != nil {
		return model.PatientInput{}, err
	}
	hour, err := v.requireNumber(payload, FieldFirstDoseHour, labelHour, ruleFirstHour)
	if err != nil {
		return model.PatientInput{}, err
	}
	if hour != math.Trunc(hour) {
		return model.PatientInput{}, errors.NewValidation(msgWholeHour)
	}

	return model.PatientInput{
		Sex:             sex,
		AgeYears:        age,
		WeightKg:        weight,
		HeightCm:        height,
		CreatinineUmolL: creatinine,
		MgPerKg:         mgPerKg,
		FirstDoseHour:   int(hour),
	}, nil
}

func (v *Validator) requireNumber(payload map[string]any, key, label, rule string) (float64, error) {
	value, err := v.optionalNumber(payload, key, label, rule)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, errors.NewValidation(label + " må fylles ut")
	}
	return *value, nil
}

// optionalNumber returns nil for absent or empty values.
func (v *Validator) optionalNumber(payload map[string]any, key, label, rule string) (*float64, error) {
	raw, present := payload[key]
	if !present || raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok && s == "" {
		return nil, nil
	}

	value, ok := toFloat(raw)
	if !ok {
		return nil, errors.NewValidation(label + " må være et tall")
	}
	if err := v.validate.Var(value, rule); err != nil {
		return nil, boundError(label, err)
	}
	return &value, nil
}

func boundError(label string, err error) error {
	var fieldErrs playground.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewBadRequest(label+" er ugyldig", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "gte":
		return errors.NewValidation(fmt.Sprintf("%s må være minst %s", label, fe.Param()))
	case "lte":
		return errors.NewValidation(fmt.Sprintf("%s må være høyst %s", label, fe.Param()))
	default:
		return errors.NewBadRequest(label+" er ugyldig", err)
	}
}

func toFloat(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
