package model

// GFRBand buckets the chosen GFR into dosing eligibility classes.
type GFRBand int

const (
	GFRBandSevere   GFRBand = 1 // < 40, no dosing
	GFRBandModerate GFRBand = 2 // [40, 60)
	GFRBandNormal   GFRBand = 3 // >= 60
)

// CalculationContext exposes the intermediate metrics of a calculation for
// display and for differential testing against the reference spreadsheet.
type CalculationContext struct {
	BMI                  *float64 `json:"bmi"`
	IdealBodyWeight      *float64 `json:"ideal_body_weight"`
	AdjustedBodyWeight   *float64 `json:"adjusted_body_weight"`
	DosingWeight         float64  `json:"dosing_weight"`
	CockcroftGaultMale   *float64 `json:"cockcroft_gault_male"`
	CockcroftGaultFemale *float64 `json:"cockcroft_gault_female"`
	CockcroftGaultBMI    *float64 `json:"cockcroft_gault_bmi_29_9"`
	ChosenGFR            *float64 `json:"chosen_gfr"`
	CreatinineUsed       float64  `json:"creatinine_used"`
	GFRBand              *GFRBand `json:"gfr_band"`
}

// DosingPlan is the final result of one calculation. A nil dose means the
// dose must not be given.
type DosingPlan struct {
	FirstDoseMg  *int
	SecondDoseMg *int
	ThirdDoseMg  *int
	Instructions [3]string
	Alerts       []string
	AlertKeys    []string
	Context      CalculationContext
	Monitoring   *string
}

// PlanSummary is the dosing part of the wire representation.
type PlanSummary struct {
	FirstDoseMg  *int     `json:"first_dose_mg"`
	SecondDoseMg *int     `json:"second_dose_mg"`
	ThirdDoseMg  *int     `json:"third_dose_mg"`
	Instructions []string `json:"instructions"`
	Alerts       []string `json:"alerts"`
	Monitoring   *string  `json:"monitoring"`
}

// PlanResponse is the flat structure returned by the API and the CLI.
type PlanResponse struct {
	Plan    PlanSummary        `json:"plan"`
	Context CalculationContext `json:"context"`
}

func NewPlanResponse(p DosingPlan) PlanResponse {
	alerts := make([]string, len(p.Alerts))
	copy(alerts, p.Alerts)

	return PlanResponse{
		Plan: PlanSummary{
			FirstDoseMg:  p.FirstDoseMg,
			SecondDoseMg: p.SecondDoseMg,
			ThirdDoseMg:  p.ThirdDoseMg,
			Instructions: p.Instructions[:],
			Alerts:       alerts,
			Monitoring:   p.Monitoring,
		},
		Context: p.Context,
	}
}
