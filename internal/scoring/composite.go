package scoring

import "fmt"

// FactorCode identifies a contributing factor of the composite score. The
// recommendation rules key off codes, never off display labels.
type FactorCode string

const (
	FactorAge                FactorCode = "age"
	FactorSystolicBP         FactorCode = "systolic_bp"
	FactorBPMedication       FactorCode = "bp_medication"
	FactorDiabetes           FactorCode = "diabetes"
	FactorSmokingCurrent     FactorCode = "smoking_current"
	FactorSmokingFormer      FactorCode = "smoking_former"
	FactorAtrialFibrillation FactorCode = "atrial_fibrillation"
	FactorPreviousStrokeTIA  FactorCode = "previous_stroke_tia"
	FactorPalpitations       FactorCode = "palpitations"
	FactorFamilyHistory      FactorCode = "family_stroke_history"
	FactorSedentary          FactorCode = "sedentary"
	FactorImmobile           FactorCode = "immobile"
	FactorLDLHigh            FactorCode = "ldl_high"
	FactorLDLBorderline      FactorCode = "ldl_borderline"
)

// RiskFactor is one contribution to the composite score.
type RiskFactor struct {
	Code   FactorCode `json:"code"`
	Label  string     `json:"label"`
	Points int        `json:"points"`
}

// IsSmoking reports whether the factor describes current or past smoking.
func (f RiskFactor) IsSmoking() bool {
	return f.Code == FactorSmokingCurrent || f.Code == FactorSmokingFormer
}

// CompositeScore is the output of the six-month composite calculator. The sum
// of Factors[i].Points always equals Score.
type CompositeScore struct {
	Score   int
	Percent float64
	Factors []RiskFactor
}

// ─── BAND TABLES ──────────────────────────────────────────────────────────────

// band is one row of a lower-bound table. Tables are ordered from the highest
// bound down; a value falls into the first row whose min it reaches.
type band struct {
	min    float64
	points int
	label  string
}

func lookupBand(bands []band, v float64) (band, bool) {
	for _, b := range bands {
		if v >= b.min {
			return b, true
		}
	}
	return band{}, false
}

var ageBands = []band{
	{75, 12, "Age 75+"},
	{65, 10, "Age 65-74"},
	{55, 8, "Age 55-64"},
	{45, 5, "Age 45-54"},
	{35, 3, "Age 35-44"},
}

var systolicBands = []band{
	{180, 9, "Stage 3 hypertension (180+ mmHg)"},
	{160, 7, "Stage 2 hypertension (160-179 mmHg)"},
	{140, 5, "Stage 1 hypertension (140-159 mmHg)"},
	{130, 3, "High-normal blood pressure (130-139 mmHg)"},
	{120, 1, "Normal blood pressure (120-129 mmHg)"},
}

const (
	ldlHighThreshold       = 4.9
	ldlBorderlineThreshold = 3.0
)

// percentBands converts a composite score to a six-month risk percentage.
// Scores above the last maxScore map to percentAboveTable.
var percentBands = []struct {
	maxScore int
	percent  float64
}{
	{5, 0.1},
	{10, 0.5},
	{15, 1.2},
	{20, 2.8},
	{25, 5.5},
	{30, 9.0},
}

const percentAboveTable = 15.0

// SixMonthRiskPercent maps a composite score onto the fixed step table.
func SixMonthRiskPercent(score int) float64 {
	for _, b := range percentBands {
		if score <= b.maxScore {
			return b.percent
		}
	}
	return percentAboveTable
}

// ─── FACTORS ──────────────────────────────────────────────────────────────────

// factorFunc inspects one aspect of the record and reports its contribution.
type factorFunc func(r HealthRecord) (RiskFactor, bool)

func flag(set bool, code FactorCode, points int, label string) (RiskFactor, bool) {
	if !set {
		return RiskFactor{}, false
	}
	return RiskFactor{Code: code, Label: label, Points: points}, true
}

// compositeFactors is evaluated in order; the order fixes the order of
// CompositeScore.Factors.
var compositeFactors = []factorFunc{
	func(r HealthRecord) (RiskFactor, bool) {
		b, ok := lookupBand(ageBands, r.Age)
		return flag(ok, FactorAge, b.points, b.label)
	},
	func(r HealthRecord) (RiskFactor, bool) {
		b, ok := lookupBand(systolicBands, r.SystolicBP)
		return flag(ok, FactorSystolicBP, b.points, b.label)
	},
	func(r HealthRecord) (RiskFactor, bool) {
		return flag(r.OnBloodPressureMeds, FactorBPMedication, 2, "Taking blood pressure medication")
	},
	func(r HealthRecord) (RiskFactor, bool) {
		return flag(r.HasDiabetes, FactorDiabetes, 4, "Diabetes")
	},
	func(r HealthRecord) (RiskFactor, bool) {
		switch r.Smoking {
		case SmokingCurrent:
			return flag(true, FactorSmokingCurrent, 5, "Current smoking")
		case SmokingFormer:
			return flag(true, FactorSmokingFormer, 2, "Former smoking")
		}
		return RiskFactor{}, false
	},
	func(r HealthRecord) (RiskFactor, bool) {
		return flag(r.HasAtrialFibrillation, FactorAtrialFibrillation, 6, "Atrial fibrillation")
	},
	func(r HealthRecord) (RiskFactor, bool) {
		return flag(r.PreviousStrokeTIA, FactorPreviousStrokeTIA, 8, "Previous stroke or TIA")
	},
	func(r HealthRecord) (RiskFactor, bool) {
		return flag(r.Palpitations == FrequencyFrequent, FactorPalpitations, 2, "Frequent palpitations")
	},
	func(r HealthRecord) (RiskFactor, bool) {
		return flag(r.FamilyStrokeHistory, FactorFamilyHistory, 2, "Family history of stroke")
	},
	func(r HealthRecord) (RiskFactor, bool) {
		switch r.Activity {
		case ActivitySedentary:
			return flag(true, FactorSedentary, 1, "Sedentary lifestyle")
		case ActivityImmobile:
			return flag(true, FactorImmobile, 2, "Immobile lifestyle")
		}
		return RiskFactor{}, false
	},
	func(r HealthRecord) (RiskFactor, bool) {
		switch {
		case r.LDLCholesterol >= ldlHighThreshold:
			return flag(true, FactorLDLHigh, 3,
				fmt.Sprintf("High LDL cholesterol (%g mmol/L)", r.LDLCholesterol))
		case r.LDLCholesterol >= ldlBorderlineThreshold:
			return flag(true, FactorLDLBorderline, 1,
				fmt.Sprintf("Borderline LDL cholesterol (%g mmol/L)", r.LDLCholesterol))
		}
		return RiskFactor{}, false
	},
}

// CalculateComposite sums the eleven composite factors and converts the total
// to the six-month risk percentage.
func CalculateComposite(r HealthRecord) CompositeScore {
	var out CompositeScore
	for _, f := range compositeFactors {
		if rf, ok := f(r); ok {
			out.Score += rf.Points
			out.Factors = append(out.Factors, rf)
		}
	}
	out.Percent = SixMonthRiskPercent(out.Score)
	return out
}
