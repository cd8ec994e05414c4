package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// MinAge is the youngest age the engine will assess.
const MinAge = 15

// ErrInvalidInput is returned (wrapped) by Evaluate when the record cannot be
// assessed. It is never returned for missing optional fields, which default.
var ErrInvalidInput = errors.New("scoring: invalid input")

// RiskResult is the complete output of one evaluation. It is built fresh on
// every call and shares no memory with other results.
type RiskResult struct {
	SixMonthRisk   float64   `json:"six_month_risk"`
	RiskLevel      RiskLevel `json:"risk_level"`
	CompositeScore int       `json:"framingham_score"`

	// ABCD2 is nil unless the record reports a previous stroke/TIA.
	ABCD2 *TIAScore `json:"abcd2,omitempty"`
	// CHA2DS2VASc is nil unless the record reports atrial fibrillation.
	CHA2DS2VASc *AFibScore `json:"chads2_vasc,omitempty"`

	BMI         float64     `json:"bmi"`
	BMICategory BMICategory `json:"bmi_category"`

	RiskFactors       []RiskFactor `json:"risk_factors"`
	Recommendations   []string     `json:"recommendations"`
	RecommendationIDs []string     `json:"recommendation_ids"`
	WarningFlags      []string     `json:"warning_flags"`
}

// ABCD2Score returns the TIA follow-up score; ok is false when not applicable.
func (r RiskResult) ABCD2Score() (score int, ok bool) {
	if r.ABCD2 == nil {
		return 0, false
	}
	return r.ABCD2.Score, true
}

// CHA2DS2VAScScore returns the atrial-fibrillation score; ok is false when not
// applicable.
func (r RiskResult) CHA2DS2VAScScore() (score int, ok bool) {
	if r.CHA2DS2VASc == nil {
		return 0, false
	}
	return r.CHA2DS2VASc.Score, true
}

// MarshalJSON adds the flat abcd2_score / chads2_vasc_score fields, which are
// null when the sub-score does not apply, and the display labels next to the
// lowercase risk_level and bmi_category codes.
func (r RiskResult) MarshalJSON() ([]byte, error) {
	type plain RiskResult
	out := struct {
		plain
		RiskLevelLabel   string `json:"risk_level_label"`
		BMICategoryLabel string `json:"bmi_category_label"`
		ABCD2Score       *int   `json:"abcd2_score"`
		CHA2DS2VAScScore *int   `json:"chads2_vasc_score"`
	}{
		plain:            plain(r),
		RiskLevelLabel:   r.RiskLevel.Label(),
		BMICategoryLabel: r.BMICategory.Label(),
	}

	if s, ok := r.ABCD2Score(); ok {
		out.ABCD2Score = &s
	}
	if s, ok := r.CHA2DS2VAScScore(); ok {
		out.CHA2DS2VAScScore = &s
	}
	return json.Marshal(out)
}

// Validate reports whether r can be evaluated. Only the age floor is enforced
// here; every other field has a benign default.
func Validate(r HealthRecord) error {
	if math.IsNaN(r.Age) || r.Age < MinAge {
		return fmt.Errorf("%w: age %g is below the minimum of %d", ErrInvalidInput, r.Age, MinAge)
	}
	return nil
}

// Evaluate computes the full RiskResult for r. It either succeeds completely
// or returns an error wrapping ErrInvalidInput; no partial result is returned.
//
// Evaluate is a pure function of r and is safe to call concurrently.
func Evaluate(r HealthRecord) (RiskResult, error) {
	if err := Validate(r); err != nil {
		return RiskResult{}, err
	}

	bmi, bmiCategory := CalculateBMI(r.WeightKg, r.HeightCm)
	composite := CalculateComposite(r)
	level := ClassifyRisk(composite.Percent)

	res := RiskResult{
		SixMonthRisk:   composite.Percent,
		RiskLevel:      level,
		CompositeScore: composite.Score,
		BMI:            bmi,
		BMICategory:    bmiCategory,
		RiskFactors:    append([]RiskFactor{}, composite.Factors...),
		WarningFlags:   WarningFlags(r),
	}

	if s, ok := CalculateABCD2(r); ok {
		res.ABCD2 = &s
	}
	if s, ok := CalculateCHA2DS2VASc(r); ok {
		res.CHA2DS2VASc = &s
	}

	advice := Recommend(AdviceInput{
		Level:   level,
		Record:  r,
		Factors: composite.Factors,
		BMI:     bmi,
	})
	res.Recommendations = make([]string, len(advice))
	res.RecommendationIDs = make([]string, len(advice))
	for i, a := range advice {
		res.Recommendations[i] = a.Text
		res.RecommendationIDs[i] = a.ID
	}

	return res, nil
}
