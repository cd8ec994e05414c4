package scoring_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// ─── BMI ──────────────────────────────────────────────────────────────────────

func TestCalculateBMI(t *testing.T) {
	tests := []struct {
		name    string
		weight  float64
		height  float64
		wantBMI float64
		wantCat scoring.BMICategory
	}{
		{"normal", 70, 170, 24.2, scoring.BMINormal},
		{"obese", 100, 170, 34.6, scoring.BMIObese},
		{"underweight", 45, 170, 15.6, scoring.BMIUnderweight},
		{"overweight", 80, 170, 27.7, scoring.BMIOverweight},
		{"half rounds up", 97, 200, 24.3, scoring.BMINormal},
		{"24.95 rounds into overweight", 99.8, 200, 25, scoring.BMIOverweight},
		{"zero weight", 0, 170, 0, scoring.BMIInsufficientData},
		{"zero height", 70, 0, 0, scoring.BMIInsufficientData},
		{"negative height", 70, -170, 0, scoring.BMIInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bmi, cat := scoring.CalculateBMI(tt.weight, tt.height)
			if bmi != tt.wantBMI || cat != tt.wantCat {
				t.Errorf("got (%v, %q), want (%v, %q)", bmi, cat, tt.wantBMI, tt.wantCat)
			}
		})
	}
}

func TestCalculateBMI_BandLowerBoundsInclusive(t *testing.T) {
	// height 100cm → bmi == weight
	tests := []struct {
		weight float64
		want   scoring.BMICategory
	}{
		{18.4, scoring.BMIUnderweight},
		{18.5, scoring.BMINormal},
		{24.9, scoring.BMINormal},
		{25, scoring.BMIOverweight},
		{29.9, scoring.BMIOverweight},
		{30, scoring.BMIObese},
	}
	for _, tt := range tests {
		if _, got := scoring.CalculateBMI(tt.weight, 100); got != tt.want {
			t.Errorf("bmi %v: got %q, want %q", tt.weight, got, tt.want)
		}
	}
}

func TestBMICategoryLabel(t *testing.T) {
	if got := scoring.BMIInsufficientData.Label(); got != "Insufficient data" {
		t.Errorf("got %q", got)
	}
	if got := scoring.BMINormal.Label(); got != "Normal" {
		t.Errorf("got %q", got)
	}
}

// ─── RISK LEVEL ───────────────────────────────────────────────────────────────

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		percent float64
		want    scoring.RiskLevel
	}{
		{0, scoring.LevelLow},
		{0.99, scoring.LevelLow},
		{1.0, scoring.LevelModerate},
		{2.99, scoring.LevelModerate},
		{3.0, scoring.LevelHigh},
		{9.99, scoring.LevelHigh},
		{10.0, scoring.LevelCritical},
		{15.0, scoring.LevelCritical},
	}
	for _, tt := range tests {
		if got := scoring.ClassifyRisk(tt.percent); got != tt.want {
			t.Errorf("ClassifyRisk(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

// ─── Evaluate ─────────────────────────────────────────────────────────────────

func TestEvaluate_AgeBelowMinimumIsInvalidInput(t *testing.T) {
	for _, age := range []float64{0, 10, 14.9} {
		_, err := scoring.Evaluate(scoring.HealthRecord{Age: age, SystolicBP: 200})
		if !errors.Is(err, scoring.ErrInvalidInput) {
			t.Errorf("age=%v: expected ErrInvalidInput, got %v", age, err)
		}
	}
	if _, err := scoring.Evaluate(scoring.HealthRecord{Age: 15}); err != nil {
		t.Errorf("age=15: unexpected error %v", err)
	}
}

func TestEvaluate_MinimalRecordIsLowRisk(t *testing.T) {
	res, err := scoring.Evaluate(scoring.HealthRecord{Age: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CompositeScore != 0 || res.SixMonthRisk != 0.1 || res.RiskLevel != scoring.LevelLow {
		t.Errorf("got score=%d risk=%v level=%q", res.CompositeScore, res.SixMonthRisk, res.RiskLevel)
	}
	if res.BMICategory != scoring.BMIInsufficientData {
		t.Errorf("bmi category: got %q", res.BMICategory)
	}
	if len(res.WarningFlags) != 0 {
		t.Errorf("expected no warnings, got %v", res.WarningFlags)
	}
	if _, ok := res.ABCD2Score(); ok {
		t.Error("abcd2 should be absent")
	}
	if _, ok := res.CHA2DS2VAScScore(); ok {
		t.Error("chads2-vasc should be absent")
	}
}

func TestEvaluate_SubScorePresenceFollowsFlags(t *testing.T) {
	base := scoring.HealthRecord{
		Age: 80, Gender: scoring.GenderFemale, SystolicBP: 190, DiastolicBP: 100,
		HasDiabetes: true, LimbWeakness: true, TIASymptomMinutes: 90,
		VascularDisease: true, ShortnessOfBreath: scoring.FrequencyFrequent,
	}

	res, err := scoring.Evaluate(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ABCD2 != nil || res.CHA2DS2VASc != nil {
		t.Fatal("sub-scores must be absent when both flags are false")
	}

	withTIA := base
	withTIA.PreviousStrokeTIA = true
	res, _ = scoring.Evaluate(withTIA)
	if s, ok := res.ABCD2Score(); !ok || s != 7 {
		t.Errorf("abcd2: got (%d, %v), want (7, true)", s, ok)
	}
	if res.CHA2DS2VASc != nil {
		t.Error("chads2-vasc must be absent without atrial fibrillation")
	}

	withAF := base
	withAF.HasAtrialFibrillation = true
	res, _ = scoring.Evaluate(withAF)
	if res.ABCD2 != nil {
		t.Error("abcd2 must be absent without previous stroke/TIA")
	}
	// CHF 1 + HTN 1 + age 2 + diabetes 1 + vascular 1 + female 1 = 7
	if s, ok := res.CHA2DS2VAScScore(); !ok || s != 7 {
		t.Errorf("chads2-vasc: got (%d, %v), want (7, true)", s, ok)
	}
}

func TestEvaluate_FactorPointsSumToScore(t *testing.T) {
	rec := scoring.HealthRecord{
		Age: 58, SystolicBP: 150, OnBloodPressureMeds: true, Smoking: scoring.SmokingFormer,
		FamilyStrokeHistory: true, Activity: scoring.ActivitySedentary, LDLCholesterol: 3.4,
	}
	res, err := scoring.Evaluate(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0
	for _, f := range res.RiskFactors {
		sum += f.Points
	}
	// 8 + 5 + 2 + 2 + 2 + 1 + 1
	if res.CompositeScore != 21 || sum != 21 {
		t.Errorf("score=%d sum=%d, want 21", res.CompositeScore, sum)
	}
	if res.SixMonthRisk != 5.5 || res.RiskLevel != scoring.LevelHigh {
		t.Errorf("got risk=%v level=%q", res.SixMonthRisk, res.RiskLevel)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	rec := scoring.HealthRecord{
		Age: 72, Gender: scoring.GenderFemale, SystolicBP: 165, HasAtrialFibrillation: true,
		PreviousStrokeTIA: true, Smoking: scoring.SmokingCurrent, WeightKg: 90, HeightCm: 165,
	}
	first, err := scoring.Evaluate(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := scoring.Evaluate(rec)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("JSON differs:\n%s\n%s", a, b)
	}
}

func TestEvaluate_ConcurrentCallsAgree(t *testing.T) {
	rec := scoring.HealthRecord{Age: 66, SystolicBP: 145, HasDiabetes: true}
	want, _ := scoring.Evaluate(rec)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := scoring.Evaluate(rec)
			if err != nil || !reflect.DeepEqual(got, want) {
				t.Errorf("concurrent result mismatch: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestRiskResult_MarshalJSON_SubScoresNullWhenAbsent(t *testing.T) {
	res, _ := scoring.Evaluate(scoring.HealthRecord{Age: 40})
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"abcd2_score", "chads2_vasc_score"} {
		v, present := m[key]
		if !present || v != nil {
			t.Errorf("%s: want present and null, got %v (present=%v)", key, v, present)
		}
	}
	if m["risk_level"] != "low" || m["framingham_score"].(float64) != 3 {
		t.Errorf("unexpected body: %s", b)
	}
}

func TestRiskResult_MarshalJSON_CodesAndLabels(t *testing.T) {
	tests := []struct {
		name      string
		rec       scoring.HealthRecord
		level     string
		levelText string
		bmi       string
		bmiText   string
	}{
		{"low, no measurements", scoring.HealthRecord{Age: 40}, "low", "Low", "insufficient_data", "Insufficient data"},
		{"critical, obese", scoring.HealthRecord{Age: 80, SystolicBP: 185, HasAtrialFibrillation: true,
			PreviousStrokeTIA: true, WeightKg: 100, HeightCm: 170}, "critical", "Critical", "obese", "Obese"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := scoring.Evaluate(tt.rec)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			b, err := json.Marshal(res)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if m["risk_level"] != tt.level || m["risk_level_label"] != tt.levelText {
				t.Errorf("risk level: %v / %v", m["risk_level"], m["risk_level_label"])
			}
			if m["bmi_category"] != tt.bmi || m["bmi_category_label"] != tt.bmiText {
				t.Errorf("bmi category: %v / %v", m["bmi_category"], m["bmi_category_label"])
			}
		})
	}
}

func TestRiskResult_MarshalJSON_SubScoresPresent(t *testing.T) {
	res, _ := scoring.Evaluate(scoring.HealthRecord{
		Age: 70, HasAtrialFibrillation: true, PreviousStrokeTIA: true,
	})
	b, _ := json.Marshal(res)
	if !strings.Contains(string(b), `"abcd2_score":1`) {
		t.Errorf("expected abcd2_score 1 in %s", b)
	}
	// age 65-74: 1, stroke: 2
	if !strings.Contains(string(b), `"chads2_vasc_score":3`) {
		t.Errorf("expected chads2_vasc_score 3 in %s", b)
	}

	var back scoring.RiskResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s, ok := back.CHA2DS2VAScScore(); !ok || s != 3 {
		t.Errorf("round trip lost chads2-vasc: (%d, %v)", s, ok)
	}
}

// ─── ENUMERATIONS ─────────────────────────────────────────────────────────────

func TestHealthRecord_UnmarshalDefaultsAndEnums(t *testing.T) {
	var rec scoring.HealthRecord
	body := `{"age": 50, "gender": "female", "smoking": "current", "palpitations": "",
		"activity_level": "immobile", "unknown_field": 1}`
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Gender != scoring.GenderFemale || rec.Smoking != scoring.SmokingCurrent ||
		rec.Activity != scoring.ActivityImmobile || rec.Palpitations != scoring.FrequencyNever {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ShortnessOfBreath != scoring.FrequencyNever || rec.HasDiabetes {
		t.Error("unset fields must keep their benign default")
	}
}

func TestHealthRecord_UnknownEnumValueRejected(t *testing.T) {
	var rec scoring.HealthRecord
	if err := json.Unmarshal([]byte(`{"age": 50, "smoking": "sometimes"}`), &rec); err == nil {
		t.Error("expected error for unknown smoking status")
	}
}
