package scoring_test

import (
	"reflect"
	"testing"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// ─── ABCD2 ────────────────────────────────────────────────────────────────────

func TestCalculateABCD2_NotApplicableWithoutPriorTIA(t *testing.T) {
	_, ok := scoring.CalculateABCD2(scoring.HealthRecord{
		Age: 80, SystolicBP: 200, LimbWeakness: true, TIASymptomMinutes: 120, HasDiabetes: true,
	})
	if ok {
		t.Error("expected not applicable")
	}
}

func TestCalculateABCD2(t *testing.T) {
	tests := []struct {
		name   string
		rec    scoring.HealthRecord
		want   int
		want2d float64
		want7d float64
	}{
		{"nothing", scoring.HealthRecord{}, 0, 1.0, 1.2},
		{"age 60", scoring.HealthRecord{Age: 60}, 1, 1.0, 1.2},
		{"age 59", scoring.HealthRecord{Age: 59}, 0, 1.0, 1.2},
		{"systolic 140", scoring.HealthRecord{SystolicBP: 140}, 1, 1.0, 1.2},
		{"diastolic 90", scoring.HealthRecord{DiastolicBP: 90}, 1, 1.0, 1.2},
		{"both bp only once", scoring.HealthRecord{SystolicBP: 160, DiastolicBP: 100}, 1, 1.0, 1.2},
		{"limb weakness", scoring.HealthRecord{LimbWeakness: true}, 2, 1.0, 1.2},
		{"speech only", scoring.HealthRecord{SpeechDisturbance: true}, 1, 1.0, 1.2},
		{"limb takes precedence", scoring.HealthRecord{LimbWeakness: true, SpeechDisturbance: true}, 2, 1.0, 1.2},
		{"duration 9", scoring.HealthRecord{TIASymptomMinutes: 9}, 0, 1.0, 1.2},
		{"duration 10", scoring.HealthRecord{TIASymptomMinutes: 10}, 1, 1.0, 1.2},
		{"duration 59", scoring.HealthRecord{TIASymptomMinutes: 59}, 1, 1.0, 1.2},
		{"duration 60", scoring.HealthRecord{TIASymptomMinutes: 60}, 2, 1.0, 1.2},
		{"diabetes", scoring.HealthRecord{HasDiabetes: true}, 1, 1.0, 1.2},
		{"score 4", scoring.HealthRecord{Age: 65, LimbWeakness: true, HasDiabetes: true}, 4, 4.1, 5.9},
		{"score 5", scoring.HealthRecord{Age: 65, LimbWeakness: true, TIASymptomMinutes: 10, HasDiabetes: true}, 5, 8.1, 11.7},
		{"score 7", scoring.HealthRecord{Age: 65, SystolicBP: 150, LimbWeakness: true, TIASymptomMinutes: 60, HasDiabetes: true}, 7, 8.1, 11.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rec.PreviousStrokeTIA = true
			got, ok := scoring.CalculateABCD2(tt.rec)
			if !ok {
				t.Fatal("expected applicable")
			}
			if got.Score != tt.want || got.TwoDayRisk != tt.want2d || got.SevenDayRisk != tt.want7d {
				t.Errorf("got %+v, want score=%d 2d=%v 7d=%v", got, tt.want, tt.want2d, tt.want7d)
			}
		})
	}
}

// ─── CHA2DS2-VASc ─────────────────────────────────────────────────────────────

func TestChadsVascAnnualRisk_TableVerbatim(t *testing.T) {
	want := []float64{0.0, 1.3, 2.2, 3.2, 4.0, 6.7, 9.8, 9.6, 12.5, 15.2}
	for score, w := range want {
		if got := scoring.ChadsVascAnnualRisk(score); got != w {
			t.Errorf("score %d: got %v, want %v", score, got, w)
		}
	}
	// The 6 → 7 step goes down in the published table.
	if scoring.ChadsVascAnnualRisk(7) >= scoring.ChadsVascAnnualRisk(6) {
		t.Error("score 7 must stay below score 6")
	}
	for _, score := range []int{10, 11, 99} {
		if got := scoring.ChadsVascAnnualRisk(score); got != 15.2 {
			t.Errorf("score %d: got %v, want clamp to 15.2", score, got)
		}
	}
}

func TestCalculateCHA2DS2VASc_NotApplicableWithoutAF(t *testing.T) {
	if _, ok := scoring.CalculateCHA2DS2VASc(scoring.HealthRecord{Age: 90, HasDiabetes: true}); ok {
		t.Error("expected not applicable")
	}
}

func TestCalculateCHA2DS2VASc(t *testing.T) {
	tests := []struct {
		name     string
		rec      scoring.HealthRecord
		want     int
		criteria []string
	}{
		{"nothing", scoring.HealthRecord{Age: 40}, 0, []string{}},
		{"heart failure symptoms", scoring.HealthRecord{Age: 40, ShortnessOfBreath: scoring.FrequencyFrequent}, 1,
			[]string{"Heart failure symptoms"}},
		{"hypertension by bp", scoring.HealthRecord{Age: 40, SystolicBP: 140}, 1, []string{"Hypertension"}},
		{"hypertension by meds", scoring.HealthRecord{Age: 40, OnBloodPressureMeds: true}, 1, []string{"Hypertension"}},
		{"age 65", scoring.HealthRecord{Age: 65}, 1, []string{"Age 65-74"}},
		{"age 75", scoring.HealthRecord{Age: 75}, 2, []string{"Age 75+"}},
		{"female under 65", scoring.HealthRecord{Age: 64, Gender: scoring.GenderFemale}, 0, []string{}},
		{"female 65", scoring.HealthRecord{Age: 65, Gender: scoring.GenderFemale}, 2,
			[]string{"Age 65-74", "Female aged 65+"}},
		{"male 80", scoring.HealthRecord{Age: 80, Gender: scoring.GenderMale}, 2, []string{"Age 75+"}},
		{"stroke", scoring.HealthRecord{Age: 40, PreviousStrokeTIA: true}, 2, []string{"Previous stroke or TIA"}},
		{"vascular", scoring.HealthRecord{Age: 40, VascularDisease: true}, 1, []string{"Vascular disease"}},
		{"everything", scoring.HealthRecord{
			Age: 80, Gender: scoring.GenderFemale, ShortnessOfBreath: scoring.FrequencyFrequent,
			SystolicBP: 150, HasDiabetes: true, PreviousStrokeTIA: true, VascularDisease: true,
		}, 9, []string{
			"Heart failure symptoms", "Hypertension", "Age 75+", "Diabetes",
			"Previous stroke or TIA", "Vascular disease", "Female aged 65+",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rec.HasAtrialFibrillation = true
			got, ok := scoring.CalculateCHA2DS2VASc(tt.rec)
			if !ok {
				t.Fatal("expected applicable")
			}
			if got.Score != tt.want {
				t.Errorf("score: got %d, want %d", got.Score, tt.want)
			}
			if !reflect.DeepEqual(got.Criteria, tt.criteria) {
				t.Errorf("criteria: got %v, want %v", got.Criteria, tt.criteria)
			}
			if got.AnnualRisk != scoring.ChadsVascAnnualRisk(tt.want) {
				t.Errorf("annual risk: got %v", got.AnnualRisk)
			}
		})
	}
}
