package questionnaire_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nyashahama/stroke-risk-backend/internal/questionnaire"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

func ptr[T any](v T) *T { return &v }

func validAnswers() questionnaire.Answers {
	return questionnaire.Answers{
		Age:         ptr(67.0),
		Gender:      ptr("female"),
		HeightCm:    ptr(165.0),
		WeightKg:    ptr(80.0),
		SystolicBP:  ptr(150.0),
		HasDiabetes: ptr(false),
		Smoking:     ptr("former"),
	}
}

// ─── Catalogue ────────────────────────────────────────────────────────────────

func TestQuestions_AgeBounds(t *testing.T) {
	qs, err := questionnaire.Questions()
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(qs) == 0 || qs[0].ID != "age" {
		t.Fatalf("first question should be age, got %+v", qs)
	}
	age := qs[0]
	if age.Min == nil || *age.Min != 15 || age.Max == nil || *age.Max != 100 || !age.Required {
		t.Errorf("age question: %+v", age)
	}
}

func TestQuestions_IDsMatchAnswerFields(t *testing.T) {
	qs, err := questionnaire.Questions()
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	ids := map[string]bool{}
	for _, q := range qs {
		ids[q.ID] = true
	}

	typ := reflect.TypeOf(questionnaire.Answers{})
	fields := map[string]bool{}
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		fields[name] = true
	}
	if !reflect.DeepEqual(ids, fields) {
		t.Errorf("catalogue ids %v\ndo not match answer fields %v", ids, fields)
	}
}

func TestQuestions_RequiredFieldsAreMarkedRequired(t *testing.T) {
	qs, _ := questionnaire.Questions()
	required := map[string]bool{}
	for _, q := range qs {
		if q.Required {
			required[q.ID] = true
		}
	}
	for _, f := range questionnaire.RequiredFields {
		if !required[f] {
			t.Errorf("%s should be required in the catalogue", f)
		}
	}
}

func TestQuestions_ReturnsCopy(t *testing.T) {
	a, _ := questionnaire.Questions()
	a[0].ID = "mutated"
	b, _ := questionnaire.Questions()
	if b[0].ID != "age" {
		t.Error("catalogue was mutated through a returned slice")
	}
}

// ─── Validate ─────────────────────────────────────────────────────────────────

func TestValidate_ValidAnswers(t *testing.T) {
	if msgs := questionnaire.Validate(validAnswers()); msgs != nil {
		t.Errorf("expected no messages, got %v", msgs)
	}
}

func TestValidate_EmptyReportsEveryRequiredFieldInOrder(t *testing.T) {
	got := questionnaire.Validate(questionnaire.Answers{})
	var want []string
	for _, f := range questionnaire.RequiredFields {
		want = append(want, questionnaire.MissingFieldMessage(f))
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestValidate_AgeMessageComesFirst(t *testing.T) {
	got := questionnaire.Validate(questionnaire.Answers{Age: ptr(12.0), Smoking: ptr("never")})
	want := []string{
		questionnaire.MinAgeMessage,
		"required field 'gender' is missing",
		"required field 'height_cm' is missing",
		"required field 'weight_kg' is missing",
		"required field 'systolic_bp' is missing",
		"required field 'has_diabetes' is missing",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestValidate_ZeroAndFalseCountAsAnswered(t *testing.T) {
	a := validAnswers()
	a.HasDiabetes = ptr(false)
	a.WeightKg = ptr(0.0)
	if msgs := questionnaire.Validate(a); msgs != nil {
		t.Errorf("expected no messages, got %v", msgs)
	}
}

func TestValidate_UnknownOption(t *testing.T) {
	a := validAnswers()
	a.Smoking = ptr("sometimes")
	a.ActivityLevel = "couch"
	got := questionnaire.Validate(a)
	want := []string{
		"field 'smoking' must be one of: never, former, current",
		"field 'activity_level' must be one of: active, sedentary, immobile",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestValidate_NegativeOptionalNumber(t *testing.T) {
	a := validAnswers()
	a.LDLCholesterol = ptr(-1.0)
	got := questionnaire.Validate(a)
	if len(got) != 1 || got[0] != "field 'ldl_cholesterol' must be at least 0" {
		t.Errorf("got %v", got)
	}
}

// ─── Record ───────────────────────────────────────────────────────────────────

func TestRecord_ConvertsAnswers(t *testing.T) {
	a := validAnswers()
	a.PreviousStrokeTIA = ptr(true)
	a.LimbWeakness = ptr(true)
	a.TIASymptomDuration = ptr(45.0)
	a.Palpitations = "frequent"

	rec, err := a.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	want := scoring.HealthRecord{
		Age:               67,
		Gender:            scoring.GenderFemale,
		HeightCm:          165,
		WeightKg:          80,
		SystolicBP:        150,
		Smoking:           scoring.SmokingFormer,
		PreviousStrokeTIA: true,
		LimbWeakness:      true,
		TIASymptomMinutes: 45,
		Palpitations:      scoring.FrequencyFrequent,
	}
	if rec != want {
		t.Errorf("got %+v\nwant %+v", rec, want)
	}
}

func TestRecord_InvalidAnswersReturnValidationError(t *testing.T) {
	_, err := questionnaire.Answers{}.Record()
	var verr *questionnaire.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T %v", err, err)
	}
	if len(verr.Messages) != len(questionnaire.RequiredFields) {
		t.Errorf("got %d messages", len(verr.Messages))
	}
}

func TestAnswersEvaluate(t *testing.T) {
	res, err := validAnswers().Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// age 10 + systolic 5 + former smoker 2 = 17 → 2.8% → moderate
	if res.CompositeScore != 17 || res.RiskLevel != scoring.LevelModerate {
		t.Errorf("got score=%d level=%q", res.CompositeScore, res.RiskLevel)
	}
}

func TestAnswers_DecodeFromJSON(t *testing.T) {
	body := `{"age": 50, "gender": "male", "height_cm": 180, "weight_kg": 90,
		"systolic_bp": 125, "has_diabetes": true, "smoking": "never", "extra": "ignored"}`
	a, err := questionnaire.DecodeAnswers([]byte(body))
	if err != nil {
		t.Fatalf("DecodeAnswers: %v", err)
	}
	rec, err := a.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !rec.HasDiabetes || rec.Gender != scoring.GenderMale {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestDecodeAnswers_WrongType(t *testing.T) {
	_, err := questionnaire.DecodeAnswers([]byte(`{"age": "fifty"}`))
	if err == nil || !strings.Contains(err.Error(), "decode answers") {
		t.Errorf("expected decode error, got %v", err)
	}
}

// ─── Save ─────────────────────────────────────────────────────────────────────

func TestSave(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := questionnaire.Save(dir, validAnswers(), now)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "assessment_20250304_050607.json" {
		t.Errorf("file name: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var saved map[string]any
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if saved["timestamp"] != "2025-03-04T05:06:07Z" {
		t.Errorf("timestamp: %v", saved["timestamp"])
	}
	if saved["app_version"] != "1.0" || saved["year"] != float64(2025) {
		t.Errorf("metadata: %v %v", saved["app_version"], saved["year"])
	}
	responses, ok := saved["responses"].(map[string]any)
	if !ok || responses["smoking"] != "former" || responses["age"] != float64(67) {
		t.Errorf("responses: %v", saved["responses"])
	}
}

func TestSave_MissingDirectory(t *testing.T) {
	_, err := questionnaire.Save(filepath.Join(t.TempDir(), "nope"), validAnswers(), time.Now())
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
