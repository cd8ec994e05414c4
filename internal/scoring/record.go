// Package scoring implements the stroke-risk engine: a deterministic mapping
// from a HealthRecord to a RiskResult. It performs no I/O, keeps no state
// between calls and imports nothing from internal/, so it can be tested and
// reused (HTTP, gRPC, CLI, worker) without a database.
package scoring

import (
	"fmt"
	"strings"
)

// ─── ENUMERATIONS ─────────────────────────────────────────────────────────────
//
// Every enumeration's zero value is its benign state. A HealthRecord built from
// partial answers therefore never gains points for a question that was skipped.

// Gender is the self-reported sex used by the CHA2DS2-VASc sex criterion.
type Gender uint8

const (
	GenderUnspecified Gender = iota
	GenderMale
	GenderFemale
)

// SmokingStatus is the self-reported smoking history.
type SmokingStatus uint8

const (
	SmokingNever SmokingStatus = iota
	SmokingFormer
	SmokingCurrent
)

// Frequency answers the "how often" symptom questions.
type Frequency uint8

const (
	FrequencyNever Frequency = iota
	FrequencyFrequent
)

// ActivityLevel is the self-reported lifestyle.
type ActivityLevel uint8

const (
	ActivityActive ActivityLevel = iota
	ActivitySedentary
	ActivityImmobile
)

var (
	genderNames    = [...]string{"", "male", "female"}
	smokingNames   = [...]string{"never", "former", "current"}
	frequencyNames = [...]string{"never", "frequent"}
	activityNames  = [...]string{"active", "sedentary", "immobile"}
)

// parseEnum maps s onto the index of names. An empty string yields the zero
// (benign) value.
func parseEnum(kind, s string, names []string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	for i, n := range names {
		if n != "" && n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("scoring: unknown %s %q", kind, s)
}

func (g Gender) String() string        { return genderNames[g] }
func (s SmokingStatus) String() string { return smokingNames[s] }
func (f Frequency) String() string     { return frequencyNames[f] }
func (a ActivityLevel) String() string { return activityNames[a] }

// ParseGender accepts "male", "female" or "" (unspecified).
func ParseGender(s string) (Gender, error) {
	i, err := parseEnum("gender", s, genderNames[:])
	return Gender(i), err
}

// ParseSmokingStatus accepts "never", "former", "current" or "" (never).
func ParseSmokingStatus(s string) (SmokingStatus, error) {
	i, err := parseEnum("smoking status", s, smokingNames[:])
	return SmokingStatus(i), err
}

// ParseFrequency accepts "never", "frequent" or "" (never).
func ParseFrequency(s string) (Frequency, error) {
	i, err := parseEnum("frequency", s, frequencyNames[:])
	return Frequency(i), err
}

// ParseActivityLevel accepts "active", "sedentary", "immobile" or "" (active).
func ParseActivityLevel(s string) (ActivityLevel, error) {
	i, err := parseEnum("activity level", s, activityNames[:])
	return ActivityLevel(i), err
}

func (g Gender) MarshalText() ([]byte, error)        { return []byte(g.String()), nil }
func (s SmokingStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (f Frequency) MarshalText() ([]byte, error)     { return []byte(f.String()), nil }
func (a ActivityLevel) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (g *Gender) UnmarshalText(b []byte) (err error) {
	*g, err = ParseGender(string(b))
	return err
}

func (s *SmokingStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSmokingStatus(string(b))
	return err
}

func (f *Frequency) UnmarshalText(b []byte) (err error) {
	*f, err = ParseFrequency(string(b))
	return err
}

func (a *ActivityLevel) UnmarshalText(b []byte) (err error) {
	*a, err = ParseActivityLevel(string(b))
	return err
}

// ─── INPUT ────────────────────────────────────────────────────────────────────

// HealthRecord is the self-reported input to Evaluate. Unset numeric fields are
// zero and unset flags/enumerations are their benign zero value; missing data
// must never raise the computed risk.
//
// LimbWeakness, SpeechDisturbance and TIASymptomMinutes are only consulted when
// PreviousStrokeTIA is true.
type HealthRecord struct {
	Age    float64 `json:"age"`
	Gender Gender  `json:"gender"`

	SystolicBP  float64 `json:"systolic_bp"`  // mmHg
	DiastolicBP float64 `json:"diastolic_bp"` // mmHg

	OnBloodPressureMeds   bool `json:"on_blood_pressure_meds"`
	HasDiabetes           bool `json:"has_diabetes"`
	HasAtrialFibrillation bool `json:"has_atrial_fibrillation"`
	PreviousStrokeTIA     bool `json:"previous_stroke_tia"`
	FamilyStrokeHistory   bool `json:"family_stroke_history"`
	VascularDisease       bool `json:"vascular_disease"`

	Smoking           SmokingStatus `json:"smoking"`
	Palpitations      Frequency     `json:"palpitations"`
	ShortnessOfBreath Frequency     `json:"shortness_of_breath"`
	DizzinessFainting Frequency     `json:"dizziness_fainting"`
	Activity          ActivityLevel `json:"activity_level"`

	LDLCholesterol float64 `json:"ldl_cholesterol"` // mmol/L
	WeightKg       float64 `json:"weight_kg"`
	HeightCm       float64 `json:"height_cm"`

	LimbWeakness      bool    `json:"limb_weakness"`
	SpeechDisturbance bool    `json:"speech_disturbance"`
	TIASymptomMinutes float64 `json:"tia_symptom_duration"`
}
