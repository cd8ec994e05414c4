package questionnaire

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// Answers is the wire form of a completed questionnaire. Pointer fields
// distinguish "not answered" from a zero answer so that required questions
// can be reported; everything optional defaults benignly in Record.
type Answers struct {
	Age      *float64 `json:"age"       validate:"required,gte=15"`
	Gender   *string  `json:"gender"    validate:"required,oneof=male female"`
	HeightCm *float64 `json:"height_cm" validate:"required,gte=0"`
	WeightKg *float64 `json:"weight_kg" validate:"required,gte=0"`

	SystolicBP  *float64 `json:"systolic_bp"  validate:"required,gte=0"`
	DiastolicBP *float64 `json:"diastolic_bp" validate:"omitempty,gte=0"`

	OnBloodPressureMeds   *bool `json:"on_blood_pressure_meds,omitempty"`
	HasDiabetes           *bool `json:"has_diabetes"                     validate:"required"`
	HasAtrialFibrillation *bool `json:"has_atrial_fibrillation,omitempty"`
	PreviousStrokeTIA     *bool `json:"previous_stroke_tia,omitempty"`
	FamilyStrokeHistory   *bool `json:"family_stroke_history,omitempty"`
	VascularDisease       *bool `json:"vascular_disease,omitempty"`

	Smoking           *string `json:"smoking"                       validate:"required,oneof=never former current"`
	Palpitations      string  `json:"palpitations,omitempty"        validate:"omitempty,oneof=never frequent"`
	ShortnessOfBreath string  `json:"shortness_of_breath,omitempty" validate:"omitempty,oneof=never frequent"`
	DizzinessFainting string  `json:"dizziness_fainting,omitempty"  validate:"omitempty,oneof=never frequent"`
	ActivityLevel     string  `json:"activity_level,omitempty"      validate:"omitempty,oneof=active sedentary immobile"`

	LDLCholesterol *float64 `json:"ldl_cholesterol,omitempty" validate:"omitempty,gte=0"`

	LimbWeakness       *bool    `json:"limb_weakness,omitempty"`
	SpeechDisturbance  *bool    `json:"speech_disturbance,omitempty"`
	TIASymptomDuration *float64 `json:"tia_symptom_duration,omitempty" validate:"omitempty,gte=0"`
}

// RequiredFields lists the questions that must be answered, in the order
// their "missing" messages are reported.
var RequiredFields = []string{
	"age", "gender", "height_cm", "weight_kg", "systolic_bp", "has_diabetes", "smoking",
}

// MinAgeMessage is reported when the age answer is below the engine floor.
var MinAgeMessage = fmt.Sprintf("minimum age for assessment is %d years", scoring.MinAge)

// MissingFieldMessage is the message for an unanswered required question.
func MissingFieldMessage(field string) string {
	return fmt.Sprintf("required field '%s' is missing", field)
}

// ValidationError carries every human-readable problem found in one set of
// answers.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "questionnaire: invalid answers: " + strings.Join(e.Messages, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so messages match the question ids.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns the problems with a, or nil if there are none. The age
// message comes first, then one message per missing required field in
// RequiredFields order, then any out-of-range or unknown-option answers.
func Validate(a Answers) []string {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	var (
		ageTooLow bool
		missing   = make(map[string]bool)
		other     []string
	)
	for _, fe := range fieldErrs {
		switch {
		case fe.Tag() == "required":
			missing[fe.Field()] = true
		case fe.Field() == "age" && fe.Tag() == "gte":
			ageTooLow = true
		default:
			other = append(other, describe(fe))
		}
	}

	var msgs []string
	if ageTooLow {
		msgs = append(msgs, MinAgeMessage)
	}
	for _, f := range RequiredFields {
		if missing[f] {
			msgs = append(msgs, MissingFieldMessage(f))
		}
	}
	return append(msgs, other...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", fe.Field(),
			strings.Join(strings.Fields(fe.Param()), ", "))
	case "gte":
		return fmt.Sprintf("field '%s' must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("field '%s' is invalid (%s)", fe.Field(), fe.Tag())
	}
}

// DecodeAnswers parses a JSON answers object. Keys that are not questions are
// ignored; a value of the wrong JSON type is an error.
func DecodeAnswers(raw []byte) (Answers, error) {
	var a Answers
	if err := json.Unmarshal(raw, &a); err != nil {
		return Answers{}, fmt.Errorf("decode answers: %w", err)
	}
	return a, nil
}

// Record validates a and converts it to the engine's input. A non-nil error
// is always a *ValidationError.
func (a Answers) Record() (scoring.HealthRecord, error) {
	if msgs := Validate(a); len(msgs) > 0 {
		return scoring.HealthRecord{}, &ValidationError{Messages: msgs}
	}

	// oneof has already constrained every enumeration, so parse errors here
	// would mean the validator tags and the scoring names disagree.
	var errs []error
	gender, err := scoring.ParseGender(deref(a.Gender))
	errs = append(errs, err)
	smoking, err := scoring.ParseSmokingStatus(deref(a.Smoking))
	errs = append(errs, err)
	palpitations, err := scoring.ParseFrequency(a.Palpitations)
	errs = append(errs, err)
	breath, err := scoring.ParseFrequency(a.ShortnessOfBreath)
	errs = append(errs, err)
	dizziness, err := scoring.ParseFrequency(a.DizzinessFainting)
	errs = append(errs, err)
	activity, err := scoring.ParseActivityLevel(a.ActivityLevel)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return scoring.HealthRecord{}, &ValidationError{Messages: []string{err.Error()}}
	}

	return scoring.HealthRecord{
		Age:                   deref(a.Age),
		Gender:                gender,
		SystolicBP:            deref(a.SystolicBP),
		DiastolicBP:           deref(a.DiastolicBP),
		OnBloodPressureMeds:   deref(a.OnBloodPressureMeds),
		HasDiabetes:           deref(a.HasDiabetes),
		HasAtrialFibrillation: deref(a.HasAtrialFibrillation),
		PreviousStrokeTIA:     deref(a.PreviousStrokeTIA),
		FamilyStrokeHistory:   deref(a.FamilyStrokeHistory),
		VascularDisease:       deref(a.VascularDisease),
		Smoking:               smoking,
		Palpitations:          palpitations,
		ShortnessOfBreath:     breath,
		DizzinessFainting:     dizziness,
		Activity:              activity,
		LDLCholesterol:        deref(a.LDLCholesterol),
		WeightKg:              deref(a.WeightKg),
		HeightCm:              deref(a.HeightCm),
		LimbWeakness:          deref(a.LimbWeakness),
		SpeechDisturbance:     deref(a.SpeechDisturbance),
		TIASymptomMinutes:     deref(a.TIASymptomDuration),
	}, nil
}

// Evaluate is Record followed by scoring.Evaluate.
func (a Answers) Evaluate() (scoring.RiskResult, error) {
	rec, err := a.Record()
	if err != nil {
		return scoring.RiskResult{}, err
	}
	return scoring.Evaluate(rec)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
