package scoring

// AdviceInput is everything the recommendation rules look at.
type AdviceInput struct {
	Level   RiskLevel
	Record  HealthRecord
	Factors []RiskFactor
	BMI     float64
}

func (in AdviceInput) hasFactor(codes ...FactorCode) bool {
	for _, f := range in.Factors {
		for _, c := range codes {
			if f.Code == c {
				return true
			}
		}
	}
	return false
}

func (in AdviceInput) smokes() bool {
	for _, f := range in.Factors {
		if f.IsSmoking() {
			return true
		}
	}
	return false
}

// adviceRule emits text when its predicate holds. Rules are evaluated in slice
// order and the output keeps that order.
type adviceRule struct {
	name string
	when func(in AdviceInput) bool
	text string
}

func always(AdviceInput) bool { return true }

func atLevel(levels ...RiskLevel) func(AdviceInput) bool {
	return func(in AdviceInput) bool {
		for _, l := range levels {
			if in.Level == l {
				return true
			}
		}
		return false
	}
}

func both(a, b func(AdviceInput) bool) func(AdviceInput) bool {
	return func(in AdviceInput) bool { return a(in) && b(in) }
}

var (
	isLow      = atLevel(LevelLow)
	isModerate = atLevel(LevelModerate)
	isHigh     = atLevel(LevelHigh)
	isCritical = atLevel(LevelCritical)

	smokes      = func(in AdviceInput) bool { return in.smokes() }
	overweight  = func(in AdviceInput) bool { return in.BMI > 27 }
	priorStroke = func(in AdviceInput) bool { return in.Record.PreviousStrokeTIA }
)

func factor(c FactorCode) func(AdviceInput) bool {
	return func(in AdviceInput) bool { return in.hasFactor(c) }
}

const (
	adviceQuitSmoking = "Start quitting smoking: stroke risk begins to fall within 24 hours."
	adviceRecurrence  = "If stroke symptoms recur, call emergency services immediately."
)

// recommendationRules: general guidance, then the level block (with its
// conditional lines), then factor-specific advisories.
var recommendationRules = []adviceRule{
	{"general.checkups", always, "Attend routine preventive health checkups."},
	{"general.bp_diary", always, "Keep a blood pressure diary."},

	{"low.summary", isLow, "Your risk is low. Keep up a healthy lifestyle."},
	{"low.activity", isLow, "Physical activity: at least 150 minutes of moderate exercise per week."},
	{"low.diet", isLow, "Diet: keep salt under 5 g per day and eat more vegetables and fruit."},
	{"low.bp_monthly", isLow, "Measure your blood pressure once a month."},

	{"moderate.summary", isModerate, "Your risk is moderate. Active prevention is needed."},
	{"moderate.bp_daily", isModerate, "Measure your blood pressure every day, morning and evening."},
	{"moderate.bp_threshold", isModerate, "If your blood pressure is 140/90 or higher for 3 days in a row, book a GP appointment."},
	{"moderate.smoking", both(isModerate, smokes), adviceQuitSmoking},
	{"moderate.weight", both(isModerate, overweight), "Losing 5-10% of body weight lowers stroke risk by about 25%."},

	{"high.summary", isHigh, "Your risk is high. You need a prompt medical assessment."},
	{"high.gp", isHigh, "Book a GP appointment within the next few days."},
	{"high.fast", isHigh, "Learn the FAST stroke signs and your local emergency number."},
	{"high.smoking", both(isHigh, smokes), adviceQuitSmoking},
	{"high.recurrence", both(isHigh, priorStroke), adviceRecurrence},

	{"critical.summary", isCritical, "CRITICAL RISK. Seek medical care immediately."},
	{"critical.urgent_care", isCritical, "See a GP or cardiologist without delay, or go to urgent care."},
	{"critical.phone", isCritical, "Always keep a phone with you to call an ambulance."},
	{"critical.admission", isCritical, "Consider hospital admission for a full work-up."},
	{"critical.smoking", both(isCritical, smokes), adviceQuitSmoking},
	{"critical.recurrence", both(isCritical, priorStroke), adviceRecurrence},

	{"factor.afib", factor(FactorAtrialFibrillation), "Atrial fibrillation requires a cardiologist consultation."},
	{"factor.prior_stroke", factor(FactorPreviousStrokeTIA), "After a stroke or TIA, regular neurologist follow-up is required."},
	{"factor.diabetes", factor(FactorDiabetes), "Monitor your blood glucose and see an endocrinologist regularly."},
}

// Advice is one emitted recommendation. ID is stable across releases so
// clients can key translations or icons off it.
type Advice struct {
	ID   string
	Text string
}

// Recommend returns the guidance for in, in rule order.
func Recommend(in AdviceInput) []Advice {
	out := make([]Advice, 0, 8)
	for _, r := range recommendationRules {
		if r.when(in) {
			out = append(out, Advice{ID: r.name, Text: r.text})
		}
	}
	return out
}

// ─── WARNING FLAGS ────────────────────────────────────────────────────────────

// Warning flag texts. Each condition contributes at most one flag.
const (
	WarningDizziness         = "Frequent dizziness or fainting"
	WarningShortnessOfBreath = "Frequent shortness of breath on exertion"
	WarningPalpitations      = "Frequent palpitations"
	WarningPreviousStroke    = "Previous stroke or TIA"
	WarningAtrialFib         = "Atrial fibrillation"
	WarningCriticalBP        = "Critically high blood pressure (180+ mmHg)"
	WarningVeryHighLDL       = "Very high LDL cholesterol (6.0+ mmol/L)"
)

var warningRules = []struct {
	when func(r HealthRecord) bool
	text string
}{
	{func(r HealthRecord) bool { return r.DizzinessFainting == FrequencyFrequent }, WarningDizziness},
	{func(r HealthRecord) bool { return r.ShortnessOfBreath == FrequencyFrequent }, WarningShortnessOfBreath},
	{func(r HealthRecord) bool { return r.Palpitations == FrequencyFrequent }, WarningPalpitations},
	{func(r HealthRecord) bool { return r.PreviousStrokeTIA }, WarningPreviousStroke},
	{func(r HealthRecord) bool { return r.HasAtrialFibrillation }, WarningAtrialFib},
	{func(r HealthRecord) bool { return r.SystolicBP >= 180 }, WarningCriticalBP},
	{func(r HealthRecord) bool { return r.LDLCholesterol >= 6.0 }, WarningVeryHighLDL},
}

// WarningFlags lists the urgent symptoms present on the raw record. Flags are
// informational and never block evaluation.
func WarningFlags(r HealthRecord) []string {
	out := []string{}
	for _, w := range warningRules {
		if w.when(r) {
			out = append(out, w.text)
		}
	}
	return out
}
