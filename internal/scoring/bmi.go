package scoring

import "github.com/shopspring/decimal"

// BMICategory is the WHO weight band for a BMI value.
type BMICategory string

const (
	BMIInsufficientData BMICategory = "insufficient_data"
	BMIUnderweight      BMICategory = "underweight"
	BMINormal           BMICategory = "normal"
	BMIOverweight       BMICategory = "overweight"
	BMIObese            BMICategory = "obese"
)

// Label returns the display name of the category.
func (c BMICategory) Label() string {
	switch c {
	case BMIUnderweight:
		return "Underweight"
	case BMINormal:
		return "Normal"
	case BMIOverweight:
		return "Overweight"
	case BMIObese:
		return "Obese"
	default:
		return "Insufficient data"
	}
}

// bmiBands are lower bounds, checked from the top. A value belongs to the
// first band whose lower bound it reaches.
var bmiBands = []struct {
	min      float64
	category BMICategory
}{
	{30, BMIObese},
	{25, BMIOverweight},
	{18.5, BMINormal},
}

// CalculateBMI returns weight/height² rounded to one decimal place, and its
// category. A non-positive weight or height is not an error: it yields
// (0, BMIInsufficientData).
func CalculateBMI(weightKg, heightCm float64) (float64, BMICategory) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, BMIInsufficientData
	}

	heightM := heightCm / 100
	bmi := roundOne(weightKg / (heightM * heightM))

	for _, b := range bmiBands {
		if bmi >= b.min {
			return bmi, b.category
		}
	}
	return bmi, BMIUnderweight
}

// roundOne rounds half up on the shortest decimal form of v: 24.25 becomes
// 24.3 and a quotient printed as 24.95 becomes 25, as when done by hand.
func roundOne(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
