package scoring

// RiskLevel is the four-bucket classification of the six-month risk.
type RiskLevel string

const (
	LevelLow      RiskLevel = "low"
	LevelModerate RiskLevel = "moderate"
	LevelHigh     RiskLevel = "high"
	LevelCritical RiskLevel = "critical"
)

// Label returns the display name of the level.
func (l RiskLevel) Label() string {
	switch l {
	case LevelLow:
		return "Low"
	case LevelModerate:
		return "Moderate"
	case LevelHigh:
		return "High"
	case LevelCritical:
		return "Critical"
	}
	return string(l)
}

// levelBands are upper bounds (exclusive) in percent; anything at or above the
// last bound is critical.
var levelBands = []struct {
	below float64
	level RiskLevel
}{
	{1.0, LevelLow},
	{3.0, LevelModerate},
	{10.0, LevelHigh},
}

// ClassifyRisk maps a six-month risk percentage to its RiskLevel.
//
//	< 1.0        Low
//	[1.0, 3.0)   Moderate
//	[3.0, 10.0)  High
//	>= 10.0      Critical
func ClassifyRisk(percent float64) RiskLevel {
	for _, b := range levelBands {
		if percent < b.below {
			return b.level
		}
	}
	return LevelCritical
}
