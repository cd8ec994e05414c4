package scoring

// ─── ABCD2 (TIA follow-up) ────────────────────────────────────────────────────

// TIAScore is the ABCD2 score with its short-horizon recurrence risks.
type TIAScore struct {
	Score        int     `json:"score"`
	TwoDayRisk   float64 `json:"two_day_risk"`
	SevenDayRisk float64 `json:"seven_day_risk"`
}

// abcd2Risks maps score bands to (2-day, 7-day) recurrence risk in percent.
var abcd2Risks = []struct {
	maxScore         int
	twoDay, sevenDay float64
}{
	{3, 1.0, 1.2},
	{4, 4.1, 5.9},
	{7, 8.1, 11.7},
}

// CalculateABCD2 scores the TIA follow-up risk. ok is false when the record
// reports no previous stroke/TIA; the score is then not applicable, which is
// distinct from a score of zero.
func CalculateABCD2(r HealthRecord) (s TIAScore, ok bool) {
	if !r.PreviousStrokeTIA {
		return TIAScore{}, false
	}

	if r.Age >= 60 {
		s.Score++
	}
	if r.SystolicBP >= 140 || r.DiastolicBP >= 90 {
		s.Score++
	}

	// Clinical features: limb weakness takes precedence over speech.
	switch {
	case r.LimbWeakness:
		s.Score += 2
	case r.SpeechDisturbance:
		s.Score++
	}

	switch {
	case r.TIASymptomMinutes >= 60:
		s.Score += 2
	case r.TIASymptomMinutes >= 10:
		s.Score++
	}

	if r.HasDiabetes {
		s.Score++
	}

	s.TwoDayRisk, s.SevenDayRisk = abcd2Risk(s.Score)
	return s, true
}

func abcd2Risk(score int) (twoDay, sevenDay float64) {
	for _, b := range abcd2Risks {
		if score <= b.maxScore {
			return b.twoDay, b.sevenDay
		}
	}
	last := abcd2Risks[len(abcd2Risks)-1]
	return last.twoDay, last.sevenDay
}

// ─── CHA2DS2-VASc (atrial fibrillation) ───────────────────────────────────────

// AFibScore is the CHA2DS2-VASc score with its annual stroke risk and the
// labels of the criteria that were met.
type AFibScore struct {
	Score      int      `json:"score"`
	AnnualRisk float64  `json:"annual_risk"`
	Criteria   []string `json:"criteria"`
}

// chadsVascAnnualRisk is the published annual stroke risk per score. The 6→7
// step (9.8 → 9.6) is not monotonic in the source table and is kept as is.
var chadsVascAnnualRisk = [...]float64{
	0: 0.0,
	1: 1.3,
	2: 2.2,
	3: 3.2,
	4: 4.0,
	5: 6.7,
	6: 9.8,
	7: 9.6,
	8: 12.5,
	9: 15.2,
}

// ChadsVascAnnualRisk returns the annual risk for score, clamping scores above
// the table to its last entry.
func ChadsVascAnnualRisk(score int) float64 {
	switch {
	case score < 0:
		return chadsVascAnnualRisk[0]
	case score >= len(chadsVascAnnualRisk):
		return chadsVascAnnualRisk[len(chadsVascAnnualRisk)-1]
	}
	return chadsVascAnnualRisk[score]
}

// CalculateCHA2DS2VASc scores thromboembolic risk in atrial fibrillation. ok
// is false when the record reports no atrial fibrillation.
func CalculateCHA2DS2VASc(r HealthRecord) (s AFibScore, ok bool) {
	if !r.HasAtrialFibrillation {
		return AFibScore{}, false
	}

	s.Criteria = []string{}
	add := func(points int, label string) {
		s.Score += points
		s.Criteria = append(s.Criteria, label)
	}

	if r.ShortnessOfBreath == FrequencyFrequent {
		add(1, "Heart failure symptoms")
	}
	if r.SystolicBP >= 140 || r.OnBloodPressureMeds {
		add(1, "Hypertension")
	}
	switch {
	case r.Age >= 75:
		add(2, "Age 75+")
	case r.Age >= 65:
		add(1, "Age 65-74")
	}
	if r.HasDiabetes {
		add(1, "Diabetes")
	}
	if r.PreviousStrokeTIA {
		add(2, "Previous stroke or TIA")
	}
	if r.VascularDisease {
		add(1, "Vascular disease")
	}
	if r.Gender == GenderFemale && r.Age >= 65 {
		add(1, "Female aged 65+")
	}

	s.AnnualRisk = ChadsVascAnnualRisk(s.Score)
	return s, true
}
