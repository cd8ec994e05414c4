// Package narrative turns a finished scoring.RiskResult into a short
// plain-language explanation written by an LLM. It never changes the numbers:
// the result is computed and stored before a Narrator is ever called.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// Narrative is the structured output of a successful Explain call.
type Narrative struct {
	// Summary is two or three sentences describing the overall picture.
	Summary string `json:"summary"`

	// KeyPoints explains the largest contributing factors, one per entry.
	KeyPoints []string `json:"key_points"`

	// NextStep is the single most useful action for the person to take.
	NextStep string `json:"next_step"`

	// Model records which backend wrote the text.
	Model string `json:"model,omitempty"`
}

// Narrator is the interface the worker uses to explain results. Tests inject a
// stub that returns canned responses.
type Narrator interface {
	// Explain must be safe to call concurrently. A non-nil error means the
	// whole call failed; the worker then stores the assessment without text.
	Explain(ctx context.Context, res scoring.RiskResult) (Narrative, error)
}

const systemPrompt = `You explain the output of a stroke-risk screening questionnaire to the person who filled it in.
You will receive the computed six-month risk, the risk level, the contributing factors with their points,
optional TIA and atrial-fibrillation sub-scores, and any warning flags.

Rules:
- Never change, recompute or round any number you are given.
- This is a screening estimate, not a diagnosis. Say so once, briefly.
- If there are warning flags, mention them first and advise prompt medical contact.
- Plain language, no jargon, no more than 120 words in total.

Respond ONLY with valid JSON matching this exact schema, no markdown fences, no preamble:
{
  "summary": "...",
  "key_points": ["...", "..."],
  "next_step": "..."
}`

// buildPrompt serialises the result into a compact prompt string.
func buildPrompt(res scoring.RiskResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "six_month_risk: %g%%\n", res.SixMonthRisk)
	fmt.Fprintf(&sb, "risk_level: %s\n", res.RiskLevel)
	fmt.Fprintf(&sb, "composite_score: %d\n", res.CompositeScore)
	if res.BMICategory != scoring.BMIInsufficientData {
		fmt.Fprintf(&sb, "bmi: %g (%s)\n", res.BMI, res.BMICategory.Label())
	}

	sb.WriteString("factors:\n")
	for _, f := range res.RiskFactors {
		fmt.Fprintf(&sb, "  - %s: +%d\n", f.Label, f.Points)
	}
	if res.ABCD2 != nil {
		fmt.Fprintf(&sb, "abcd2_score: %d (2-day risk %g%%, 7-day risk %g%%)\n",
			res.ABCD2.Score, res.ABCD2.TwoDayRisk, res.ABCD2.SevenDayRisk)
	}
	if res.CHA2DS2VASc != nil {
		fmt.Fprintf(&sb, "chads2_vasc_score: %d (annual risk %g%%; %s)\n",
			res.CHA2DS2VASc.Score, res.CHA2DS2VASc.AnnualRisk, strings.Join(res.CHA2DS2VASc.Criteria, ", "))
	}
	if len(res.WarningFlags) > 0 {
		fmt.Fprintf(&sb, "warning_flags: %s\n", strings.Join(res.WarningFlags, "; "))
	}
	return sb.String()
}

// parseNarrative decodes the model's JSON reply, stripping any markdown fences
// the model may have added.
func parseNarrative(raw, model string) (Narrative, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var n Narrative
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return Narrative{}, fmt.Errorf("parse response JSON: %w (raw: %.200s)", err, raw)
	}
	if n.Summary == "" {
		return Narrative{}, fmt.Errorf("response has no summary (raw: %.200s)", raw)
	}
	n.Model = model
	return n, nil
}
