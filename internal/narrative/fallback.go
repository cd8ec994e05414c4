package narrative

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// fallbackNarrator calls primary first and, if that fails, logs the failure
// and tries secondary.
type fallbackNarrator struct {
	primary   Narrator
	secondary Narrator
	logger    *slog.Logger
}

// NewFallback returns a Narrator that calls primary and, on failure, falls
// back to secondary. If primary is nil it goes straight to secondary; if
// secondary is nil and primary fails, the primary error is returned.
func NewFallback(primary, secondary Narrator, logger *slog.Logger) Narrator {
	return &fallbackNarrator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackNarrator) Explain(ctx context.Context, res scoring.RiskResult) (Narrative, error) {
	if f.primary != nil {
		n, err := f.primary.Explain(ctx, res)
		if err == nil {
			return n, nil
		}
		f.logger.Warn("narrative: primary narrator failed, trying secondary",
			"error", err,
			"risk_level", res.RiskLevel,
		)
		if f.secondary == nil {
			return Narrative{}, fmt.Errorf("narrative: primary failed and no secondary configured: %w", err)
		}
	}
	if f.secondary == nil {
		return Narrative{}, fmt.Errorf("narrative: no narrator configured")
	}
	return f.secondary.Explain(ctx, res)
}
