package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nyashahama/stroke-risk-backend/internal/db"
	"github.com/nyashahama/stroke-risk-backend/internal/email"
	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
	"github.com/nyashahama/stroke-risk-backend/internal/narrative"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
	"github.com/nyashahama/stroke-risk-backend/internal/store"
)

// AssessmentStore is the slice of *store.Store the worker needs.
type AssessmentStore interface {
	ClaimAssessment(ctx context.Context, id uuid.UUID) (db.Assessment, error)
	FinaliseAssessment(ctx context.Context, id uuid.UUID, narrative json.RawMessage) (db.Assessment, error)
	MarkAssessmentFailed(ctx context.Context, id uuid.UUID, reason string) (db.Assessment, error)
}

// Job runs the follow-up pipeline for one stored assessment. The score is
// already persisted by the time the job runs; the job only adds the narrative
// and notifies the person who asked for it.
type Job struct {
	store    AssessmentStore
	narrator narrative.Narrator
	mailer   email.Sender
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewJob constructs a Job. narrator may be nil, in which case assessments are
// finalised without a narrative.
func NewJob(
	st AssessmentStore,
	narrator narrative.Narrator,
	mailer email.Sender,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Job {
	if mailer == nil {
		mailer = email.Noop{}
	}
	return &Job{
		store:    st,
		narrator: narrator,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
	}
}

// Run executes the pipeline for a single assessment:
//
//  1. Claim the row (pending or stale processing → processing).
//  2. Decode the stored RiskResult.
//  3. Ask the narrator for a plain-language explanation.
//  4. Store the narrative and mark the row done.
//  5. Send the "assessment ready" email when an address was given.
//
// Narrative and email failures do not fail the job. Any returned error is
// retried by the Runner.
func (j *Job) Run(ctx context.Context, assessmentID uuid.UUID) error {
	log := j.logger.With("assessment_id", assessmentID)
	log.Info("job: starting")

	a, err := j.store.ClaimAssessment(ctx, assessmentID)
	if errors.Is(err, store.ErrAssessmentFinished) {
		log.Info("job: assessment already finished, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("job: claim assessment: %w", err)
	}

	var res scoring.RiskResult
	if err := json.Unmarshal(a.Result.RawMessage, &res); err != nil {
		return fmt.Errorf("job: decode stored result: %w", err)
	}

	var narrativeJSON json.RawMessage
	if j.narrator != nil {
		n, err := j.narrator.Explain(ctx, res)
		if err != nil {
			log.Warn("job: narrative generation failed, finalising without one", "error", err)
			j.metrics.ObserveNarrativeFailure()
		} else if narrativeJSON, err = json.Marshal(n); err != nil {
			return fmt.Errorf("job: encode narrative: %w", err)
		}
	}

	done, err := j.store.FinaliseAssessment(ctx, assessmentID, narrativeJSON)
	if err != nil {
		return fmt.Errorf("job: finalise assessment: %w", err)
	}

	log.Info("job: assessment finalised",
		"risk_level", done.RiskLevel,
		"has_narrative", done.Narrative.Valid,
	)

	if !a.Email.Valid || a.Email.String == "" {
		return nil
	}

	level := scoring.RiskLevel(a.RiskLevel)
	if err := j.mailer.SendAssessmentReady(ctx, email.AssessmentReadyParams{
		To:          a.Email.String,
		AccessToken: a.AccessToken,
		RiskLevel:   level.Label(),
	}); err != nil {
		// The result is still reachable through the access token.
		log.Error("job: failed to send assessment email", "to", a.Email.String, "error", err)
	}

	return nil
}
