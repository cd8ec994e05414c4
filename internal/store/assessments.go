package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/stroke-risk-backend/internal/db"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// SaveAssessmentParams is everything the API hands over once an evaluation
// has succeeded.
type SaveAssessmentParams struct {
	Responses json.RawMessage // the answers as submitted
	Result    scoring.RiskResult
	Email     string // optional; empty disables the follow-up email
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrAssessmentNotFound is returned when no assessment matches the lookup key.
var ErrAssessmentNotFound = errors.New("store: assessment not found")

// ErrAssessmentFinished is returned by ClaimAssessment when the follow-up job
// has already completed, failed permanently, or is held by another worker.
var ErrAssessmentFinished = errors.New("store: assessment already finished")

// ─── METHODS ─────────────────────────────────────────────────────────────────

// SaveAssessment atomically writes the assessment row and one
// assessment_factors row per contributing risk factor. Either every row is
// written or none is.
func (s *Store) SaveAssessment(ctx context.Context, p SaveAssessmentParams) (db.Assessment, error) {
	token, err := newAccessToken()
	if err != nil {
		return db.Assessment{}, fmt.Errorf("SaveAssessment: %w", err)
	}
	resultJSON, err := json.Marshal(p.Result)
	if err != nil {
		return db.Assessment{}, fmt.Errorf("SaveAssessment: marshal result: %w", err)
	}

	var assessment db.Assessment
	err = s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		created, err := q.CreateAssessment(ctx, db.CreateAssessmentParams{
			ID:              uuid.New(),
			AccessToken:     token,
			Email:           nullString(p.Email),
			Responses:       nullJSON(p.Responses),
			Result:          nullJSON(resultJSON),
			RiskLevel:       string(p.Result.RiskLevel),
			SixMonthRisk:    p.Result.SixMonthRisk,
			CompositeScore:  int16(p.Result.CompositeScore),
			Abcd2Score:      nullInt16(p.Result.ABCD2Score()),
			Chads2VascScore: nullInt16(p.Result.CHA2DS2VAScScore()),
		})
		if err != nil {
			return fmt.Errorf("SaveAssessment: create assessment: %w", err)
		}

		for i, f := range p.Result.RiskFactors {
			if _, err := q.InsertAssessmentFactor(ctx, db.InsertAssessmentFactorParams{
				AssessmentID: created.ID,
				Position:     int16(i),
				Code:         string(f.Code),
				Label:        f.Label,
				Points:       int16(f.Points),
			}); err != nil {
				return fmt.Errorf("SaveAssessment: insert factor %q: %w", f.Code, err)
			}
		}

		assessment = created
		return nil
	})
	if err != nil {
		return db.Assessment{}, err
	}
	return assessment, nil
}

// AssessmentByToken looks an assessment up by its public access token.
func (s *Store) AssessmentByToken(ctx context.Context, token string) (db.Assessment, error) {
	a, err := s.q.GetAssessmentByAccessToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Assessment{}, ErrAssessmentNotFound
	}
	if err != nil {
		return db.Assessment{}, fmt.Errorf("AssessmentByToken: %w", err)
	}
	return a, nil
}

// ClaimAssessment moves the follow-up job to processing. It returns
// ErrAssessmentFinished when there is nothing left for this caller to do.
func (s *Store) ClaimAssessment(ctx context.Context, id uuid.UUID) (db.Assessment, error) {
	a, err := s.q.SetAssessmentProcessing(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Assessment{}, ErrAssessmentFinished
	}
	if err != nil {
		return db.Assessment{}, fmt.Errorf("ClaimAssessment: %w", err)
	}
	return a, nil
}

// FinaliseAssessment records the narrative (nil when none was generated) and
// marks the follow-up job done.
func (s *Store) FinaliseAssessment(ctx context.Context, id uuid.UUID, narrative json.RawMessage) (db.Assessment, error) {
	a, err := s.q.CompleteAssessment(ctx, db.CompleteAssessmentParams{
		ID:        id,
		Narrative: nullJSON(narrative),
	})
	if err != nil {
		return db.Assessment{}, fmt.Errorf("FinaliseAssessment: %w", err)
	}
	return a, nil
}

// MarkAssessmentFailed records a permanent follow-up failure. The stored
// score is unaffected.
func (s *Store) MarkAssessmentFailed(ctx context.Context, id uuid.UUID, reason string) (db.Assessment, error) {
	a, err := s.q.SetAssessmentError(ctx, db.SetAssessmentErrorParams{
		ID:           id,
		ErrorMessage: nullString(reason),
	})
	if err != nil {
		return db.Assessment{}, fmt.Errorf("MarkAssessmentFailed: %w", err)
	}
	return a, nil
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// newAccessToken returns 32 random bytes as 64 hex chars.
func newAccessToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(b json.RawMessage) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: b, Valid: len(b) > 0}
}

func nullInt16(v int, ok bool) sql.NullInt16 {
	return sql.NullInt16{Int16: int16(v), Valid: ok}
}
