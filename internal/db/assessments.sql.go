package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const assessmentColumns = `id, access_token, email, responses, result, risk_level, six_month_risk,
	composite_score, abcd2_score, chads2_vasc_score, narrative, job_status, error_message,
	created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (Assessment, error) {
	var i Assessment
	err := row.Scan(
		&i.ID,
		&i.AccessToken,
		&i.Email,
		&i.Responses,
		&i.Result,
		&i.RiskLevel,
		&i.SixMonthRisk,
		&i.CompositeScore,
		&i.Abcd2Score,
		&i.Chads2VascScore,
		&i.Narrative,
		&i.JobStatus,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CompletedAt,
	)
	return i, err
}

const completeAssessment = `-- name: CompleteAssessment :one
UPDATE assessments
SET job_status    = 'done',
    narrative     = $2,
    error_message = NULL,
    completed_at  = now(),
    updated_at    = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type CompleteAssessmentParams struct {
	ID        uuid.UUID
	Narrative pqtype.NullRawMessage
}

func (q *Queries) CompleteAssessment(ctx context.Context, arg CompleteAssessmentParams) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, completeAssessment, arg.ID, arg.Narrative)
	return scanAssessment(row)
}

const createAssessment = `-- name: CreateAssessment :one
INSERT INTO assessments (
    id, access_token, email, responses, result, risk_level, six_month_risk,
    composite_score, abcd2_score, chads2_vasc_score
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING ` + assessmentColumns

type CreateAssessmentParams struct {
	ID              uuid.UUID
	AccessToken     string
	Email           sql.NullString
	Responses       pqtype.NullRawMessage
	Result          pqtype.NullRawMessage
	RiskLevel       string
	SixMonthRisk    float64
	CompositeScore  int16
	Abcd2Score      sql.NullInt16
	Chads2VascScore sql.NullInt16
}

func (q *Queries) CreateAssessment(ctx context.Context, arg CreateAssessmentParams) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, createAssessment,
		arg.ID,
		arg.AccessToken,
		arg.Email,
		arg.Responses,
		arg.Result,
		arg.RiskLevel,
		arg.SixMonthRisk,
		arg.CompositeScore,
		arg.Abcd2Score,
		arg.Chads2VascScore,
	)
	return scanAssessment(row)
}

const getAssessmentByAccessToken = `-- name: GetAssessmentByAccessToken :one
SELECT ` + assessmentColumns + `
FROM assessments
WHERE access_token = $1`

func (q *Queries) GetAssessmentByAccessToken(ctx context.Context, accessToken string) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, getAssessmentByAccessToken, accessToken)
	return scanAssessment(row)
}

const getAssessmentByID = `-- name: GetAssessmentByID :one
SELECT ` + assessmentColumns + `
FROM assessments
WHERE id = $1`

func (q *Queries) GetAssessmentByID(ctx context.Context, id uuid.UUID) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, getAssessmentByID, id)
	return scanAssessment(row)
}

const insertAssessmentFactor = `-- name: InsertAssessmentFactor :one
INSERT INTO assessment_factors (assessment_id, position, code, label, points)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, assessment_id, position, code, label, points`

type InsertAssessmentFactorParams struct {
	AssessmentID uuid.UUID
	Position     int16
	Code         string
	Label        string
	Points       int16
}

func (q *Queries) InsertAssessmentFactor(ctx context.Context, arg InsertAssessmentFactorParams) (AssessmentFactor, error) {
	row := q.db.QueryRowContext(ctx, insertAssessmentFactor,
		arg.AssessmentID,
		arg.Position,
		arg.Code,
		arg.Label,
		arg.Points,
	)
	var i AssessmentFactor
	err := row.Scan(
		&i.ID,
		&i.AssessmentID,
		&i.Position,
		&i.Code,
		&i.Label,
		&i.Points,
	)
	return i, err
}

const listAssessmentFactors = `-- name: ListAssessmentFactors :many
SELECT id, assessment_id, position, code, label, points
FROM assessment_factors
WHERE assessment_id = $1
ORDER BY position`

func (q *Queries) ListAssessmentFactors(ctx context.Context, assessmentID uuid.UUID) ([]AssessmentFactor, error) {
	rows, err := q.db.QueryContext(ctx, listAssessmentFactors, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AssessmentFactor
	for rows.Next() {
		var i AssessmentFactor
		if err := rows.Scan(
			&i.ID,
			&i.AssessmentID,
			&i.Position,
			&i.Code,
			&i.Label,
			&i.Points,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Rows stuck in processing for longer than the stale window are assumed to
// belong to a crashed worker and are handed out again.
const listPendingAssessments = `-- name: ListPendingAssessments :many
SELECT ` + assessmentColumns + `
FROM assessments
WHERE job_status = 'pending'
   OR (job_status = 'processing' AND updated_at < now() - interval '15 minutes')
ORDER BY created_at
LIMIT $1`

func (q *Queries) ListPendingAssessments(ctx context.Context, limit int32) ([]Assessment, error) {
	rows, err := q.db.QueryContext(ctx, listPendingAssessments, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Assessment
	for rows.Next() {
		i, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setAssessmentError = `-- name: SetAssessmentError :one
UPDATE assessments
SET job_status    = 'failed',
    error_message = $2,
    updated_at    = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type SetAssessmentErrorParams struct {
	ID           uuid.UUID
	ErrorMessage sql.NullString
}

func (q *Queries) SetAssessmentError(ctx context.Context, arg SetAssessmentErrorParams) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, setAssessmentError, arg.ID, arg.ErrorMessage)
	return scanAssessment(row)
}

// Only pending rows, or processing rows past the stale window used by
// ListPendingAssessments, can be claimed. Finished rows and rows a live worker
// holds yield sql.ErrNoRows.
const setAssessmentProcessing = `-- name: SetAssessmentProcessing :one
UPDATE assessments
SET job_status = 'processing',
    updated_at = now()
WHERE id = $1
  AND (job_status = 'pending'
       OR (job_status = 'processing' AND updated_at < now() - interval '15 minutes'))
RETURNING ` + assessmentColumns

func (q *Queries) SetAssessmentProcessing(ctx context.Context, id uuid.UUID) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, setAssessmentProcessing, id)
	return scanAssessment(row)
}
