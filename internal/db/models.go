package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// JobStatus tracks the follow-up work (narrative, email) for an assessment.
// The score itself is always complete when the row is written.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

type Assessment struct {
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
	Narrative       pqtype.NullRawMessage
	JobStatus       JobStatus
	ErrorMessage    sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     sql.NullTime
}

type AssessmentFactor struct {
	ID           int64
	AssessmentID uuid.UUID
	Position     int16
	Code         string
	Label        string
	Points       int16
}
