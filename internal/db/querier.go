package db

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CompleteAssessment(ctx context.Context, arg CompleteAssessmentParams) (Assessment, error)
	CreateAssessment(ctx context.Context, arg CreateAssessmentParams) (Assessment, error)
	GetAssessmentByAccessToken(ctx context.Context, accessToken string) (Assessment, error)
	GetAssessmentByID(ctx context.Context, id uuid.UUID) (Assessment, error)
	InsertAssessmentFactor(ctx context.Context, arg InsertAssessmentFactorParams) (AssessmentFactor, error)
	ListAssessmentFactors(ctx context.Context, assessmentID uuid.UUID) ([]AssessmentFactor, error)
	ListPendingAssessments(ctx context.Context, limit int32) ([]Assessment, error)
	SetAssessmentError(ctx context.Context, arg SetAssessmentErrorParams) (Assessment, error)
	SetAssessmentProcessing(ctx context.Context, id uuid.UUID) (Assessment, error)
}

var _ Querier = (*Queries)(nil)
