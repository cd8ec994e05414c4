package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nyashahama/stroke-risk-backend/internal/db"
	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
	"github.com/nyashahama/stroke-risk-backend/internal/store"
)

var validate = validator.New()

// ─── POST /api/assessments ───────────────────────────────────────────────────

type createAssessmentRequest struct {
	Answers json.RawMessage `json:"answers"`
	// Email is optional; when set the person is told once the narrative is
	// ready.
	Email string `json:"email"`
}

type createAssessmentResponse struct {
	AssessmentID string             `json:"assessment_id"`
	AccessToken  string             `json:"access_token"`
	Result       scoring.RiskResult `json:"result"`
}

// handleCreateAssessment evaluates the answers, stores the assessment with
// its contributing factors and hands the follow-up to the worker. The score
// is returned immediately; the narrative arrives later.
func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if !decode(w, r, &req) {
		return
	}

	if err := validate.Var(req.Email, "omitempty,email"); err != nil {
		respondInvalid(w, []string{"field 'email' must be a valid email address"})
		return
	}

	answers, ok := decodeAnswers(w, req.Answers)
	if !ok {
		return
	}

	res, err := answers.Evaluate()
	if err != nil {
		if details, ok := validationDetails(err); ok {
			s.metrics.ObserveEvaluationFailure(metrics.SourceHTTP, metrics.ReasonValidation)
			respondInvalid(w, details)
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("evaluate: %w", err))
		return
	}

	responses, err := json.Marshal(answers)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("encode answers: %w", err))
		return
	}

	a, err := s.store.SaveAssessment(r.Context(), store.SaveAssessmentParams{
		Responses: responses,
		Result:    res,
		Email:     req.Email,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("save assessment: %w", err))
		return
	}
	s.metrics.ObserveEvaluation(metrics.SourceHTTP, res)

	if s.worker != nil {
		if err := s.worker.Enqueue(r.Context(), a.ID); err != nil {
			// The poller recovers pending rows.
			s.logger.Warn("could not enqueue assessment", "assessment_id", a.ID, "error", err)
		}
	}

	respond(w, http.StatusCreated, createAssessmentResponse{
		AssessmentID: a.ID.String(),
		AccessToken:  a.AccessToken,
		Result:       res,
	})
}

// ─── GET /api/assessments/{accessToken} ──────────────────────────────────────

type assessmentResponse struct {
	AssessmentID string          `json:"assessment_id"`
	Status       string          `json:"status"`
	RiskLevel    string          `json:"risk_level"`
	SixMonthRisk float64         `json:"six_month_risk"`
	Result       json.RawMessage `json:"result"`
	Narrative    json.RawMessage `json:"narrative,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// handleGetAssessment returns a stored assessment. The score is always
// present; the narrative appears once the follow-up job has finished.
func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "accessToken")
	if token == "" {
		respondErr(w, http.StatusBadRequest, "missing access token")
		return
	}

	a, err := s.store.AssessmentByToken(r.Context(), token)
	if errors.Is(err, store.ErrAssessmentNotFound) {
		respondErr(w, http.StatusNotFound, "assessment not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get assessment: %w", err))
		return
	}

	respond(w, http.StatusOK, toAssessmentResponse(a))
}

func toAssessmentResponse(a db.Assessment) assessmentResponse {
	resp := assessmentResponse{
		AssessmentID: a.ID.String(),
		Status:       string(a.JobStatus),
		RiskLevel:    a.RiskLevel,
		SixMonthRisk: a.SixMonthRisk,
		Result:       a.Result.RawMessage,
		CreatedAt:    a.CreatedAt,
	}
	if a.Narrative.Valid {
		resp.Narrative = a.Narrative.RawMessage
	}
	if a.CompletedAt.Valid {
		t := a.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}
