package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
	"github.com/nyashahama/stroke-risk-backend/internal/questionnaire"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// ─── GET /api/questionnaire ──────────────────────────────────────────────────

type questionnaireResponse struct {
	Questions []questionnaire.Question `json:"questions"`
}

func (s *Server) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	qs, err := questionnaire.Questions()
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("load questionnaire: %w", err))
		return
	}
	respond(w, http.StatusOK, questionnaireResponse{Questions: qs})
}

// ─── POST /api/evaluate ──────────────────────────────────────────────────────

type evaluateRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// handleEvaluate scores one set of answers without storing anything.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decode(w, r, &req) {
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
		s.metrics.ObserveEvaluationFailure(metrics.SourceHTTP, metrics.ReasonInternal)
		s.respondInternalErr(w, r, fmt.Errorf("evaluate: %w", err))
		return
	}

	s.metrics.ObserveEvaluation(metrics.SourceHTTP, res)
	respond(w, http.StatusOK, res)
}

// ─── POST /api/evaluate/batch ────────────────────────────────────────────────

type batchRequest struct {
	Records []json.RawMessage `json:"records"`
}

// batchItem carries exactly one of Result or Errors.
type batchItem struct {
	Index  int                 `json:"index"`
	Result *scoring.RiskResult `json:"result,omitempty"`
	Errors []string            `json:"errors,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
}

// handleEvaluateBatch scores every record independently. One invalid record
// never affects the others, and results come back in input order.
func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decode(w, r, &req) {
		return
	}

	if n := len(req.Records); n == 0 || n > s.cfg.BatchMaxRecords {
		respondErr(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("records must contain between 1 and %d entries, got %d", s.cfg.BatchMaxRecords, n))
		return
	}

	items := make([]batchItem, len(req.Records))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.BatchConcurrency)

	for i, raw := range req.Records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items[i] = s.evaluateBatchItem(i, raw)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("evaluate batch: %w", err))
		return
	}

	respond(w, http.StatusOK, batchResponse{Results: items})
}

func (s *Server) evaluateBatchItem(i int, raw json.RawMessage) batchItem {
	answers, err := questionnaire.DecodeAnswers(raw)
	if err != nil {
		s.metrics.ObserveEvaluationFailure(metrics.SourceBatch, metrics.ReasonValidation)
		return batchItem{Index: i, Errors: []string{err.Error()}}
	}

	res, err := answers.Evaluate()
	if err != nil {
		details, ok := validationDetails(err)
		if !ok {
			s.logger.Error("batch item failed", "index", i, "error", err)
			s.metrics.ObserveEvaluationFailure(metrics.SourceBatch, metrics.ReasonInternal)
			return batchItem{Index: i, Errors: []string{"internal error"}}
		}
		s.metrics.ObserveEvaluationFailure(metrics.SourceBatch, metrics.ReasonValidation)
		return batchItem{Index: i, Errors: details}
	}
	s.metrics.ObserveEvaluation(metrics.SourceBatch, res)
	return batchItem{Index: i, Result: &res}
}
