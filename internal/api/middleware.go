package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/stroke-risk-backend/internal/questionnaire"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

// ─── CORS ─────────────────────────────────────────────────────────────────────

// corsMiddleware answers preflight requests and sets CORS headers. Outside
// production the request origin is echoed back.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := "*"
		if s.cfg.Env != "production" {
			allowed = origin
		}

		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ─── LOGGER MIDDLEWARE ────────────────────────────────────────────────────────

// loggerMiddleware logs each request and records its latency under the chi
// route pattern, so /api/assessments/{accessToken} is one series.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			elapsed := time.Since(start)
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			s.metrics.ObserveHTTP(r.Method, route, ww.Status(), elapsed)
			s.logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// ─── RESPONSE HELPERS ─────────────────────────────────────────────────────────

// respond writes a JSON body with the given status code.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondErr writes the standard JSON error envelope.
func respondErr(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

type validationErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// respondInvalid writes a 422 listing every problem with the input.
func respondInvalid(w http.ResponseWriter, details []string) {
	respond(w, http.StatusUnprocessableEntity, validationErrorResponse{
		Error:   "invalid answers",
		Details: details,
	})
}

// respondInternalErr logs an unexpected error and returns a 500 without
// leaking internal details.
func (s *Server) respondInternalErr(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error",
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	respondErr(w, http.StatusInternalServerError, "internal server error")
}

// validationDetails returns the user-facing messages when err is an input
// problem, and ok=false for anything else.
func validationDetails(err error) (details []string, ok bool) {
	var verr *questionnaire.ValidationError
	if errors.As(err, &verr) {
		return verr.Messages, true
	}
	if errors.Is(err, scoring.ErrInvalidInput) {
		return []string{err.Error()}, true
	}
	return nil, false
}

// ─── REQUEST PARSING HELPERS ─────────────────────────────────────────────────

// decode JSON-decodes r.Body into dst. It writes a 400 and returns false when
// the body is missing, malformed, too large or has unknown fields.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// decodeAnswers parses the answers object of a request. Unknown question ids
// are ignored; a missing object or a mistyped value is a 400.
func decodeAnswers(w http.ResponseWriter, raw json.RawMessage) (questionnaire.Answers, bool) {
	if len(raw) == 0 {
		respondErr(w, http.StatusBadRequest, "invalid request body: missing answers")
		return questionnaire.Answers{}, false
	}
	a, err := questionnaire.DecodeAnswers(raw)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return questionnaire.Answers{}, false
	}
	return a, true
}
