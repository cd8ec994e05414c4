package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nyashahama/stroke-risk-backend/internal/email"
)

func TestResendClient_SendAssessmentReady(t *testing.T) {
	var got struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer re_key" {
			t.Errorf("authorization: %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	c := email.NewResendClient("re_key", "results@example.org", "Stroke Risk", "https://app.example.org").
		WithEndpoint(srv.URL)
	err := c.SendAssessmentReady(context.Background(), email.AssessmentReadyParams{
		To:          "person@example.com",
		AccessToken: "tok123",
		RiskLevel:   "High",
	})
	if err != nil {
		t.Fatalf("SendAssessmentReady: %v", err)
	}

	if got.From != "Stroke Risk <results@example.org>" {
		t.Errorf("from: %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "person@example.com" {
		t.Errorf("to: %v", got.To)
	}
	if !strings.Contains(got.HTML, "https://app.example.org/assessment/tok123") {
		t.Error("html does not contain the result URL")
	}
	if !strings.Contains(got.HTML, "<strong>High</strong>") {
		t.Error("html does not contain the risk level")
	}
}

func TestResendClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"name":"validation_error","message":"bad from","statusCode":422}}`))
	}))
	defer srv.Close()

	err := email.NewResendClient("k", "a@b.c", "n", "u").WithEndpoint(srv.URL).
		SendAssessmentReady(context.Background(), email.AssessmentReadyParams{To: "x@y.z"})
	if err == nil || !strings.Contains(err.Error(), "validation_error") {
		t.Errorf("expected validation_error, got %v", err)
	}
}

func TestNoop(t *testing.T) {
	var s email.Sender = email.Noop{}
	if err := s.SendAssessmentReady(context.Background(), email.AssessmentReadyParams{}); err != nil {
		t.Errorf("Noop returned %v", err)
	}
}
