// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import "context"

// AssessmentReadyParams holds the data for the "your assessment is ready"
// email.
type AssessmentReadyParams struct {
	To          string // recipient email address
	AccessToken string // opaque token inserted into the result URL
	RiskLevel   string // label shown in the body, e.g. "High"
}

// Sender is the interface the worker uses to send email. Tests inject a stub
// that records calls without hitting the network.
type Sender interface {
	// SendAssessmentReady sends the link to the stored result. Called by the
	// worker after the follow-up job completes.
	SendAssessmentReady(ctx context.Context, p AssessmentReadyParams) error
}

// Noop is the Sender used when no email provider is configured.
type Noop struct{}

func (Noop) SendAssessmentReady(context.Context, AssessmentReadyParams) error { return nil }
