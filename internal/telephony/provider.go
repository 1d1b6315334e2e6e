package telephony

import (
	"context"
	"fmt"
)

// Provider is the provider-agnostic telephony boundary used by business
// logic.
//
// Rules:
// - No provider SDK or HTTP calls outside telephony adapters.
// - Failures surface as *ProviderError with a kind callers can branch on;
//   raw provider response bodies never leave this package.
type Provider interface {
	Name() string

	// Dial places an outbound call and returns the provider's call id.
	Dial(ctx context.Context, req DialRequest) (DialResult, error)

	// Hangup terminates an in-progress call.
	Hangup(ctx context.Context, providerCallID string) error

	// IssueClientToken mints a short-lived token a browser softphone uses
	// to register with the provider under the given identity.
	IssueClientToken(identity string) (string, error)
}

// DialRequest carries everything the provider needs for one outbound leg.
type DialRequest struct {
	To   string
	From string

	// VoiceURL is fetched by the provider when the call connects.
	VoiceURL string

	// StatusCallbackURL receives lifecycle webhooks.
	StatusCallbackURL string

	// RecordingCallbackURL receives the recording-complete webhook when
	// Record is set.
	RecordingCallbackURL string
	Record               bool

	// RingTimeoutSeconds bounds how long the provider lets the call ring.
	RingTimeoutSeconds int
}

type DialResult struct {
	ProviderCallID string
	Status         string
}

// FailureKind classifies adapter failures.
type FailureKind string

const (
	// KindTimeout: the provider did not respond in time. The dial may or
	// may not have been placed.
	KindTimeout FailureKind = "timeout"

	// KindRejected: the provider refused the request (bad number, auth,
	// policy). Retrying the same request will not help.
	KindRejected FailureKind = "rejected"

	// KindUnavailable: the provider errored server-side.
	KindUnavailable FailureKind = "unavailable"
)

// ProviderError is the only error type the adapter returns for provider
// failures.
type ProviderError struct {
	Kind FailureKind
	Op   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("telephony: %s failed (%s)", e.Op, e.Kind)
}
