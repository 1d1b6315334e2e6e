package telephony

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"dialdesk/internal/calls"
)

// Twilio delivers webhooks as application/x-www-form-urlencoded POSTs.
// Parsing stays provider-adapter-only; no business logic here.

// StatusCallbackForm captures the subset of status webhook fields we use.
type StatusCallbackForm struct {
	CallSid    string
	CallStatus string
	Timestamp  time.Time
	Duration   int
}

func ParseStatusCallback(r *http.Request) (StatusCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallbackForm{}, err
	}
	f := StatusCallbackForm{
		CallSid:    r.PostFormValue("CallSid"),
		CallStatus: r.PostFormValue("CallStatus"),
		Timestamp:  parseTwilioTimestamp(r.PostFormValue("Timestamp")),
	}
	if d := r.PostFormValue("CallDuration"); d != "" {
		f.Duration, _ = strconv.Atoi(d)
	}
	return f, nil
}

// RecordingCallbackForm captures the recording-complete webhook fields.
type RecordingCallbackForm struct {
	CallSid      string
	RecordingSid string
	RecordingURL string
	Duration     int
}

func ParseRecordingCallback(r *http.Request) (RecordingCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingCallbackForm{}, err
	}
	f := RecordingCallbackForm{
		CallSid:      r.PostFormValue("CallSid"),
		RecordingSid: r.PostFormValue("RecordingSid"),
		RecordingURL: r.PostFormValue("RecordingUrl"),
	}
	if d := r.PostFormValue("RecordingDuration"); d != "" {
		f.Duration, _ = strconv.Atoi(d)
	}
	return f, nil
}

// MapCallStatus translates a Twilio status string to the internal lifecycle
// state. Unknown strings return false so the webhook layer can log and drop.
func MapCallStatus(s string) (calls.CallStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued", "initiated":
		return calls.CallStatusInitiated, true
	case "ringing":
		return calls.CallStatusRinging, true
	case "in-progress", "answered":
		return calls.CallStatusAnswered, true
	case "completed":
		return calls.CallStatusCompleted, true
	case "busy":
		return calls.CallStatusBusy, true
	case "no-answer":
		return calls.CallStatusNoAnswer, true
	case "failed", "canceled":
		return calls.CallStatusFailed, true
	default:
		return "", false
	}
}

// parseTwilioTimestamp handles the RFC 1123 form Twilio uses. A zero time is
// fine; the session store substitutes its own clock.
func parseTwilioTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
