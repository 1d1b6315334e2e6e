package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"dialdesk/internal/calls"
)

func TestMapCallStatus(t *testing.T) {
	cases := []struct {
		in   string
		want calls.CallStatus
		ok   bool
	}{
		{"queued", calls.CallStatusInitiated, true},
		{"initiated", calls.CallStatusInitiated, true},
		{"ringing", calls.CallStatusRinging, true},
		{"in-progress", calls.CallStatusAnswered, true},
		{"answered", calls.CallStatusAnswered, true},
		{"completed", calls.CallStatusCompleted, true},
		{"busy", calls.CallStatusBusy, true},
		{"no-answer", calls.CallStatusNoAnswer, true},
		{"failed", calls.CallStatusFailed, true},
		{"canceled", calls.CallStatusFailed, true},
		{"Completed", calls.CallStatusCompleted, true},
		{"bogus", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MapCallStatus(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("MapCallStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseStatusCallback(t *testing.T) {
	form := url.Values{
		"CallSid":      {"CA123"},
		"CallStatus":   {"completed"},
		"CallDuration": {"42"},
		"Timestamp":    {"Fri, 29 Aug 2026 14:30:00 +0000"},
	}
	req := httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseStatusCallback(req)
	if err != nil {
		t.Fatalf("ParseStatusCallback: %v", err)
	}
	if got.CallSid != "CA123" {
		t.Errorf("CallSid = %q", got.CallSid)
	}
	if got.CallStatus != "completed" {
		t.Errorf("CallStatus = %q", got.CallStatus)
	}
	if got.Duration != 42 {
		t.Errorf("Duration = %d", got.Duration)
	}
	want := time.Date(2026, time.August, 29, 14, 30, 0, 0, time.UTC)
	if !got.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want)
	}
}

func TestParseStatusCallbackMissingTimestamp(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}}
	req := httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseStatusCallback(req)
	if err != nil {
		t.Fatalf("ParseStatusCallback: %v", err)
	}
	if !got.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero", got.Timestamp)
	}
}

func TestParseRecordingCallback(t *testing.T) {
	form := url.Values{
		"CallSid":           {"CA123"},
		"RecordingSid":      {"RE456"},
		"RecordingUrl":      {"https://api.example.com/recordings/RE456"},
		"RecordingDuration": {"85"},
	}
	req := httptest.NewRequest("POST", "/webhooks/twilio/recording", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseRecordingCallback(req)
	if err != nil {
		t.Fatalf("ParseRecordingCallback: %v", err)
	}
	if got.RecordingSid != "RE456" || got.Duration != 85 {
		t.Errorf("got %+v", got)
	}
}
