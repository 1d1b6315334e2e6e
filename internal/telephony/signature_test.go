package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestComputeSignatureKnownVector(t *testing.T) {
	// Published example from Twilio's security documentation.
	authToken := "12345"
	fullURL := "https://mycompany.com/myapp.php?foo=1&bar=2"
	form := url.Values{
		"CallSid": {"CA1234567890ABCDE"},
		"Caller":  {"+12349013030"},
		"Digits":  {"1234"},
		"From":    {"+12349013030"},
		"To":      {"+18005551212"},
	}
	got := ComputeSignature(authToken, fullURL, form)
	want := "0/KCTR6DLpKmkAf8muzZqo1nDgQ="
	if got != want {
		t.Fatalf("ComputeSignature = %q, want %q", got, want)
	}
}

func TestValidSignature(t *testing.T) {
	authToken := "secret-token"
	fullURL := "https://dialer.example.com/webhooks/twilio/status"
	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}}

	req := httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", ComputeSignature(authToken, fullURL, form))
	if !ValidSignature(authToken, fullURL, req) {
		t.Fatal("expected valid signature to pass")
	}

	req = httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "not-the-signature")
	if ValidSignature(authToken, fullURL, req) {
		t.Fatal("expected tampered signature to fail")
	}

	req = httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ValidSignature(authToken, fullURL, req) {
		t.Fatal("expected missing signature header to fail")
	}
}
