package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"dialdesk/internal/calls"
)

func newWebhookRouter(t *testing.T, store *calls.Store, opts ...WebhookOption) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewWebhookHandler(store, opts...).Register(r)
	return r
}

func postForm(r http.Handler, path string, form url.Values, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedSession(t *testing.T, store *calls.Store, providerCallID string) calls.CallSession {
	t.Helper()
	ctx := context.Background()
	s, err := store.Create(ctx, calls.CreateParams{
		Direction:  calls.DirectionOutbound,
		FromNumber: "+15005550006",
		ToNumber:   "+15551234567",
		AgentID:    "agent-1",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.AttachProviderID(ctx, s.ID, providerCallID); err != nil {
		t.Fatalf("attach provider id: %v", err)
	}
	return s
}

func TestStatusWebhookAppliesStatus(t *testing.T) {
	store := calls.NewStore(calls.NewMemoryRepo(), nil, nil)
	seedSession(t, store, "CA100")
	r := newWebhookRouter(t, store)

	w := postForm(r, "/webhooks/twilio/status", url.Values{
		"CallSid":    {"CA100"},
		"CallStatus": {"ringing"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	got, err := store.GetByProviderID(context.Background(), "CA100")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != calls.CallStatusRinging {
		t.Errorf("session status = %q, want ringing", got.Status)
	}
}

func TestStatusWebhookAcknowledgesFailures(t *testing.T) {
	store := calls.NewStore(calls.NewMemoryRepo(), nil, nil)
	seedSession(t, store, "CA200")
	r := newWebhookRouter(t, store)

	// Drive to a terminal state, then re-deliver an earlier event.
	for _, status := range []string{"answered", "completed"} {
		w := postForm(r, "/webhooks/twilio/status", url.Values{
			"CallSid": {"CA200"}, "CallStatus": {status},
		}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status(%s) = %d", status, w.Code)
		}
	}

	cases := []url.Values{
		{"CallSid": {"CA200"}, "CallStatus": {"ringing"}},   // out of order
		{"CallSid": {"CA-none"}, "CallStatus": {"ringing"}}, // unknown call
		{"CallSid": {"CA200"}, "CallStatus": {"weird"}},     // unmapped status
	}
	for _, form := range cases {
		w := postForm(r, "/webhooks/twilio/status", form, nil)
		if w.Code != http.StatusOK {
			t.Errorf("form %v: status = %d, want 200", form, w.Code)
		}
	}

	got, err := store.GetByProviderID(context.Background(), "CA200")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != calls.CallStatusCompleted {
		t.Errorf("session status = %q, want completed", got.Status)
	}
}

func TestStatusWebhookRejectsBadSignature(t *testing.T) {
	store := calls.NewStore(calls.NewMemoryRepo(), nil, nil)
	seedSession(t, store, "CA300")
	base := "https://dialer.example.com"
	r := newWebhookRouter(t, store, WithSignatureValidation("hook-token", base))

	form := url.Values{"CallSid": {"CA300"}, "CallStatus": {"ringing"}}

	w := postForm(r, "/webhooks/twilio/status", form, map[string]string{
		"X-Twilio-Signature": "forged",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("forged signature: status = %d, want 403", w.Code)
	}

	sig := ComputeSignature("hook-token", base+"/webhooks/twilio/status", form)
	w = postForm(r, "/webhooks/twilio/status", form, map[string]string{
		"X-Twilio-Signature": sig,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("valid signature: status = %d, want 200", w.Code)
	}

	got, _ := store.GetByProviderID(context.Background(), "CA300")
	if got.Status != calls.CallStatusRinging {
		t.Errorf("session status = %q, want ringing", got.Status)
	}
}

func TestRecordingWebhook(t *testing.T) {
	repo := calls.NewMemoryRepo()
	store := calls.NewStore(repo, nil, nil)
	seedSession(t, store, "CA400")
	r := newWebhookRouter(t, store)

	w := postForm(r, "/webhooks/twilio/recording", url.Values{
		"CallSid":           {"CA400"},
		"RecordingSid":      {"RE1"},
		"RecordingUrl":      {"https://api.example.com/RE1"},
		"RecordingDuration": {"61"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	recs := repo.Recordings()
	if len(recs) != 1 || recs[0].ProviderRecordingID != "RE1" || recs[0].DurationSeconds != 61 {
		t.Fatalf("recordings = %+v", recs)
	}

	// Unknown call sid is dropped but still acknowledged.
	w = postForm(r, "/webhooks/twilio/recording", url.Values{
		"CallSid": {"CA-none"}, "RecordingSid": {"RE2"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unknown call: status = %d", w.Code)
	}
	if len(repo.Recordings()) != 1 {
		t.Error("recording for unknown call was stored")
	}
}

func TestVoiceAndIVRWebhooks(t *testing.T) {
	store := calls.NewStore(calls.NewMemoryRepo(), nil, nil)
	r := newWebhookRouter(t, store, WithIVR(IVRRoutes{
		VoicePath: "/webhooks/twilio/voice",
		IVRPath:   "/webhooks/twilio/ivr",
	}, "agent"))

	w := postForm(r, "/webhooks/twilio/voice", url.Values{"CallSid": {"CA1"}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("voice: status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("voice: content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<Gather") {
		t.Errorf("voice body missing Gather: %s", w.Body.String())
	}

	w = postForm(r, "/webhooks/twilio/ivr", url.Values{"Digits": {"1"}}, nil)
	if !strings.Contains(w.Body.String(), "<Client>agent</Client>") {
		t.Errorf("ivr digit 1 body: %s", w.Body.String())
	}

	w = postForm(r, "/webhooks/twilio/ivr", url.Values{"Digits": {"2"}}, nil)
	if !strings.Contains(w.Body.String(), "<Record") {
		t.Errorf("ivr digit 2 body: %s", w.Body.String())
	}

	w = postForm(r, "/webhooks/twilio/ivr", url.Values{"Digits": {"9"}}, nil)
	if !strings.Contains(w.Body.String(), "<Redirect>") {
		t.Errorf("ivr invalid digit body: %s", w.Body.String())
	}
}
