package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dialdesk/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioProvider talks to the Twilio REST API directly; no SDK.
type TwilioProvider struct {
	accountSID  string
	authToken   string
	apiKey      string
	apiSecret   string
	phoneNumber string

	baseURL string
	client  *http.Client

	tokenTTL time.Duration
}

type TwilioOption func(*TwilioProvider)

// WithBaseURL overrides the Twilio API endpoint, for tests.
func WithBaseURL(base string) TwilioOption {
	return func(p *TwilioProvider) { p.baseURL = strings.TrimRight(base, "/") }
}

func WithHTTPClient(c *http.Client) TwilioOption {
	return func(p *TwilioProvider) { p.client = c }
}

func NewTwilioProvider(cfg config.TwilioConfig, opts ...TwilioOption) *TwilioProvider {
	p := &TwilioProvider{
		accountSID:  cfg.AccountSID,
		authToken:   cfg.AuthToken,
		apiKey:      cfg.APIKey,
		apiSecret:   cfg.APISecret,
		phoneNumber: cfg.PhoneNumber,
		baseURL:     twilioAPIBase,
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		tokenTTL:    time.Hour,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *TwilioProvider) Name() string { return "twilio" }

type twilioCallResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

func (p *TwilioProvider) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", req.VoiceURL)
	form.Set("Method", "POST")
	form.Set("StatusCallback", req.StatusCallbackURL)
	form.Set("StatusCallbackMethod", "POST")
	for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
		form.Add("StatusCallbackEvent", ev)
	}
	if req.RingTimeoutSeconds > 0 {
		form.Set("Timeout", strconv.Itoa(req.RingTimeoutSeconds))
	}
	if req.Record {
		form.Set("Record", "true")
		form.Set("RecordingStatusCallback", req.RecordingCallbackURL)
		form.Set("RecordingStatusCallbackMethod", "POST")
	}

	var out twilioCallResponse
	if err := p.post(ctx, "dial", p.callsURL(""), form, &out); err != nil {
		return DialResult{}, err
	}
	if out.Sid == "" {
		return DialResult{}, &ProviderError{Kind: KindUnavailable, Op: "dial"}
	}
	return DialResult{ProviderCallID: out.Sid, Status: out.Status}, nil
}

func (p *TwilioProvider) Hangup(ctx context.Context, providerCallID string) error {
	form := url.Values{}
	form.Set("Status", "completed")
	return p.post(ctx, "hangup", p.callsURL(providerCallID), form, nil)
}

// IssueClientToken mints a Twilio-compatible access token with a voice grant
// for the given client identity.
func (p *TwilioProvider) IssueClientToken(identity string) (string, error) {
	if identity == "" {
		return "", errors.New("telephony: identity is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"jti": p.apiKey + "-" + uuid.NewString(),
		"iss": p.apiKey,
		"sub": p.accountSID,
		"iat": now.Unix(),
		"exp": now.Add(p.tokenTTL).Unix(),
		"grants": map[string]any{
			"identity": identity,
			"voice": map[string]any{
				"outgoing": map[string]any{"application_sid": p.accountSID},
				"incoming": map[string]any{"allow": true},
			},
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["cty"] = "twilio-fpa;v=1"
	return tok.SignedString([]byte(p.apiSecret))
}

func (p *TwilioProvider) callsURL(callSID string) string {
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls", p.baseURL, p.accountSID)
	if callSID != "" {
		u += "/" + callSID
	}
	return u + ".json"
}

func (p *TwilioProvider) post(ctx context.Context, op, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &ProviderError{Kind: KindRejected, Op: op}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.client.Do(req)
	if err != nil {
		// Deadline and transport errors both mean we cannot know the
		// provider-side outcome.
		return &ProviderError{Kind: KindTimeout, Op: op}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ProviderError{Kind: KindUnavailable, Op: op}
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ProviderError{Kind: KindRejected, Op: op}
	default:
		return &ProviderError{Kind: KindUnavailable, Op: op}
	}
}
