package telephony

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dialdesk/internal/calls"
	"dialdesk/pkg/logger"
)

// WebhookHandler terminates provider callbacks. Every endpoint acknowledges
// with 200 no matter what happens internally; the provider retries on
// anything else and duplicate deliveries are worse than dropped ones.
type WebhookHandler struct {
	store         *CallbackStore
	authToken     string
	baseURL       string
	verifySig     bool
	ivrRoutes     IVRRoutes
	defaultClient string
}

// CallbackStore is the slice of the session store the webhook layer needs.
type CallbackStore struct {
	Sessions *calls.Store
}

type WebhookOption func(*WebhookHandler)

// WithSignatureValidation enables X-Twilio-Signature checking against the
// account auth token. baseURL is the externally visible scheme://host prefix
// the provider signed against.
func WithSignatureValidation(authToken, baseURL string) WebhookOption {
	return func(h *WebhookHandler) {
		h.verifySig = true
		h.authToken = authToken
		h.baseURL = baseURL
	}
}

// WithIVR sets the routes and agent client identity used when rendering
// inbound-call TwiML.
func WithIVR(routes IVRRoutes, defaultClient string) WebhookOption {
	return func(h *WebhookHandler) {
		h.ivrRoutes = routes
		h.defaultClient = defaultClient
	}
}

func NewWebhookHandler(store *calls.Store, opts ...WebhookOption) *WebhookHandler {
	h := &WebhookHandler{
		store: &CallbackStore{Sessions: store},
		ivrRoutes: IVRRoutes{
			VoicePath: "/webhooks/twilio/voice",
			IVRPath:   "/webhooks/twilio/ivr",
		},
		defaultClient: "agent",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *WebhookHandler) Register(r gin.IRoutes) {
	r.POST("/webhooks/twilio/status", h.Status)
	r.POST("/webhooks/twilio/recording", h.Recording)
	r.POST("/webhooks/twilio/voice", h.Voice)
	r.POST("/webhooks/twilio/ivr", h.IVR)
}

// Status applies a call status callback to the session store.
func (h *WebhookHandler) Status(c *gin.Context) {
	log := logger.FromGin(c)
	if !h.signatureOK(c) {
		log.Warn("webhook signature rejected", "path", c.Request.URL.Path)
		c.Status(http.StatusForbidden)
		return
	}

	form, err := ParseStatusCallback(c.Request)
	if err != nil {
		log.Warn("malformed status callback", "error", err)
		c.Status(http.StatusOK)
		return
	}

	status, ok := MapCallStatus(form.CallStatus)
	if !ok {
		log.Warn("unrecognized call status", "call_sid", form.CallSid, "status", form.CallStatus)
		c.Status(http.StatusOK)
		return
	}

	eventTime := form.Timestamp
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}

	change, err := h.store.Sessions.ApplyStatus(c.Request.Context(), form.CallSid, status, eventTime)
	switch {
	case errors.Is(err, calls.ErrUnknownSession):
		log.Warn("status callback for unknown call", "call_sid", form.CallSid, "status", status)
	case errors.Is(err, calls.ErrOutOfOrder):
		log.Warn("out-of-order status callback dropped",
			"call_sid", form.CallSid, "status", status)
	case err != nil:
		log.Error("failed to apply status callback",
			"call_sid", form.CallSid, "status", status, "error", err)
	default:
		log.Info("call status applied",
			"call_sid", form.CallSid,
			"previous", change.Previous,
			"current", change.Current)
	}
	c.Status(http.StatusOK)
}

// Recording persists a recording-complete callback.
func (h *WebhookHandler) Recording(c *gin.Context) {
	log := logger.FromGin(c)
	if !h.signatureOK(c) {
		log.Warn("webhook signature rejected", "path", c.Request.URL.Path)
		c.Status(http.StatusForbidden)
		return
	}

	form, err := ParseRecordingCallback(c.Request)
	if err != nil {
		log.Warn("malformed recording callback", "error", err)
		c.Status(http.StatusOK)
		return
	}

	_, err = h.store.Sessions.SaveRecording(c.Request.Context(),
		form.CallSid, form.RecordingSid, form.RecordingURL, form.Duration)
	switch {
	case errors.Is(err, calls.ErrUnknownSession):
		log.Warn("recording callback for unknown call", "call_sid", form.CallSid)
	case err != nil:
		log.Error("failed to save recording", "call_sid", form.CallSid, "error", err)
	default:
		log.Info("recording saved", "call_sid", form.CallSid, "recording_sid", form.RecordingSid)
	}
	c.Status(http.StatusOK)
}

// Voice answers an inbound call with the IVR greeting.
func (h *WebhookHandler) Voice(c *gin.Context) {
	log := logger.FromGin(c)
	if !h.signatureOK(c) {
		log.Warn("webhook signature rejected", "path", c.Request.URL.Path)
		c.Status(http.StatusForbidden)
		return
	}

	body, err := RenderIVRPrompt(h.ivrRoutes)
	if err != nil {
		log.Error("failed to render voice response", "error", err)
		c.Status(http.StatusOK)
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(body))
}

// IVR handles the gathered digit from the greeting menu.
func (h *WebhookHandler) IVR(c *gin.Context) {
	log := logger.FromGin(c)
	if !h.signatureOK(c) {
		log.Warn("webhook signature rejected", "path", c.Request.URL.Path)
		c.Status(http.StatusForbidden)
		return
	}

	digits := c.PostForm("Digits")
	body, err := RenderIVRSelection(h.ivrRoutes, digits, h.defaultClient)
	if err != nil {
		log.Error("failed to render ivr response", "error", err)
		c.Status(http.StatusOK)
		return
	}
	log.Info("ivr selection handled", "digits", digits)
	c.Data(http.StatusOK, "application/xml", []byte(body))
}

func (h *WebhookHandler) signatureOK(c *gin.Context) bool {
	if !h.verifySig {
		return true
	}
	fullURL := h.baseURL + c.Request.URL.RequestURI()
	return ValidSignature(h.authToken, fullURL, c.Request)
}
