package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dialdesk/internal/calls"
	"dialdesk/internal/crm"
	"dialdesk/internal/rbac"
	"dialdesk/internal/tts"
)

// CRM and TTS endpoints return 503 when the integration is not configured so
// the console can hide the features.

// CRMContacts lists CRM contacts for local sync.
func (h Handlers) CRMContacts(c *gin.Context) {
	if h.CRM == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "crm not configured"})
		return
	}
	contacts, err := h.CRM.ListContacts(c.Request.Context(), intQuery(c, "limit", 100))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "crm unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// CRMUpsertContact creates or updates one CRM contact.
func (h Handlers) CRMUpsertContact(c *gin.Context) {
	if h.CRM == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "crm not configured"})
		return
	}
	var contact crm.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if contact.Phone == "" && contact.Email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phone or email required"})
		return
	}
	saved, err := h.CRM.UpsertContact(c.Request.Context(), contact)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "crm unavailable"})
		return
	}
	c.JSON(http.StatusOK, saved)
}

// CRMLogCall mirrors a finished call into the CRM as a call engagement on
// the session's contact.
func (h Handlers) CRMLogCall(c *gin.Context) {
	if h.CRM == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "crm not configured"})
		return
	}
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	sess, err := h.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	if !rbac.CanAccessCall(role, userID, sess.AgentID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if !calls.IsTerminal(sess.Status) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call still in progress"})
		return
	}
	if sess.ContactID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call has no crm contact"})
		return
	}

	activity := crm.CallActivity{
		ContactID:       sess.ContactID,
		FromNumber:      sess.FromNumber,
		ToNumber:        sess.ToNumber,
		DurationSeconds: sess.DurationSeconds,
		Disposition:     sess.Disposition,
		Notes:           sess.Notes,
	}
	if sess.EndedAt != nil {
		activity.OccurredAt = *sess.EndedAt
	}
	if err := h.CRM.LogCall(c.Request.Context(), activity); err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "crm unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged": true, "call_id": sess.ID})
}

// TTSVoices lists available synthesis voices.
func (h Handlers) TTSVoices(c *gin.Context) {
	if h.TTS == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "tts not configured"})
		return
	}
	voices, err := h.TTS.Voices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "tts unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"voices": voices})
}

type ttsPreviewRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

// TTSPreview synthesizes a campaign message and streams the MP3 back.
func (h Handlers) TTSPreview(c *gin.Context) {
	if h.TTS == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "tts not configured"})
		return
	}
	var req ttsPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	audio, err := h.TTS.Synthesize(c.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		if errors.Is(err, tts.ErrEmptyText) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "tts unavailable"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
