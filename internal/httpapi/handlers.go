package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dialdesk/internal/audit"
	"dialdesk/internal/auth"
	"dialdesk/internal/calls"
	"dialdesk/internal/compliance"
	"dialdesk/internal/crm"
	"dialdesk/internal/dialer"
	"dialdesk/internal/telephony"
	"dialdesk/internal/tts"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth       *auth.Manager
	Dialer     *dialer.Service
	Sessions   *calls.Store
	Compliance *compliance.Service

	// Gate is the schedulability checker behind validate-calling-time.
	Gate *compliance.Gate

	Provider   telephony.Provider
	Audit      *audit.Service
	CRM        *crm.HubSpotClient
	TTS        *tts.ElevenLabsClient

	// BlockRestrictedDays mirrors the compliance gate policy for
	// immediate dials: block on Sundays and federal holidays instead of
	// warn-and-proceed.
	BlockRestrictedDays bool

	// Location is the timezone restricted-day checks run in. Defaults to
	// the process-local zone.
	Location *time.Location
}

func (h Handlers) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.Local
}

// identity pulls the authenticated caller out of the request context.
func identity(c *gin.Context) (userID, role string, ok bool) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		return "", "", false
	}
	role, err = auth.Role(c.Request.Context())
	if err != nil {
		return "", "", false
	}
	return userID, role, true
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a fresh pair.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), claims.UserID, claims.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Me returns the caller's identity, mostly for console debugging.
func (h Handlers) Me(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
}
