package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dialdesk/internal/calls"
	"dialdesk/internal/compliance"
	"dialdesk/internal/dialer"
	"dialdesk/internal/rbac"
	"dialdesk/internal/telephony"
	"dialdesk/pkg/logger"
)

type dialRequest struct {
	To         string `json:"to"`
	ContactID  string `json:"contact_id,omitempty"`
	CampaignID string `json:"campaign_id,omitempty"`
}

// Dial places one outbound call for the authenticated agent.
func (h Handlers) Dial(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req dialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.To == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to required"})
		return
	}

	if !h.restrictedDayAllowed(c, userID, req.To) {
		return
	}

	sess, err := h.Dialer.Dial(c.Request.Context(), userID, dialer.DialParams{
		To:         req.To,
		ContactID:  req.ContactID,
		CampaignID: req.CampaignID,
	})
	if err != nil {
		h.dialError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

type dialParallelRequest struct {
	Numbers    []string `json:"numbers"`
	ContactID  string   `json:"contact_id,omitempty"`
	CampaignID string   `json:"campaign_id,omitempty"`
}

// DialParallel dials up to the configured batch cap concurrently. Blocked
// and failed numbers are reported in the result, not as request errors.
func (h Handlers) DialParallel(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req dialParallelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Dialer.DialMany(c.Request.Context(), userID, req.Numbers, dialer.DialParams{
		ContactID:  req.ContactID,
		CampaignID: req.CampaignID,
	})
	if err != nil {
		var tooMany *dialer.ErrTooManyNumbers
		switch {
		case errors.Is(err, dialer.ErrNoNumbers):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "numbers required"})
		case errors.As(err, &tooMany):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "too many numbers",
				"max":   tooMany.Max,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "parallel dial failed"})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

// EndCall hangs up an active call. Owner or admin only.
func (h Handlers) EndCall(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	sessionID := c.Param("id")

	sess, err := h.Dialer.End(c.Request.Context(), userID, role, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, calls.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		case errors.Is(err, dialer.ErrPermissionDenied):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		case errors.Is(err, dialer.ErrCallNotActive):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call is not active"})
		default:
			h.dialError(c, err)
		}
		return
	}

	if h.Audit != nil && rbac.IsAdmin(role) && sess.AgentID != userID {
		if err := h.Audit.LogForcedHangup(c.Request.Context(), userID, role, c.ClientIP(), sess.ID); err != nil {
			logger.FromGin(c).Warn("audit append failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": sess.ID, "status": "ending"})
}

// ClientToken mints a provider token for the agent's browser softphone.
func (h Handlers) ClientToken(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	token, err := h.Provider.IssueClientToken(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "identity": userID})
}

// ListCalls returns call history. Agents see only their own sessions; admins
// see everything and may filter by agent_id.
func (h Handlers) ListCalls(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	f, err := listFilterFromQuery(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !rbac.IsAdmin(role) {
		f.AgentID = userID
	}

	sessions, err := h.Sessions.List(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	if sessions == nil {
		sessions = []calls.CallSession{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": sessions})
}

// GetCall returns one session. Owner or admin only.
func (h Handlers) GetCall(c *gin.Context) {
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
	c.JSON(http.StatusOK, sess)
}

type updateCallRequest struct {
	Disposition string `json:"disposition,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// UpdateCall records the agent's after-call disposition and notes.
func (h Handlers) UpdateCall(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req updateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sessionID := c.Param("id")
	sess, err := h.Sessions.Get(c.Request.Context(), sessionID)
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

	updated, err := h.Sessions.SetDisposition(c.Request.Context(), sessionID, req.Disposition, req.Notes)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// CallStats aggregates call history for the dashboard.
func (h Handlers) CallStats(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	f, err := listFilterFromQuery(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !rbac.IsAdmin(role) {
		f.AgentID = userID
	}

	stats, err := h.Sessions.Summarize(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// restrictedDayAllowed enforces the Sunday/federal-holiday policy for
// immediate dials. Warn-and-proceed by default; 403 when blocking is on.
func (h Handlers) restrictedDayAllowed(c *gin.Context, userID, number string) bool {
	restricted, day := compliance.RestrictedDay(time.Now(), h.location())
	if !restricted {
		return true
	}
	if h.BlockRestrictedDays {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":  "calls are not allowed today",
			"reason": string(compliance.BlockReasonRestrictedDay),
			"day":    day,
		})
		return false
	}
	logger.FromGin(c).Warn("dial on restricted day", "day", day, "agent_id", userID)
	if h.Audit != nil {
		if err := h.Audit.LogRestrictedDayDial(c.Request.Context(), userID, number, day); err != nil {
			logger.FromGin(c).Warn("audit append failed", "error", err)
		}
	}
	return true
}

func (h Handlers) dialError(c *gin.Context, err error) {
	var blocked *dialer.BlockedError
	var provider *telephony.ProviderError
	switch {
	case errors.As(err, &blocked):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":    "number blocked",
			"decision": blocked.Decision,
		})
	case errors.Is(err, dialer.ErrTooManyActiveCalls):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "concurrent call limit reached"})
	case errors.As(err, &provider):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "telephony provider error"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dial failed"})
	}
}

func listFilterFromQuery(c *gin.Context) (calls.ListFilter, error) {
	var f calls.ListFilter
	f.AgentID = c.Query("agent_id")

	if s := c.Query("status"); s != "" {
		status := calls.CallStatus(s)
		if !calls.ValidStatus(status) {
			return calls.ListFilter{}, errors.New("invalid status filter")
		}
		f.Status = status
	}
	for _, q := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &f.From},
		{"to", &f.To},
	} {
		if s := c.Query(q.name); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return calls.ListFilter{}, errors.New(q.name + " must be RFC 3339")
			}
			*q.dst = t
		}
	}
	if s := c.Query("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return calls.ListFilter{}, errors.New("invalid offset")
		}
		f.Offset = n
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return calls.ListFilter{}, errors.New("invalid limit")
		}
		f.Limit = n
	}
	return f, nil
}
