package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dialdesk/internal/compliance"
	"dialdesk/pkg/logger"
)

type dncAddRequest struct {
	PhoneNumber string `json:"phone_number"`
	Reason      string `json:"reason,omitempty"`
}

// DNCAdd lists a number on the do-not-call registry.
func (h Handlers) DNCAdd(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req dncAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	entry, err := h.Compliance.AddToDNC(c.Request.Context(), req.PhoneNumber, req.Reason, userID)
	if err != nil {
		switch {
		case errors.Is(err, compliance.ErrInvalidNumber):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phone_number required"})
		case errors.Is(err, compliance.ErrAlreadyListed):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "number already listed"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dnc update failed"})
		}
		return
	}

	h.auditDNC(c, true, userID, role, entry.PhoneNumber, entry.ID, req.Reason)
	c.JSON(http.StatusCreated, entry)
}

// DNCList pages through the registry.
func (h Handlers) DNCList(c *gin.Context) {
	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 100)

	entries, err := h.Compliance.ListDNC(c.Request.Context(), offset, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dnc lookup failed"})
		return
	}
	if entries == nil {
		entries = []compliance.DNCEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// DNCRemove delists an entry by id. Admin only (enforced in routing).
func (h Handlers) DNCRemove(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id := c.Param("id")
	if err := h.Compliance.RemoveFromDNC(c.Request.Context(), id); err != nil {
		if errors.Is(err, compliance.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dnc update failed"})
		return
	}

	h.auditDNC(c, false, userID, role, "", id, "")
	c.Status(http.StatusNoContent)
}

// DNCCheck reports whether one number is listed.
func (h Handlers) DNCCheck(c *gin.Context) {
	number := c.Param("number")
	entry, listed, err := h.Compliance.CheckDNC(c.Request.Context(), number)
	if err != nil {
		if errors.Is(err, compliance.ErrInvalidNumber) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "number required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dnc lookup failed"})
		return
	}
	resp := gin.H{"phone_number": number, "listed": listed}
	if listed {
		resp["entry"] = entry
	}
	c.JSON(http.StatusOK, resp)
}

// CallingHours describes the TCPA calling window and today's restrictions.
func (h Handlers) CallingHours(c *gin.Context) {
	now := time.Now().In(h.location())
	restricted, day := compliance.RestrictedDay(now, h.location())
	c.JSON(http.StatusOK, gin.H{
		"window_start":    "08:00",
		"window_end":      "21:00",
		"timezone":        h.location().String(),
		"in_window":       compliance.IsWithinCallingWindow(now, h.location()),
		"restricted_day":  restricted,
		"restriction":     day,
		"blocking_policy": h.BlockRestrictedDays,
	})
}

type validateCallingTimeRequest struct {
	PhoneNumber string `json:"phone_number"`

	// At is the proposed dial time, RFC 3339. Empty means now.
	At string `json:"at,omitempty"`

	// Timezone is the recipient's IANA zone. Empty means server-local.
	Timezone string `json:"timezone,omitempty"`
}

// ValidateCallingTime runs the full schedulability check for one number at a
// proposed time: DNC, calling window, restricted days.
func (h Handlers) ValidateCallingTime(c *gin.Context) {
	var req validateCallingTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.PhoneNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phone_number required"})
		return
	}

	loc := h.location()
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown timezone"})
			return
		}
		loc = l
	}

	// Accepts a full timestamp or a bare clock time, which is taken to
	// mean today in the requested timezone.
	at := time.Now()
	if req.At != "" {
		if t, err := time.Parse(time.RFC3339, req.At); err == nil {
			at = t
		} else if clk, cerr := compliance.ParseClock(req.At); cerr == nil {
			y, m, d := time.Now().In(loc).Date()
			at = time.Date(y, m, d, clk.Hour, clk.Minute, 0, 0, loc)
		} else {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "at must be RFC 3339 or HH:MM"})
			return
		}
	}

	decision, err := h.Gate.CheckSchedulable(c.Request.Context(), req.PhoneNumber, at, loc)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h Handlers) auditDNC(c *gin.Context, added bool, userID, role, number, entryID, reason string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogDNCChange(c.Request.Context(), added, userID, role, c.ClientIP(), number, entryID, reason); err != nil {
		logger.FromGin(c).Warn("audit append failed", "error", err)
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	s := c.Query(name)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
