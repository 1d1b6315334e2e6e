package main

import (
	"github.com/gin-gonic/gin"

	"dialdesk/internal/auth"
	"dialdesk/internal/httpapi"
	"dialdesk/internal/rbac"
	"dialdesk/internal/realtime"
	"dialdesk/internal/telephony"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, webhooks *telephony.WebhookHandler, hub *realtime.Hub, authManager *auth.Manager) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public; signature-validated in production).
	webhooks.Register(r)

	// auth (public)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.Refresh)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(h.Auth))
	{
		v1.GET("/me", h.Me)

		calls := v1.Group("/calls")
		calls.Use(rbac.RequireAnyRole(rbac.RoleAgent))
		{
			calls.POST("/dial", h.Dial)
			calls.POST("/dial-parallel", h.DialParallel)
			calls.POST("/:id/end", h.EndCall)
			calls.GET("/token", h.ClientToken)
			calls.GET("", h.ListCalls)
			calls.GET("/stats", h.CallStats)
			calls.GET("/:id", h.GetCall)
			calls.PUT("/:id", h.UpdateCall)
		}

		comp := v1.Group("/compliance")
		comp.Use(rbac.RequireAnyRole(rbac.RoleAgent))
		{
			comp.POST("/dnc", h.DNCAdd)
			comp.GET("/dnc", h.DNCList)
			comp.GET("/dnc/check/:number", h.DNCCheck)
			comp.GET("/tcpa/calling-hours", h.CallingHours)
			comp.POST("/tcpa/validate-calling-time", h.ValidateCallingTime)

			// Delisting is admin-only.
			comp.DELETE("/dnc/:id", rbac.RequireAdmin(), h.DNCRemove)
		}

		crmGroup := v1.Group("/crm")
		crmGroup.Use(rbac.RequireAnyRole(rbac.RoleAgent))
		{
			crmGroup.GET("/contacts", h.CRMContacts)
			crmGroup.POST("/contacts", h.CRMUpsertContact)
			crmGroup.POST("/log-call/:id", h.CRMLogCall)
		}

		ttsGroup := v1.Group("/tts")
		ttsGroup.Use(rbac.RequireAnyRole(rbac.RoleAgent))
		{
			ttsGroup.GET("/voices", h.TTSVoices)
			ttsGroup.POST("/preview", h.TTSPreview)
		}
	}

	// Realtime console stream. Browsers cannot set headers on the
	// upgrade request, so this authenticates itself (header or ?token=)
	// instead of using the bearer middleware.
	r.GET("/v1/realtime", realtime.Handler(hub, authManager))
}
