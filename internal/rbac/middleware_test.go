package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dialdesk/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(t *testing.T, role string, mw gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, mw, func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveWithRole(t, RoleAdmin, RequireAnyRole(RoleAgent)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_UnlistedRoleDenied(t *testing.T) {
	if code := serveWithRole(t, "viewer", RequireAnyRole(RoleAgent)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingRoleUnauthorized(t *testing.T) {
	if code := serveWithRole(t, "", RequireAnyRole(RoleAgent)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireAdmin_DeniesAgent(t *testing.T) {
	if code := serveWithRole(t, RoleAgent, RequireAdmin()); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestCanAccessCall(t *testing.T) {
	if !CanAccessCall(RoleAdmin, "a", "b") {
		t.Fatalf("admin should access any call")
	}
	if !CanAccessCall(RoleAgent, "a", "a") {
		t.Fatalf("agent should access own call")
	}
	if CanAccessCall(RoleAgent, "a", "b") {
		t.Fatalf("agent must not access another agent's call")
	}
}
