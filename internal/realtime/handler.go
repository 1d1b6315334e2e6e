package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dialdesk/internal/auth"
	"dialdesk/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser softphones connect cross-origin from the agent console.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler upgrades authenticated agents to a websocket and attaches them to
// the hub. Browsers cannot set an Authorization header on the upgrade
// request, so the access token is also accepted as a query parameter.
func Handler(hub *Hub, tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		token := auth.BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}
		claims, err := tokens.Verify(token, auth.TokenTypeAccess, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err, "agent_id", claims.UserID)
			return
		}

		conn := hub.Register(claims.UserID, claims.Role)
		hub.Serve(ws, conn)
	}
}
