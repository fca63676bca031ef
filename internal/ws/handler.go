package ws

import (
	"net/http"
	"os"

	"crewquest/internal/game"
	"crewquest/internal/logger"
	"crewquest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades a connection and hands it to the hub. Identity is
// established upstream; the token is only parsed, never issued here.
func HandleWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		user, err := service.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		role := c.Query("role")
		if role == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role required"})
			return
		}
		key := c.Query("key")
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room key required"})
			return
		}
		gameType, ok := game.ParseType(c.Query("game"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game type"})
			return
		}

		allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		connectionsActive.Inc()
		client := NewClient(user, role, conn)
		go func() {
			defer connectionsActive.Dec()
			client.Run(hub, key, gameType)
		}()
	}
}
