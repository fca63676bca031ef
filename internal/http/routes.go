package http

import (
	"net/http"

	"crewquest/internal/config"
	"crewquest/internal/http/middleware"
	"crewquest/internal/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the engine's public surface: the websocket
// gateway, a registry stats endpoint, and health.
func RegisterRoutes(r *gin.Engine, hub *ws.Hub, limiter *middleware.RateLimiter, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.Stats())
	})

	wsRoute := r.Group("/")
	if limiter != nil {
		wsRoute.Use(limiter.Limit(cfg.WSRateLimit, cfg.WSRateWindow))
	}
	wsRoute.GET("/ws", ws.HandleWS(hub))
}
