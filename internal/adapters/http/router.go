package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/omnisight/backend/internal/adapters/relay"
	"github.com/omnisight/backend/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ws *relay.WSController, api *APIController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("OmniSightSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Unified live endpoint for technician and expert connections.
	r.GET("/live", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("live endpoint hit")
		ws.HandleLive(ctx, c)
	})

	v1 := r.Group("/api/v1")
	v1.GET("/rooms/active", api.GetActiveRooms)
	v1.GET("/history", api.GetSessionHistory)
	v1.POST("/log", api.SaveSessionLog)
	v1.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "OmniSight REST API", "status": "operational"})
	})

	return r
}
