package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/GlarosConsulting/atena-client/internal/handlers"
)

// RegisterAuthRoutes registers the routes that need no session.
func RegisterAuthRoutes(r *gin.Engine, h *handlers.Handler) {
	r.POST("/login", h.LoginHandler)
	r.GET("/logout", h.LogoutHandler)
	r.GET("/healthz", handlers.HealthzHandler)
}
