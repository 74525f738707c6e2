package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/GlarosConsulting/atena-client/internal/handlers"
	"github.com/GlarosConsulting/atena-client/internal/middleware"
)

// SetupRoutes registers every route of the gateway.
func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	// Public routes.
	RegisterAuthRoutes(r, h)

	// Everything under /api needs a signed-in session.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware(h.Gate, h.Tokens))
	{
		RegisterAPIRoutes(authRequired, h)
	}
}

// NewRouter builds the gin engine with logging and recovery.
func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	SetupRoutes(r, h)
	return r
}
