package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/GlarosConsulting/atena-client/internal/handlers"
	"github.com/GlarosConsulting/atena-client/internal/middleware"
	"github.com/GlarosConsulting/atena-client/models"
)

// RegisterAPIRoutes registers the /api routes. The group must already run
// AuthMiddleware.
func RegisterAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	apiGroup := api.Group("/api")
	{
		apiGroup.GET("/me", h.MeHandler)
		apiGroup.GET("/cities", h.CitiesHandler)

		// --- DASHBOARD ---
		dash := apiGroup.Group("/dashboard")
		{
			dash.GET("", h.DashboardHandler)
			dash.GET("/cards/:card", h.CardHandler)
			dash.GET("/export", h.ExportHandler)
		}

		agreements := apiGroup.Group("/agreements")
		{
			agreements.GET("/pending", h.PendingAgreementsHandler)
			agreements.GET("/oldest", h.OldestAgreementsHandler)
		}

		// --- FILTERS ---
		filterGroup := apiGroup.Group("/filters")
		{
			filterGroup.GET("", h.GetFiltersHandler)
			filterGroup.PATCH("", h.PatchFiltersHandler)
			filterGroup.DELETE("", h.ClearFiltersHandler)
			filterGroup.POST("/check", h.CheckFiltersHandler)

			filterGroup.GET("/presets", h.ListPresetsHandler)
			filterGroup.POST("/presets", h.CreatePresetHandler)
			filterGroup.DELETE("/presets/:id", h.DeletePresetHandler)
			filterGroup.POST("/presets/:id/apply", h.ApplyPresetHandler)
		}

		// --- ADMINISTRATION ---
		admin := middleware.AccessMiddleware(models.AccessAny)

		groups := apiGroup.Group("/groups", admin)
		{
			groups.GET("", h.ListGroupsHandler)
			groups.GET("/lookup", h.LookupGroupsHandler)
			groups.POST("", h.CreateGroupHandler)
			groups.PUT("/:id", h.UpdateGroupHandler)
			groups.DELETE("/:id", h.DeleteGroupHandler)
		}

		users := apiGroup.Group("/users", admin)
		{
			users.GET("", h.ListUsersHandler)
			users.POST("", h.CreateUserHandler)
			users.PUT("/:id", h.UpdateUserHandler)
			users.DELETE("/:id", h.DeleteUserHandler)
		}
	}
}
