package web

import (
	"github.com/gin-gonic/gin"

	"github.com/davsync/davsync/internal/auth"
)

// SetupRoutes configures all application routes.
func SetupRoutes(r *gin.Engine, h *Handlers, creds auth.Credentials) {
	r.Use(auth.BasicAuth(creds))

	// Health endpoint (reachable without credentials)
	r.GET("/api/health", h.HealthCheck)

	// Calendar feeds for subscribing clients
	r.GET("/ics/:name", h.CalendarFeed)

	apiRateLimiter := RateLimiter(30, 60)
	api := r.Group("/api")
	api.Use(apiRateLimiter)
	api.Use(RequireJSONContentType())
	{
		api.GET("/sources", h.ListSources)
		api.POST("/sources", h.CreateSource)
		api.GET("/sources/:id", h.GetSource)
		api.PUT("/sources/:id", h.UpdateSource)
		api.DELETE("/sources/:id", h.DeleteSource)
		api.POST("/sources/:id/sync", h.TriggerSourceSync)
		api.GET("/sources/:id/ics", h.DownloadSourceICS)

		api.GET("/destinations", h.ListDestinations)
		api.POST("/destinations", h.CreateDestination)
		api.GET("/destinations/:id", h.GetDestination)
		api.PUT("/destinations/:id", h.UpdateDestination)
		api.DELETE("/destinations/:id", h.DeleteDestination)
		api.POST("/destinations/:id/sync", h.TriggerDestinationSync)
	}
}
