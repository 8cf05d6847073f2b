package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/story-relay-api/internal/auth"
	"github.com/yukikurage/story-relay-api/internal/middleware"
)

// Handlers bundles every resource handler served by the API.
type Handlers struct {
	Health *HealthHandler
	Auth   *AuthHandler
	Story  *StoryHandler
	Export *ExportHandler
}

// RegisterRoutes mounts the API on r. Authenticated routes also run under
// the request timeout.
func RegisterRoutes(r gin.IRouter, h Handlers, issuer *auth.TokenIssuer, requestTimeout time.Duration) {
	requireAuth := middleware.RequireAuth(issuer)
	timeout := middleware.RequestTimeout(requestTimeout)

	r.GET("/health", h.Health.Health)

	// Auth routes
	authGroup := r.Group("/auth")
	authGroup.Use(timeout)
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
		authGroup.GET("/user", requireAuth, h.Auth.GetCurrentUser)
		authGroup.DELETE("/user", requireAuth, h.Auth.DeleteCurrentUser)
	}

	// Story routes (protected)
	stories := r.Group("/stories")
	stories.Use(requireAuth, timeout)
	{
		stories.GET("", h.Story.ListStories)
		stories.POST("", h.Story.CreateStory)

		story := stories.Group("/:id")
		story.Use(middleware.ParseStoryID())
		{
			story.GET("", h.Story.GetStory)
			story.PUT("", h.Story.UpdateStory)
			story.PATCH("", h.Story.UpdateStory)
			story.DELETE("", h.Story.DeleteStory)
			story.POST("/contribute", h.Story.Contribute)
			story.POST("/export", h.Export.ExportStory)
			story.GET("/export/:job_id", h.Export.GetExportJob)
			story.GET("/export/:job_id/file", h.Export.DownloadExport)
		}
	}
}
