package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	handlers "prompt_maker_server/internal/api"
)

// RegisterRoutes sets up the API endpoints and groups them logically.
func RegisterRoutes(router *gin.Engine, h *handlers.APIHandler) {

	// --- Catalog ---
	router.GET("/tools", h.ListTools)
	router.GET("/tools/:id", h.GetTool)
	router.GET("/faq", h.GetFAQ)

	// --- Stateless engine ---
	// For clients that keep their own state.
	router.POST("/render", h.RenderPrompt)
	router.POST("/refine", h.RefinePrompt)

	// --- Guided sessions ---
	sessionGroup := router.Group("/sessions")
	{
		sessionGroup.POST("", h.CreateSession)
		sessionGroup.GET("/:id", h.GetSession)
		sessionGroup.DELETE("/:id", h.DeleteSession)
		sessionGroup.PUT("/:id/tool", h.SelectTool)
		sessionGroup.PUT("/:id/answers/:fieldId", h.SetAnswer)
		sessionGroup.PATCH("/:id/answers", h.SetAnswers)
		sessionGroup.POST("/:id/generate", h.GeneratePrompt)
		sessionGroup.POST("/:id/refine", h.RefineSession)
		sessionGroup.DELETE("/:id/artifact", h.DismissArtifact)
	}

	// --- Simple Health Check ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// NewRouter builds the engine with the middleware stack used in production.
func NewRouter(h *handlers.APIHandler, mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(mw...)
	RegisterRoutes(router, h)
	return router
}
