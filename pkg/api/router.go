package api

import (
	"github.com/gin-gonic/gin"

	"waitlist-api/pkg/middleware"
)

// NewRouter wires the middleware stack and routes onto a gin engine
func NewRouter(h *Handlers, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(allowedOrigins))

	router.GET("/health", h.HealthCheck)
	router.GET("/submissions", h.ListSubmissions)
	router.GET("/download-submissions", h.DownloadSubmissions)
	router.POST("/submit", h.Submit)
	router.OPTIONS("/submit", h.SubmitOptions)
	router.DELETE("/submissions/:id", h.DeleteSubmission)

	return router
}
