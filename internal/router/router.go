package router

import (
	"github.com/gin-gonic/gin"

	"docquery/internal/handler"
	"docquery/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	processH *handler.ProcessHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	r.GET("/healthz", healthH.Liveness)

	v1 := r.Group("/api/v1")
	v1.POST("/process-pdf", processH.ProcessPDF)

	// Unversioned path kept for existing clients.
	r.POST("/process-pdf", processH.ProcessPDF)

	return r
}
