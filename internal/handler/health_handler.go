package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ocrProvider string
	llmProvider string
}

// NewHealthHandler creates a new HealthHandler reporting the configured providers.
func NewHealthHandler(ocrProvider, llmProvider string) *HealthHandler {
	return &HealthHandler{ocrProvider: ocrProvider, llmProvider: llmProvider}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ocr":    h.ocrProvider,
		"llm":    h.llmProvider,
	})
}
