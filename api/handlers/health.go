package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db       Pinger
	analyzer TextAnalyzer
}

func NewHealthHandler(db Pinger, analyzer TextAnalyzer) *HealthHandler {
	return &HealthHandler{db: db, analyzer: analyzer}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"ocr":       h.analyzer != nil && h.analyzer.OCRAvailable(),
	})
}
