package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/correspondence-tracker/internal/service/document"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

type AnalysisHandler struct {
	analyzer TextAnalyzer
	docs     document.DocumentProcessor
	logger   logger.Logger
}

type AnalyzeTextRequest struct {
	Texto string `json:"texto"`
}

func NewAnalysisHandler(analyzer TextAnalyzer, docs document.DocumentProcessor, log logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, docs: docs, logger: log}
}

// AnalyzeText proposes document fields from pasted text.
func (h *AnalysisHandler) AnalyzeText(c *gin.Context) {
	var req AnalyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Texto) == "" {
		badRequest(c, "Se requiere texto para analizar")
		return
	}
	c.JSON(http.StatusOK, h.analyzer.AnalyzeText(c.Request.Context(), req.Texto))
}

// AnalyzeFile analyzes a stored upload synchronously.
func (h *AnalysisHandler) AnalyzeFile(c *gin.Context) {
	res, err := h.docs.AnalyzeStored(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, h.logger, "Failed to analyze file", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SubmitJob queues the analysis of a stored upload.
func (h *AnalysisHandler) SubmitJob(c *gin.Context) {
	task, err := h.docs.SubmitAnalysis(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, h.logger, "Failed to queue analysis", err)
		return
	}
	c.JSON(http.StatusAccepted, task)
}

func (h *AnalysisHandler) GetJob(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		badRequest(c, "Task ID is required")
		return
	}

	task, err := h.docs.GetAnalysisJob(c.Request.Context(), taskID)
	if err != nil {
		handleError(c, h.logger, "Failed to get analysis job", err)
		return
	}
	c.JSON(http.StatusOK, task)
}
