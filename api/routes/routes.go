package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/correspondence-tracker/api/handlers"
	"github.com/feichai0017/correspondence-tracker/api/middleware"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

type Config struct {
	CORSOrigins    []string
	// MaxUploadBytes caps upload request bodies.
	MaxUploadBytes int64
}

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, tokens middleware.TokenParser, cfg Config, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.Health.Check)
	v1.POST("/auth/login", h.Auth.Login)

	api := v1.Group("")
	api.Use(middleware.Auth(tokens, log))
	api.GET("/auth/me", h.Auth.Me)

	// Upload bodies are capped with some slack for the multipart framing.
	upload := middleware.MaxBodySize(cfg.MaxUploadBytes + 1<<20)

	docs := api.Group("/documents")
	{
		docs.GET("", h.Document.List)
		docs.POST("", h.Document.Create)
		docs.GET("/:id", h.Document.Get)
		docs.PUT("/:id", h.Document.Update)
		docs.DELETE("/:id", h.Document.Delete)
		docs.POST("/:id/file", upload, h.Document.UploadFile)
		docs.GET("/:id/file", h.Document.DownloadFile)
	}

	api.POST("/uploads/temp", upload, h.Document.UploadTemporary)

	analysis := api.Group("/analysis")
	{
		analysis.POST("/text", h.Analysis.AnalyzeText)
		analysis.POST("/file/:name", h.Analysis.AnalyzeFile)
		analysis.POST("/jobs/:name", h.Analysis.SubmitJob)
		analysis.GET("/jobs/:taskId", h.Analysis.GetJob)
	}
}
