package handlers

import (
	"context"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/service/auth"
	"github.com/feichai0017/correspondence-tracker/internal/service/document"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

// TextAnalyzer is implemented by analysis.Service.
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, text string) models.AnalysisResult
	OCRAvailable() bool
}

// Authenticator is implemented by auth.Service.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Auth     *AuthHandler
	Document *DocumentHandler
	Analysis *AnalysisHandler
	Health   *HealthHandler
}

func NewHandlers(
	documentService document.DocumentProcessor,
	analyzer TextAnalyzer,
	authService Authenticator,
	db Pinger,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(authService, log),
		Document: NewDocumentHandler(documentService, log),
		Analysis: NewAnalysisHandler(analyzer, documentService, log),
		Health:   NewHealthHandler(db, analyzer),
	}
}
