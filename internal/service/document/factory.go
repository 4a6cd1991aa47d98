package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/internal/agent"
	"github.com/feichai0017/correspondence-tracker/internal/agent/llm"
	"github.com/feichai0017/correspondence-tracker/internal/numbering"
	"github.com/feichai0017/correspondence-tracker/internal/repository"
	"github.com/feichai0017/correspondence-tracker/internal/service/analysis"
	"github.com/feichai0017/correspondence-tracker/internal/utils/validator"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
	"github.com/feichai0017/correspondence-tracker/pkg/queue"
	"github.com/feichai0017/correspondence-tracker/pkg/storage"
)

// Dependencies is everything the server and the worker build from the
// environment.
type Dependencies struct {
	DB       *sql.DB
	Users    *repository.UserRepository
	Docs     *repository.DocumentRepository
	Analysis *analysis.Service
	// Queue is nil when redis could not be reached and it was optional.
	Queue    *queue.AsynqQueue
	Service  *DocumentService
}

// Build opens the database and storage and wires the services. With
// requireQueue false an unreachable redis only disables background jobs.
func Build(ctx context.Context, log logger.Logger, requireQueue bool) (*Dependencies, error) {
	appCfg := config.GetAppConfig()
	ocrCfg := config.GetOCRConfig()

	db, err := repository.Open(appCfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{
		DB:    db,
		Users: repository.NewUserRepository(db),
		Docs:  repository.NewDocumentRepository(db),
	}

	factory, err := agent.NewProcessorFactory(ctx, ocrCfg, config.GetTextractConfig(), log)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create processors: %w", err)
	}

	extractor := numbering.NewExtractor(numbering.Options{
		FallbackYear:  appCfg.FallbackYear,
		DefaultSuffix: appCfg.DefaultSuffix,
	})
	analyzer := llm.NewOpenAIAnalyzer(config.GetLLMConfig(), log.Named("llm"))
	if !analyzer.Configured() {
		log.Warn("OPENAI_API_KEY not set, analysis will return manual-entry results")
	}
	deps.Analysis = analysis.NewService(analyzer, factory.PDF(), factory.OCR(), extractor, ocrCfg.Timeout, log)

	store, err := storage.NewStorage(ctx, appCfg, log)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	var q queue.Queue
	aq, err := queue.NewAsynqQueue(queue.ConfigFromRedis(config.GetRedisConfig(), 0))
	switch {
	case err == nil:
		deps.Queue = aq
		q = aq
	case requireQueue:
		deps.Close()
		return nil, fmt.Errorf("failed to create queue: %w", err)
	default:
		log.Warn("Redis unavailable, background analysis disabled", logger.Error(err))
	}

	v := validator.NewDocumentValidator(log.Named("validator"), &validator.ValidatorConfig{
		MaxFileSize:  appCfg.MaxUploadBytes(),
		MaxPageCount: appCfg.MaxPages,
	})
	deps.Service = NewService(deps.Docs, store, deps.Analysis, v, q, log, &ServiceConfig{
		TempDir:         ocrCfg.TempDir,
		RetentionPeriod: appCfg.TempRetention,
	})
	return deps, nil
}

func (d *Dependencies) Close() error {
	var errs []error
	if d.Queue != nil {
		errs = append(errs, d.Queue.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}
