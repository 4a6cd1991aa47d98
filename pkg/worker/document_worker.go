package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
	"github.com/feichai0017/correspondence-tracker/pkg/queue"
)

// AnalysisService is the part of the document service the worker runs.
type AnalysisService interface {
	HandleAnalysisTask(ctx context.Context, task *queue.Task) (*models.AnalysisResult, error)
	CleanupTemporary(ctx context.Context) (int, error)
}

type DocumentWorker struct {
	BaseWorker
	docService AnalysisService
}

func NewDocumentWorker(cfg *Config, docService AnalysisService, log logger.Logger) (*DocumentWorker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = map[string]int{
			queue.QueueCritical: 6,
			queue.QueueDefault:  3,
			queue.QueueLow:      1,
		}
	}

	server := asynq.NewServer(
		cfg.Redis,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &DocumentWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log.Named("worker"),
			stopChan: make(chan struct{}),
		},
		docService: docService,
	}

	if cfg.CleanupSpec != "" {
		w.scheduler = asynq.NewScheduler(cfg.Redis, &asynq.SchedulerOpts{Location: time.Local})
		if _, err := w.scheduler.Register(cfg.CleanupSpec,
			asynq.NewTask(queue.TaskTypeCleanupTemps, nil),
			asynq.Queue(queue.QueueLow),
		); err != nil {
			return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
		}
	}

	w.registerHandlers()
	return w, nil
}

func (w *DocumentWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypeAnalyzeFile, w.handleAnalyzeFile)
	w.mux.HandleFunc(queue.TaskTypeCleanupTemps, w.handleCleanup)
}

func (w *DocumentWorker) handleAnalyzeFile(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w: %w", err, asynq.SkipRetry)
	}

	w.logger.Info("Processing analysis task",
		logger.String("taskId", task.ID),
		logger.Any("payload", task.Payload),
	)

	if task.ID == "" || task.Payload["key"] == "" {
		w.logger.Error("Invalid task data", logger.String("taskId", task.ID))
		return fmt.Errorf("invalid task data: missing required fields: %w", asynq.SkipRetry)
	}

	res, err := w.docService.HandleAnalysisTask(ctx, &task)
	if err != nil {
		w.logger.Error("Analysis task failed",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
		return err
	}

	if rw := t.ResultWriter(); rw != nil {
		data, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		if _, err := rw.Write(data); err != nil {
			w.logger.Error("Failed to write task result", logger.Error(err))
		}
	}
	return nil
}

func (w *DocumentWorker) handleCleanup(ctx context.Context, t *asynq.Task) error {
	n, err := w.docService.CleanupTemporary(ctx)
	if err != nil {
		w.logger.Error("Cleanup failed", logger.Error(err))
		return err
	}
	w.logger.Info("Cleanup finished", logger.Int("removed", n))
	return nil
}

func (w *DocumentWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.server.Shutdown()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopChan:
		}
	}()

	w.logger.Info("Worker started")
	return nil
}
