package worker

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	Redis       asynq.RedisClientOpt
	Concurrency int
	Queues      map[string]int
	// CleanupSpec is the cron spec of the temporary upload cleanup. Empty
	// disables it.
	CleanupSpec string
}

type BaseWorker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    logger.Logger
	stopOnce  sync.Once
	stopChan  chan struct{}
}

// Stop is safe to call more than once.
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		if w.server != nil {
			w.server.Shutdown()
		}
	})
	return nil
}

// Done is closed once Stop has run.
func (w *BaseWorker) Done() <-chan struct{} {
	return w.stopChan
}
