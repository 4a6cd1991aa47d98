package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/internal/service/document"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
	"github.com/feichai0017/correspondence-tracker/pkg/queue"
	"github.com/feichai0017/correspondence-tracker/pkg/worker"
)

func main() {
	appCfg := config.GetAppConfig()
	redisCfg := config.GetRedisConfig()

	// 初始化日志
	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := document.Build(ctx, log, true)
	if err != nil {
		log.Error("Failed to build services", logger.Error(err))
		os.Exit(1)
	}
	defer deps.Close()

	workerCfg := &worker.Config{
		Redis:       queue.ConfigFromRedis(redisCfg, 0).RedisOpt(),
		Concurrency: redisCfg.Concurrency,
		CleanupSpec: "@every 1h",
	}

	documentWorker, err := worker.NewDocumentWorker(workerCfg, deps.Service, log)
	if err != nil {
		log.Error("Failed to create document worker", logger.Error(err))
		os.Exit(1)
	}

	if err := documentWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	documentWorker.Stop()
	log.Info("Worker stopped")
}
