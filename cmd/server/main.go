package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/correspondence-tracker/api/handlers"
	"github.com/feichai0017/correspondence-tracker/api/routes"
	"github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/internal/service/auth"
	"github.com/feichai0017/correspondence-tracker/internal/service/document"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

func main() {
	appCfg := config.GetAppConfig()

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths(appCfg.LogOutputs),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	deps, err := document.Build(ctx, log, false)
	if err != nil {
		log.Fatal("Failed to build services", logger.Error(err))
	}
	defer deps.Close()

	authService, err := auth.NewService(deps.Users, jwtSecret(appCfg.JWTSecret, log), appCfg.TokenTTL, log)
	if err != nil {
		log.Fatal("Failed to create auth service", logger.Error(err))
	}
	if _, err := authService.SeedAdmin(ctx, appCfg.AdminUsername, appCfg.AdminPassword, appCfg.AdminName); err != nil {
		log.Fatal("Failed to seed admin user", logger.Error(err))
	}

	h := handlers.NewHandlers(deps.Service, deps.Analysis, authService, deps.DB, log)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, authService, routes.Config{
		CORSOrigins:    appCfg.CORSOrigins,
		MaxUploadBytes: appCfg.MaxUploadBytes(),
	}, log)

	srv := &http.Server{
		Addr:              ":" + appCfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}

// jwtSecret falls back to a random per-process secret, which logs every
// user out on restart.
func jwtSecret(configured string, log logger.Logger) []byte {
	if configured != "" {
		return []byte(configured)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatal("Failed to generate jwt secret", logger.Error(err))
	}
	log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	return secret
}
