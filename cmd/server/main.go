package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"roomchat/internal/server"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	server.SetLogger(logger)

	config := server.NewConfigFromEnv()
	server.SetConfig(config)

	mux := server.SetupRoutes()
	httpServer := server.CreateServer(config.Port, mux)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server crashed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := server.ShutdownServer(httpServer, 10*time.Second); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
