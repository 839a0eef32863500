package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/number27/premiumbot/internal/catalog"
	"github.com/number27/premiumbot/internal/codes"
	"github.com/number27/premiumbot/internal/config"
	"github.com/number27/premiumbot/internal/discord"
	"github.com/number27/premiumbot/internal/handlers"
	"github.com/number27/premiumbot/internal/notify"
	"github.com/number27/premiumbot/internal/orders"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	cat := catalog.Default()
	if err := cat.Validate(); err != nil {
		logger.Fatal("invalid plan catalog", zap.Error(err))
	}

	orderStore, err := orders.Open(cfg.OrdersFile)
	if err != nil {
		logger.Fatal("failed to open order store", zap.String("path", cfg.OrdersFile), zap.Error(err))
	}
	codeStore, err := codes.Open(cfg.CodesFile)
	if err != nil {
		logger.Fatal("failed to open code store", zap.String("path", cfg.CodesFile), zap.Error(err))
	}

	queue := notify.NewQueue(cfg.QueueSize, logger)
	svc := orders.NewService(orderStore, codeStore, cat, queue, logger)

	gateway, err := discord.New(cfg, svc, logger)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	if err := gateway.Open(); err != nil {
		logger.Fatal("failed to connect to discord", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := notify.NewDispatcher(queue, gateway, gateway, logger)
	go dispatcher.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handlers.RegisterRoutes(router, handlers.HandlerConfig{
		Service: svc,
		Logger:  logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("payment api listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := gateway.Close(); err != nil {
		logger.Error("discord close failed", zap.Error(err))
	}
	cancel()
	logger.Info("stopped")
}

func newLogger() *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
