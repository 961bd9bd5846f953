package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumino/internal/config"
	"lumino/internal/handler"
	"lumino/internal/relay"
	"lumino/internal/storage"
	"lumino/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	upstream, err := relay.NewUpstream(context.Background(), cfg)
	if err != nil {
		logger.Fatalf("上游初始化失败: %v", err)
	}

	cache, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("缓存初始化失败: %v", err)
	}

	service := relay.NewService(upstream, cache, cfg.Relay.Breaker)
	defer service.Close()

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRelayRouter(cfg.CORS, handler.NewRelayHandler(service))

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.WithFields(logger.Fields{
			"port":     cfg.Server.Port,
			"provider": upstream.Name(),
			"storage":  cfg.Storage.Type,
		}).Info("中继服务启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务器正在关闭...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("服务器关闭失败: %v", err)
	}
	logger.Info("服务器已关闭")
}
