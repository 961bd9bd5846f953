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
	"lumino/internal/service"
	"lumino/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	var (
		configPath string
		noInject   bool
	)
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.BoolVar(&noInject, "no-inject", false, "启动时不注入面板，等待 POST /panel/inject")
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

	panels := service.NewPanelService(context.Background(), cfg, service.NewSummarizer(cfg.Client))
	defer panels.Close()

	if !noInject {
		if _, err := panels.Inject(); err != nil {
			logger.Fatalf("面板注入失败: %v", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewPanelRouter(cfg.CORS, handler.NewPanelHandler(panels))

	// 事件流是长连接，不设置写超时
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Panel.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.WithFields(logger.Fields{
			"port":      cfg.Panel.Port,
			"mode":      cfg.Client.Mode,
			"relay_url": cfg.Client.RelayURL,
		}).Info("面板服务启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

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
