package handler

import (
	"net/http"
	"time"

	"lumino/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func newEngine(cfg config.CORSConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	return router
}

// NewRelayRouter 中继路由
func NewRelayRouter(cfg config.CORSConfig, h *RelayHandler) *gin.Engine {
	router := newEngine(cfg)

	router.GET("/health", h.Health)
	router.POST("/summarize", h.Summarize)
	router.GET("/models", h.Models)

	return router
}

// NewPanelRouter 面板控制接口
func NewPanelRouter(cfg config.CORSConfig, h *PanelHandler) *gin.Engine {
	router := newEngine(cfg)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	panel := router.Group("/panel")
	{
		panel.GET("", h.State)
		panel.GET("/events", h.Events)
		panel.POST("/inject", h.Inject)
		panel.POST("/minimize", h.Minimize)
		panel.POST("/expand", h.Expand)
		panel.POST("/generate", h.Generate)
		panel.POST("/navigate", h.Navigate)
	}

	return router
}
