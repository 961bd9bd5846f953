package handler

import (
	"net/http"
	"time"

	"lumino/internal/model"
	"lumino/internal/service"
	"lumino/internal/utils"
	"lumino/pkg/logger"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 30 * time.Second

type PanelHandler struct {
	panels *service.PanelService
}

func NewPanelHandler(panels *service.PanelService) *PanelHandler {
	return &PanelHandler{panels: panels}
}

// State GET /panel
func (h *PanelHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.panels.Panel().State())
}

// Events GET /panel/events，先推送当前状态，之后推送每次变化
func (h *PanelHandler) Events(c *gin.Context) {
	updates, cancel := h.panels.Panel().Subscribe()
	defer cancel()

	sse := utils.NewSSEWriter(c.Writer)
	if err := sse.WriteJSON("state", h.panels.Panel().State()); err != nil {
		logger.Warnf("panel events: %v", err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := sse.WriteJSON("state", state); err != nil {
				logger.Warnf("panel events: %v", err)
				return
			}
		case <-heartbeat.C:
			if err := sse.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (h *PanelHandler) Inject(c *gin.Context) {
	injected, err := h.panels.Inject()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"injected": injected,
		"state":    h.panels.Panel().State(),
	})
}

func (h *PanelHandler) Minimize(c *gin.Context) {
	c.JSON(http.StatusOK, h.panels.Panel().ToggleMinimize())
}

func (h *PanelHandler) Expand(c *gin.Context) {
	c.JSON(http.StatusOK, h.panels.Panel().ToggleExpand())
}

// Generate POST /panel/generate，请求体可省略
func (h *PanelHandler) Generate(c *gin.Context) {
	var req model.GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
			return
		}
	}

	generation := h.panels.Generate(req.Transcript)
	c.JSON(http.StatusAccepted, gin.H{
		"generation": generation,
		"state":      h.panels.Panel().State(),
	})
}

func (h *PanelHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "url is required"})
		return
	}

	changed := h.panels.Navigate(req.URL, req.HTML)
	c.JSON(http.StatusOK, gin.H{
		"changed": changed,
		"state":   h.panels.Panel().State(),
	})
}
