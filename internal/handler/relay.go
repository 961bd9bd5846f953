package handler

import (
	"errors"
	"net/http"
	"time"

	"lumino/internal/model"
	"lumino/internal/relay"

	"github.com/gin-gonic/gin"
)

type RelayHandler struct {
	service *relay.Service
}

func NewRelayHandler(service *relay.Service) *RelayHandler {
	return &RelayHandler{service: service}
}

// Summarize POST /summarize，成功时原样返回上游信封
func (h *RelayHandler) Summarize(c *gin.Context) {
	var req model.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "prompt is required"})
		return
	}

	body, err := h.service.Summarize(c.Request.Context(), req.Prompt)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Models GET /models
func (h *RelayHandler) Models(c *gin.Context) {
	body, err := h.service.Models(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *RelayHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"provider":  h.service.Provider(),
		"breaker":   h.service.BreakerState(),
		"timestamp": time.Now().Unix(),
	})
}

// fail 上游错误体嵌入 {error}，熔断时返回 503
func (h *RelayHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var upErr *relay.UpstreamError
	switch {
	case errors.As(err, &upErr):
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: upErr.Detail()})
	case errors.Is(err, relay.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
	}
}
