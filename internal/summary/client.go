package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lumino/internal/model"
	"lumino/internal/utils"
	"lumino/pkg/logger"
)

const (
	// ErrorPrefix 标记失败文本，面板据此区分错误和正常摘要
	ErrorPrefix = "Summary API error: "
	// NoSummary 中继成功但没有返回文本
	NoSummary = "No summary generated."

	maxResponseBytes = 4 << 20
)

var (
	ErrRelayStatus = errors.New("relay returned non-success status")
	ErrBadEnvelope = errors.New("relay response is not valid JSON")
)

// Summarizer 把提示词变成摘要文本；实现不返回错误，失败也是文本
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) string
}

// Client 调用中继 POST /summarize
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(relayURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(relayURL, utils.NewHTTPClient(timeout))
}

func NewClientWithHTTP(relayURL string, httpClient *http.Client) *Client {
	return &Client{
		endpoint:   strings.TrimRight(relayURL, "/") + "/summarize",
		httpClient: httpClient,
	}
}

// Summarize 总是返回文本：成功时为第一个候选文本，失败时为带 ErrorPrefix 的说明
func (c *Client) Summarize(ctx context.Context, prompt string) string {
	text, err := c.summarize(ctx, prompt)
	if err != nil {
		logger.Warnf("summary request failed: %v", err)
		return ErrorPrefix + err.Error()
	}
	return text
}

func (c *Client) summarize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(model.SummarizeRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w %d: %s", ErrRelayStatus, resp.StatusCode, relayErrorDetail(data))
	}

	var envelope model.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}

	text, ok := envelope.FirstText()
	if !ok {
		return NoSummary, nil
	}
	return text, nil
}

// relayErrorDetail 提取 {error} 中的说明，取不到时返回截断的原文
func relayErrorDetail(data []byte) string {
	var errResp model.ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != nil {
		if msg, ok := errorMessage(errResp.Error); ok {
			return msg
		}
		if b, err := json.Marshal(errResp.Error); err == nil {
			return truncate(string(b), 200)
		}
	}
	return truncate(strings.TrimSpace(string(data)), 200)
}

// errorMessage 中转会把上游的 {error:{message}} 再包一层
func errorMessage(v interface{}) (string, bool) {
	switch e := v.(type) {
	case string:
		return e, e != ""
	case map[string]interface{}:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg, true
		}
		if inner, ok := e["error"]; ok {
			return errorMessage(inner)
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// IsError 判断文本是否是 Summarize 返回的失败说明
func IsError(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}
