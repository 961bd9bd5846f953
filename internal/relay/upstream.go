// Package relay forwards summary prompts to a generative-text provider
// using server-held credentials. Successful calls return a Gemini-shaped
// envelope; Gemini responses pass through byte for byte.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lumino/internal/config"
	"lumino/internal/utils"
)

// Upstream 生成式接口服务商
type Upstream interface {
	Name() string
	// Generate 返回响应信封的 JSON
	Generate(ctx context.Context, prompt string) ([]byte, error)
	// ListModels 返回模型列表 JSON（诊断用）
	ListModels(ctx context.Context) ([]byte, error)
}

var ErrMissingAPIKey = errors.New("api key is not configured")

// UpstreamError 上游返回了非成功状态
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream returned status %d", e.Provider, e.StatusCode)
}

// Detail 上游错误体；是 JSON 时原样嵌入
func (e *UpstreamError) Detail() interface{} {
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// NewUpstream 按配置的服务商创建上游
func NewUpstream(ctx context.Context, cfg *config.Config) (Upstream, error) {
	httpClient := utils.NewHTTPClient(cfg.Relay.Timeout)
	if cfg.Relay.DebugRequests {
		httpClient.Transport = NewDebugTransport(httpClient.Transport)
	}

	switch cfg.Relay.Provider {
	case "gemini":
		return NewGeminiUpstream(cfg.Gemini, httpClient)
	case "openai":
		return NewOpenAIUpstream(cfg.OpenAI, httpClient)
	case "qwen":
		return NewQwenUpstream(ctx, cfg.Qwen, httpClient)
	case "doubao":
		return NewDoubaoUpstream(ctx, cfg.Doubao)
	default:
		return nil, fmt.Errorf("unsupported relay provider: %s", cfg.Relay.Provider)
	}
}
