package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"lumino/internal/config"
	"lumino/internal/model"
	"lumino/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoUpstream 通过 eino ChatModel 调用通义千问或豆包
type EinoUpstream struct {
	name  string
	model string
	chat  einoModel.BaseChatModel
}

// NewEinoUpstream 包装任意 eino 聊天模型
func NewEinoUpstream(name, modelName string, chat einoModel.BaseChatModel) *EinoUpstream {
	return &EinoUpstream{name: name, model: modelName, chat: chat}
}

func NewQwenUpstream(ctx context.Context, cfg config.QwenConfig, httpClient *http.Client) (*EinoUpstream, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("qwen: %w", ErrMissingAPIKey)
	}

	chat, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		TopP:        &cfg.TopP,
		Timeout:     cfg.Timeout,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}

	logger.WithFields(logger.Fields{"model": cfg.Model, "base_url": cfg.BaseURL}).Info("qwen upstream ready")
	return NewEinoUpstream("qwen", cfg.Model, chat), nil
}

func NewDoubaoUpstream(ctx context.Context, cfg config.DoubaoConfig) (*EinoUpstream, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("doubao: %w", ErrMissingAPIKey)
	}

	chat, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create doubao model: %w", err)
	}

	logger.WithFields(logger.Fields{"model": cfg.Model}).Info("doubao upstream ready")
	return NewEinoUpstream("doubao", cfg.Model, chat), nil
}

func (e *EinoUpstream) Name() string { return e.name }

func (e *EinoUpstream) Generate(ctx context.Context, prompt string) ([]byte, error) {
	msg, err := e.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", e.name, err)
	}

	envelope := &model.Envelope{ModelVersion: e.model}
	if msg != nil && msg.Content != "" {
		envelope = model.NewTextEnvelope(msg.Content, e.model)
	}
	return json.Marshal(envelope)
}

// ListModels eino 没有列模型接口，只返回当前配置的模型
func (e *EinoUpstream) ListModels(ctx context.Context) ([]byte, error) {
	return json.Marshal(model.ModelList{
		Models: []model.ModelInfo{{Name: "models/" + e.model, DisplayName: e.model}},
	})
}
