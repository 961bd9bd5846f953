package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"lumino/internal/config"
	"lumino/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIUpstream 使用 Chat Completions，结果包装成 Gemini 信封
type OpenAIUpstream struct {
	client *openai.Client
	model  string
}

func NewOpenAIUpstream(cfg config.OpenAIConfig, httpClient *http.Client) (*OpenAIUpstream, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &OpenAIUpstream{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

func (o *OpenAIUpstream) Name() string { return "openai" }

func (o *OpenAIUpstream) Generate(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return nil, o.wrapError(err)
	}

	envelope := &model.Envelope{ModelVersion: resp.Model}
	if len(resp.Choices) > 0 {
		envelope = model.NewTextEnvelope(resp.Choices[0].Message.Content, resp.Model)
	}
	return json.Marshal(envelope)
}

func (o *OpenAIUpstream) ListModels(ctx context.Context) ([]byte, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, o.wrapError(err)
	}

	out := model.ModelList{Models: make([]model.ModelInfo, 0, len(list.Models))}
	for _, m := range list.Models {
		out.Models = append(out.Models, model.ModelInfo{Name: "models/" + m.ID, DisplayName: m.ID})
	}
	return json.Marshal(out)
}

func (o *OpenAIUpstream) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		body, _ := json.Marshal(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    apiErr.HTTPStatusCode,
				"message": apiErr.Message,
				"type":    apiErr.Type,
			},
		})
		return &UpstreamError{Provider: o.Name(), StatusCode: apiErr.HTTPStatusCode, Body: body}
	}
	return fmt.Errorf("openai: %w", err)
}
