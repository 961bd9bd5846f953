package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lumino/internal/config"
	"lumino/internal/model"
)

const maxUpstreamBytes = 8 << 20

type GeminiUpstream struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type geminiRequest struct {
	Contents []model.Content `json:"contents"`
}

func NewGeminiUpstream(cfg config.GeminiConfig, client *http.Client) (*GeminiUpstream, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	return &GeminiUpstream{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  client,
	}, nil
}

func (g *GeminiUpstream) Name() string { return "gemini" }

func (g *GeminiUpstream) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []model.Content{{
			Role:  "user",
			Parts: []model.Part{{Text: prompt}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	return g.do(ctx, http.MethodPost, url, body)
}

func (g *GeminiUpstream) ListModels(ctx context.Context) ([]byte, error) {
	return g.do(ctx, http.MethodGet, g.baseURL+"/models", nil)
}

func (g *GeminiUpstream) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: g.Name(), StatusCode: resp.StatusCode, Body: data}
	}
	return data, nil
}
