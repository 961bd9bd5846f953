package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lumino/internal/config"
	"lumino/internal/model"
	"lumino/internal/storage"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geminiOK = `{"candidates":[{"content":{"parts":[{"text":"1. One 2. Two"}],"role":"model"},"finishReason":"STOP"}],"modelVersion":"gemini-2.5-flash"}`

func TestGeminiGeneratePassesBodyThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "Summarize this video in Sinhala: Intro", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiOK)
	}))
	defer srv.Close()

	g, err := NewGeminiUpstream(config.GeminiConfig{
		APIKey:  "secret",
		BaseURL: srv.URL + "/v1/",
		Model:   "gemini-2.5-flash",
	}, srv.Client())
	require.NoError(t, err)

	body, err := g.Generate(context.Background(), "Summarize this video in Sinhala: Intro")
	require.NoError(t, err)
	assert.Equal(t, geminiOK, string(body))
}

func TestGeminiUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid"}}`)
	}))
	defer srv.Close()

	g, err := NewGeminiUpstream(config.GeminiConfig{APIKey: "bad", BaseURL: srv.URL, Model: "m"}, srv.Client())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "p")
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	assert.Equal(t, json.RawMessage(`{"error":{"code":400,"message":"API key not valid"}}`), upErr.Detail())
}

func TestGeminiListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = io.WriteString(w, `{"models":[{"name":"models/gemini-2.5-flash"}]}`)
	}))
	defer srv.Close()

	g, err := NewGeminiUpstream(config.GeminiConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"}, srv.Client())
	require.NoError(t, err)

	body, err := g.ListModels(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"models":[{"name":"models/gemini-2.5-flash"}]}`, string(body))
}

func TestMissingAPIKey(t *testing.T) {
	_, err := NewGeminiUpstream(config.GeminiConfig{}, http.DefaultClient)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewOpenAIUpstream(config.OpenAIConfig{}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewUpstream(context.Background(), &config.Config{Relay: config.RelayConfig{Provider: "nope"}})
	assert.Error(t, err)
}

func TestUpstreamErrorDetailNonJSON(t *testing.T) {
	e := &UpstreamError{Provider: "gemini", StatusCode: 502, Body: []byte("bad gateway")}
	assert.Equal(t, "bad gateway", e.Detail())
	assert.Contains(t, e.Error(), "502")
}

func TestOpenAIGenerateWrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"**done**"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAIUpstream(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini"}, srv.Client())
	require.NoError(t, err)

	body, err := o.Generate(context.Background(), "p")
	require.NoError(t, err)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	text, ok := env.FirstText()
	assert.True(t, ok)
	assert.Equal(t, "**done**", text)
}

func TestOpenAIAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	o, err := NewOpenAIUpstream(config.OpenAIConfig{APIKey: "x", BaseURL: srv.URL, Model: "m"}, srv.Client())
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), "p")
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Contains(t, string(upErr.Body), "bad key")
}

type fakeChat struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeChat) Generate(_ context.Context, in []*schema.Message, _ ...einoModel.Option) (*schema.Message, error) {
	f.seen = in
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChat) Stream(context.Context, []*schema.Message, ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestEinoUpstream(t *testing.T) {
	chat := &fakeChat{reply: "සාරාංශය"}
	up := NewEinoUpstream("qwen", "qwen-plus", chat)

	body, err := up.Generate(context.Background(), "Summarize this video in Sinhala: X")
	require.NoError(t, err)
	require.Len(t, chat.seen, 1)
	assert.Equal(t, schema.User, chat.seen[0].Role)
	assert.Equal(t, "Summarize this video in Sinhala: X", chat.seen[0].Content)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	text, ok := env.FirstText()
	assert.True(t, ok)
	assert.Equal(t, "සාරාංශය", text)
	assert.Equal(t, "qwen-plus", env.ModelVersion)

	models, err := up.ListModels(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(models), "models/qwen-plus")
}

func TestEinoUpstreamEmptyReply(t *testing.T) {
	body, err := NewEinoUpstream("doubao", "d", &fakeChat{}).Generate(context.Background(), "p")
	require.NoError(t, err)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	_, ok := env.FirstText()
	assert.False(t, ok)
}

type countingUpstream struct {
	calls atomic.Int32
	err   error
}

func (c *countingUpstream) Name() string { return "fake" }

func (c *countingUpstream) Generate(_ context.Context, prompt string) ([]byte, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return json.Marshal(model.NewTextEnvelope("re: "+prompt, "fake-1"))
}

func (c *countingUpstream) ListModels(context.Context) ([]byte, error) {
	return []byte(`{"models":[]}`), nil
}

var testBreaker = config.BreakerConfig{
	MaxRequests:  1,
	Interval:     time.Minute,
	OpenTimeout:  time.Minute,
	MinRequests:  3,
	FailureRatio: 0.5,
}

func TestServiceCachesByPrompt(t *testing.T) {
	up := &countingUpstream{}
	svc := NewService(up, storage.NewMemoryCache(10, time.Hour), testBreaker)

	first, err := svc.Summarize(context.Background(), "a")
	require.NoError(t, err)
	second, err := svc.Summarize(context.Background(), "a")
	require.NoError(t, err)
	_, err = svc.Summarize(context.Background(), "b")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), up.calls.Load())
	assert.Equal(t, "fake", svc.Provider())
}

func TestServiceWithoutCache(t *testing.T) {
	up := &countingUpstream{}
	svc := NewService(up, nil, testBreaker)

	for i := 0; i < 2; i++ {
		_, err := svc.Summarize(context.Background(), "a")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), up.calls.Load())
	assert.NoError(t, svc.Close())
}

func TestServiceBreakerOpens(t *testing.T) {
	up := &countingUpstream{err: &UpstreamError{Provider: "fake", StatusCode: 503, Body: []byte("down")}}
	svc := NewService(up, nil, testBreaker)

	for i := 0; i < 3; i++ {
		_, err := svc.Summarize(context.Background(), "p")
		var upErr *UpstreamError
		assert.True(t, errors.As(err, &upErr))
	}
	assert.Equal(t, "open", svc.BreakerState())

	_, err := svc.Summarize(context.Background(), "p")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), up.calls.Load())
}

func TestServiceFailuresAreNotCached(t *testing.T) {
	up := &countingUpstream{err: errors.New("boom")}
	cache := storage.NewMemoryCache(10, time.Hour)
	svc := NewService(up, cache, testBreaker)

	_, err := svc.Summarize(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestRedaction(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://example.com/models?key=secret&x=1", nil)
	req.Header.Set("X-Goog-Api-Key", "secret")
	req.Header.Set("Accept", "application/json")

	assert.NotContains(t, redactURL(req), "secret")
	headers := redactHeaders(req.Header)
	assert.Equal(t, "[REDACTED]", headers["X-Goog-Api-Key"])
	assert.Equal(t, "application/json", headers["Accept"])
}
