package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lumino/internal/config"
	"lumino/internal/storage"
	"lumino/pkg/logger"

	"github.com/sony/gobreaker"
)

// ErrUnavailable 熔断器打开或半开时请求过多
var ErrUnavailable = errors.New("upstream temporarily unavailable")

// Service 中继服务：熔断保护上游，相同提示词命中缓存
type Service struct {
	upstream Upstream
	breaker  *gobreaker.CircuitBreaker
	cache    storage.Cache
}

// NewService cache 可为 nil
func NewService(upstream Upstream, cache storage.Cache, cfg config.BreakerConfig) *Service {
	return &Service{
		upstream: upstream,
		breaker:  newBreaker(upstream.Name(), cfg),
		cache:    cache,
	}
}

func newBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logger.Fields{
				"upstream": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("circuit breaker state changed")
		},
		// 调用方取消不算上游故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

func (s *Service) Provider() string {
	return s.upstream.Name()
}

// Summarize 转发提示词，返回信封 JSON
func (s *Service) Summarize(ctx context.Context, prompt string) ([]byte, error) {
	key := storage.Key(s.upstream.Name(), prompt)
	if body, ok := s.cached(key); ok {
		return body, nil
	}

	start := time.Now()
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.upstream.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		logger.WithFields(logger.Fields{
			"upstream": s.upstream.Name(),
			"elapsed":  time.Since(start).String(),
			"error":    err,
		}).Warn("upstream generate failed")
		return nil, err
	}

	body := result.([]byte)
	logger.WithFields(logger.Fields{
		"upstream": s.upstream.Name(),
		"elapsed":  time.Since(start).String(),
		"bytes":    len(body),
	}).Info("upstream generate succeeded")

	s.store(key, body)
	return body, nil
}

// Models 诊断接口，不经过熔断和缓存
func (s *Service) Models(ctx context.Context) ([]byte, error) {
	return s.upstream.ListModels(ctx)
}

// BreakerState 当前熔断状态，用于健康检查
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}

func (s *Service) cached(key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	entry, err := s.cache.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrEntryNotFound) && !errors.Is(err, storage.ErrEntryExpired) {
			logger.Warnf("cache lookup failed: %v", err)
		}
		return nil, false
	}
	logger.WithFields(logger.Fields{"upstream": entry.Provider, "key": key[:12]}).Debug("cache hit")
	return entry.Body, true
}

func (s *Service) store(key string, body []byte) {
	if s.cache == nil {
		return
	}
	err := s.cache.Put(&storage.Entry{
		Key:       key,
		Provider:  s.upstream.Name(),
		Body:      body,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logger.Warnf("cache store failed: %v", err)
	}
}

// Close 关闭缓存
func (s *Service) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
