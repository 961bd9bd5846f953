// Package monitor polls the page for the watched video and reports when it
// changes. It starts Idle and moves to Tracking on the first non-empty
// video id; an empty probe result never counts as a change.
package monitor

import (
	"context"
	"sync"
	"time"

	"lumino/internal/model"
	"lumino/pkg/logger"
)

// Prober 提供当前视频上下文；可替换为推送式实现
type Prober interface {
	Probe() model.VideoContext
}

// ChangeHandler 视频切换回调
type ChangeHandler func(model.VideoContext)

type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	default:
		return "unknown"
	}
}

const DefaultInterval = time.Second

type Monitor struct {
	prober   Prober
	onChange ChangeHandler
	interval time.Duration

	// tickMu 串行化整个 Tick（探测、比较、回调），保证回调顺序与 lastVideoID 一致
	tickMu sync.Mutex

	mu          sync.Mutex
	state       State
	lastVideoID string
}

func New(prober Prober, interval time.Duration, onChange ChangeHandler) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		prober:   prober,
		onChange: onChange,
		interval: interval,
	}
}

// Seed 记录注入时已处理的视频，避免首个 tick 重复触发
func (m *Monitor) Seed(videoID string) {
	if videoID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Tracking
	m.lastVideoID = videoID
}

// Tick 探测一次；视频切换时调用回调并返回 true
func (m *Monitor) Tick() bool {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	current := m.prober.Probe()
	if current.VideoID == "" {
		return false
	}

	m.mu.Lock()
	if current.VideoID == m.lastVideoID {
		m.mu.Unlock()
		return false
	}
	previous := m.lastVideoID
	m.lastVideoID = current.VideoID
	m.state = Tracking
	m.mu.Unlock()

	logger.WithFields(logger.Fields{
		"from": previous,
		"to":   current.VideoID,
	}).Info("video changed")

	if m.onChange != nil {
		m.onChange(current)
	}
	return true
}

// Run 按固定周期轮询直到 ctx 结束
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick()
		}
	}
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) LastVideoID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastVideoID
}
