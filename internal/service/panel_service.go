package service

import (
	"context"
	"errors"
	"sync"

	"lumino/internal/config"
	"lumino/internal/coordinator"
	"lumino/internal/formatter"
	"lumino/internal/model"
	"lumino/internal/monitor"
	"lumino/internal/page"
	"lumino/internal/panel"
	"lumino/internal/summary"
	"lumino/pkg/logger"
)

var ErrClosed = errors.New("panel service is closed")

// PanelService 组装面板：页面导航、面板状态、请求协调和视频切换监控
type PanelService struct {
	navigator   *page.Navigator
	controller  *panel.Controller
	coordinator *coordinator.Coordinator
	monitor     *monitor.Monitor
	injector    panel.Injector
	startURL    string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSummarizer 按 client.mode 选择中继客户端或本地截断摘要
func NewSummarizer(cfg config.ClientConfig) summary.Summarizer {
	if cfg.Mode == "local" {
		return summary.NewLocalSummarizer()
	}
	return summary.NewClient(cfg.RelayURL, cfg.Timeout)
}

func NewPanelService(ctx context.Context, cfg *config.Config, summarizer summary.Summarizer) *PanelService {
	ctx, cancel := context.WithCancel(ctx)

	navigator := page.NewNavigator(page.NewFetcher(cfg.Panel.FetchTimeout), cfg.Panel.FetchTimeout)

	controller := panel.New(panel.Options{
		NativeLabel: cfg.Client.NativeLabel,
		Probe:       navigator.Probe,
	})

	// 本地模式直接截断来源文本，不加提示词
	prompt := summary.NewPromptBuilder(cfg.Client.Language).Build
	if cfg.Client.Mode == "local" {
		prompt = summary.RawPrompt
	}

	coord := coordinator.New(ctx, coordinator.Options{
		Summarizer: summarizer,
		Renderer:   controller,
		Format:     formatter.New(formatter.Options{EscapeHTML: cfg.Formatter.EscapeHTML}).Format,
		Prompt:     prompt,
		Timeout:    cfg.Client.Timeout,
	})
	controller.Attach(coord)

	mon := monitor.New(navigator, cfg.Monitor.PollInterval, func(v model.VideoContext) {
		controller.OnVideoChanged(v)
	})

	return &PanelService{
		navigator:   navigator,
		controller:  controller,
		coordinator: coord,
		monitor:     mon,
		startURL:    cfg.Panel.StartURL,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Inject 挂载面板：显示当前视频、立即生成一次摘要并开始监控。
// 重复调用不做任何事。
func (s *PanelService) Inject() (bool, error) {
	if s.ctx.Err() != nil {
		return false, ErrClosed
	}

	return s.injector.Inject(func() error {
		if s.startURL != "" && s.navigator.Current() == nil {
			s.navigator.Navigate(s.startURL, "")
		}

		current := s.navigator.Probe()
		if s.navigator.Current() != nil {
			s.controller.OnVideoChanged(current)
		} else {
			s.controller.ShowVideo(current)
		}
		s.monitor.Seed(current.VideoID)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.monitor.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("video monitor stopped: %v", err)
			}
		}()

		logger.WithFields(logger.Fields{
			"video_id": current.VideoID,
			"title":    current.Title,
		}).Info("panel injected")
		return nil
	})
}

// Navigate 切换宿主页面；面板已注入时立即检查一次视频是否变化
func (s *PanelService) Navigate(url, html string) bool {
	s.navigator.Navigate(url, html)
	if !s.injector.Injected() {
		return false
	}
	return s.monitor.Tick()
}

// Generate 对应“生成”按钮；transcript 为空时使用当前标题
func (s *PanelService) Generate(transcript string) uint64 {
	return s.controller.OnGenerateClicked(transcript)
}

func (s *PanelService) Panel() *panel.Controller {
	return s.controller
}

func (s *PanelService) Monitor() *monitor.Monitor {
	return s.monitor
}

func (s *PanelService) Injected() bool {
	return s.injector.Injected()
}

// Wait 等待在途摘要请求结束
func (s *PanelService) Wait() {
	s.coordinator.Wait()
}

// Close 停止监控并取消在途请求
func (s *PanelService) Close() {
	s.cancel()
	s.wg.Wait()
	s.coordinator.Wait()
}
