// Package coordinator owns the summary request lifecycle. Every Issue call
// takes the next generation number; a finished request is rendered only if
// its generation is still the latest one issued, so the panel never falls
// back to a stale result when requests overlap.
package coordinator

import (
	"context"
	"html"
	"sync"
	"time"

	"lumino/internal/model"
	"lumino/internal/summary"
	"lumino/pkg/logger"
)

// Renderer 结果区的展示接口
type Renderer interface {
	RenderGenerating()
	RenderResult(html string)
	RenderError(message string)
}

// SourceProvider 在发起请求时提供来源文本（标题或手动输入的转录）
type SourceProvider func() string

type Options struct {
	Summarizer summary.Summarizer
	Renderer   Renderer
	// Format 把原始文本转成 HTML；为空时原样输出
	Format func(raw string) string
	// Prompt 把来源文本包装成提示词；为空时原样使用
	Prompt func(source string) string
	// Timeout 单次请求上限，0 表示不限
	Timeout time.Duration
}

type Coordinator struct {
	ctx  context.Context
	opts Options

	mu     sync.Mutex
	latest uint64

	inflight sync.WaitGroup
}

func New(ctx context.Context, opts Options) *Coordinator {
	if opts.Format == nil {
		opts.Format = func(raw string) string { return raw }
	}
	if opts.Prompt == nil {
		opts.Prompt = summary.RawPrompt
	}
	return &Coordinator{ctx: ctx, opts: opts}
}

// Issue 发起一次摘要请求并返回其 generation。
// “生成中”状态同步渲染；结果在后台完成，过期结果直接丢弃。
func (c *Coordinator) Issue(source SourceProvider) uint64 {
	text := ""
	if source != nil {
		text = source()
	}

	c.mu.Lock()
	c.latest++
	req := model.SummaryRequest{SourceText: text, Generation: c.latest}
	c.opts.Renderer.RenderGenerating()
	c.mu.Unlock()

	logger.WithFields(logger.Fields{
		"generation": req.Generation,
		"source_len": len(req.SourceText),
	}).Debug("summary request issued")

	c.inflight.Add(1)
	go c.run(req)

	return req.Generation
}

// Latest 返回最近一次发起的 generation
func (c *Coordinator) Latest() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Wait 等待所有在途请求结束（含被丢弃的）
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

func (c *Coordinator) run(req model.SummaryRequest) {
	defer c.inflight.Done()

	ctx := c.ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	raw := c.opts.Summarizer.Summarize(ctx, c.opts.Prompt(req.SourceText))

	c.deliver(model.SummaryResponse{
		Generation: req.Generation,
		RawText:    raw,
		IsError:    summary.IsError(raw),
	})
}

// deliver renders resp if it is still current. The counter is only read
// here; Issue is the sole writer.
func (c *Coordinator) deliver(resp model.SummaryResponse) bool {
	// 错误文本里常有 IP 和地址，不做要点提取
	var out string
	if resp.IsError {
		out = html.EscapeString(resp.RawText)
	} else {
		out = c.opts.Format(resp.RawText)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if resp.Generation != c.latest {
		logger.WithFields(logger.Fields{
			"generation": resp.Generation,
			"latest":     c.latest,
		}).Debug("stale summary discarded")
		return false
	}

	if resp.IsError {
		c.opts.Renderer.RenderError(out)
	} else {
		c.opts.Renderer.RenderResult(out)
	}
	return true
}
