package panel

import (
	"fmt"
	"strings"
	"sync"

	"lumino/internal/coordinator"
	"lumino/internal/model"
)

const (
	MinimizeIcon  = "–"
	MaximizeIcon  = "□"
	ExpandIcon    = "⇲"
	CollapseIcon  = "⇳"
	LoadingTitle  = "Loading..."
	UnknownTitle  = "Unknown"
	GeneratingMsg = "<em>Generating summary…</em>"

	subscriberBuffer = 8
)

// Issuer 发起摘要请求（由 coordinator 实现）
type Issuer interface {
	Issue(source coordinator.SourceProvider) uint64
}

type Options struct {
	// NativeLabel 结果标题中的语言名，如 “සිංහල”
	NativeLabel string
	// Probe 点击生成时读取当前视频；为空时使用最近显示的标题
	Probe func() model.VideoContext
}

// Controller 持有面板状态，处理用户操作和结果渲染
type Controller struct {
	header string
	probe  func() model.VideoContext

	mu       sync.RWMutex
	state    model.PanelState
	rawTitle string
	issuer   Issuer

	subMu   sync.Mutex
	subs    map[int]chan model.PanelState
	nextSub int
}

func New(opts Options) *Controller {
	header := "<strong>Summary:</strong><br/>"
	if opts.NativeLabel != "" {
		header = fmt.Sprintf("<strong>Summary (%s):</strong><br/>", opts.NativeLabel)
	}
	return &Controller{
		header: header,
		probe:  opts.Probe,
		state: model.PanelState{
			VideoTitle:    LoadingTitle,
			Status:        model.PanelIdle,
			MinimizeIcon:  MinimizeIcon,
			MinimizeLabel: "Minimize",
			ExpandIcon:    ExpandIcon,
			ExpandLabel:   "Expand",
		},
		subs: make(map[int]chan model.PanelState),
	}
}

// Attach 绑定请求协调器；面板与协调器互相引用，需在构造后设置
func (c *Controller) Attach(issuer Issuer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issuer = issuer
}

func (c *Controller) State() model.PanelState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ToggleMinimize 折叠/展开内容区，标题栏保留
func (c *Controller) ToggleMinimize() model.PanelState {
	return c.update(func(s *model.PanelState) {
		s.Minimized = !s.Minimized
		if s.Minimized {
			s.MinimizeIcon, s.MinimizeLabel = MaximizeIcon, "Maximize"
		} else {
			s.MinimizeIcon, s.MinimizeLabel = MinimizeIcon, "Minimize"
		}
	})
}

// ToggleExpand 放宽/恢复面板尺寸，与最小化相互独立
func (c *Controller) ToggleExpand() model.PanelState {
	return c.update(func(s *model.PanelState) {
		s.Expanded = !s.Expanded
		if s.Expanded {
			s.ExpandIcon, s.ExpandLabel = CollapseIcon, "Collapse"
		} else {
			s.ExpandIcon, s.ExpandLabel = ExpandIcon, "Expand"
		}
	})
}

// OnGenerateClicked 优先使用手动输入的文本，否则使用当前视频标题
func (c *Controller) OnGenerateClicked(manual string) uint64 {
	if text := strings.TrimSpace(manual); text != "" {
		return c.issue(text)
	}

	var title string
	if c.probe != nil {
		title = c.probe().Title
	} else {
		c.mu.RLock()
		title = c.rawTitle
		c.mu.RUnlock()
	}
	return c.issue(title)
}

// OnVideoChanged 更新标题并为新视频发起摘要
func (c *Controller) OnVideoChanged(v model.VideoContext) uint64 {
	c.ShowVideo(v)
	return c.issue(v.Title)
}

// ShowVideo 只更新显示的标题
func (c *Controller) ShowVideo(v model.VideoContext) {
	c.update(func(s *model.PanelState) {
		c.rawTitle = v.Title
		s.VideoTitle = v.Title
		if s.VideoTitle == "" {
			s.VideoTitle = UnknownTitle
		}
	})
}

// issue must be called without c.mu held: the coordinator renders back
// into the panel while holding its own lock.
func (c *Controller) issue(source string) uint64 {
	c.mu.RLock()
	issuer := c.issuer
	c.mu.RUnlock()

	if issuer == nil {
		c.RenderError("panel is not attached")
		return 0
	}
	return issuer.Issue(func() string { return source })
}

func (c *Controller) RenderGenerating() {
	c.update(func(s *model.PanelState) {
		s.Status = model.PanelGenerating
		s.ResultHTML = GeneratingMsg
	})
}

func (c *Controller) RenderResult(html string) {
	c.update(func(s *model.PanelState) {
		s.Status = model.PanelReady
		s.ResultHTML = c.header + html
	})
}

func (c *Controller) RenderError(message string) {
	c.update(func(s *model.PanelState) {
		s.Status = model.PanelError
		s.ResultHTML = c.header + message
	})
}

func (c *Controller) update(fn func(s *model.PanelState)) model.PanelState {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn(&c.state)
	snapshot := c.state
	c.publish(snapshot)
	return snapshot
}

// Subscribe 订阅状态变化；慢订阅者会丢失中间状态
func (c *Controller) Subscribe() (<-chan model.PanelState, func()) {
	ch := make(chan model.PanelState, subscriberBuffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (c *Controller) publish(s model.PanelState) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
