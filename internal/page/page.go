// Package page models the host document the panel is attached to: the
// current address plus its HTML, either supplied directly or fetched.
package page

import (
	"context"
	"strings"
	"sync"
	"time"

	"lumino/internal/model"
	"lumino/internal/probe"

	"github.com/PuerkitoBio/goquery"
)

// Static 内存中的页面
type Static struct {
	url  string
	html string
}

func NewStatic(url, html string) *Static {
	return &Static{url: url, html: html}
}

func (s *Static) URL() string { return s.url }

func (s *Static) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(s.html))
}

// Remote 按地址抓取的页面，成功后缓存文档
type Remote struct {
	url     string
	fetcher *Fetcher
	timeout time.Duration

	mu  sync.Mutex
	doc *goquery.Document
}

func NewRemote(url string, fetcher *Fetcher, timeout time.Duration) *Remote {
	return &Remote{url: url, fetcher: fetcher, timeout: timeout}
}

func (r *Remote) URL() string { return r.url }

func (r *Remote) Document() (*goquery.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc != nil {
		return r.doc, nil
	}

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	doc, err := r.fetcher.GetDocument(ctx, r.url)
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

// Navigator 持有宿主页面的当前地址
type Navigator struct {
	fetcher *Fetcher
	timeout time.Duration

	mu      sync.RWMutex
	current probe.Page
}

func NewNavigator(fetcher *Fetcher, timeout time.Duration) *Navigator {
	return &Navigator{fetcher: fetcher, timeout: timeout}
}

// Navigate 切换当前页面；html 非空时直接使用，否则按地址抓取
func (n *Navigator) Navigate(url, html string) {
	var p probe.Page
	if html != "" || n.fetcher == nil {
		p = NewStatic(url, html)
	} else {
		p = NewRemote(url, n.fetcher, n.timeout)
	}

	n.mu.Lock()
	n.current = p
	n.mu.Unlock()
}

func (n *Navigator) Current() probe.Page {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Probe 探测当前页面；尚未导航时返回空上下文
func (n *Navigator) Probe() model.VideoContext {
	return probe.Probe(n.Current())
}
