// Package probe extracts the watched video's identity from a page.
// Probing never fails: anything it cannot find comes back empty.
package probe

import (
	"regexp"
	"strings"

	"lumino/internal/model"
	"lumino/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

// Page 被探测的宿主页面
type Page interface {
	URL() string
	Document() (*goquery.Document, error)
}

var (
	titleSelectors = []string{
		"h1.title yt-formatted-string",
		"h1 yt-formatted-string",
	}
	metaTitleSelector = `meta[name="title"]`

	videoIDRe = regexp.MustCompile(`[?&]v=([^&]+)`)
)

// Probe 返回页面的 {VideoID, Title}；两个字段可以独立缺失
func Probe(page Page) model.VideoContext {
	if page == nil {
		return model.VideoContext{}
	}

	ctx := model.VideoContext{VideoID: VideoID(page.URL())}

	doc, err := page.Document()
	if err != nil {
		logger.Debugf("probe: document unavailable for %s: %v", page.URL(), err)
		return ctx
	}
	ctx.Title = Title(doc)

	return ctx
}

// Title 依次尝试主标题、备用标题和 meta 标签，取第一个非空值
func Title(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	for _, sel := range titleSelectors {
		if title := strings.TrimSpace(doc.Find(sel).First().Text()); title != "" {
			return title
		}
	}
	if content, ok := doc.Find(metaTitleSelector).First().Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}

// VideoID 取地址中 v= 参数的值，直到 & 或结尾
func VideoID(address string) string {
	m := videoIDRe.FindStringSubmatch(address)
	if m == nil {
		return ""
	}
	return m[1]
}
