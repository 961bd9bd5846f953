// Package formatter turns raw model output into the panel's result markup:
// timestamps are emphasized, numbered points are lifted into highlight
// blocks, and asterisk spans become strong/italic text.
package formatter

import (
	"html"
	"regexp"
	"strings"

	"lumino/internal/model"
)

var (
	clockRe    = regexp.MustCompile(`\d+:\d+`)
	ordinalRe  = regexp.MustCompile(`^\d+\.\s*`)
	anyOrdRe   = regexp.MustCompile(`\d+\.`)
	boundaryRe = regexp.MustCompile(`\d+\.\s`)
	strongRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	emRe       = regexp.MustCompile(`\*(.*?)\*`)
)

// Options 格式化选项
type Options struct {
	// EscapeHTML 在替换标记之前转义原文中的 HTML
	EscapeHTML bool
}

type Formatter struct {
	opts Options
}

func New(opts Options) *Formatter {
	return &Formatter{opts: opts}
}

var plain = New(Options{})

// Format 使用不转义的默认格式化器
func Format(raw string) string {
	return plain.Format(raw)
}

// Format 依次处理时间戳、编号要点和强调；不会失败
func (f *Formatter) Format(raw string) string {
	text := raw
	if f.opts.EscapeHTML {
		text = html.EscapeString(text)
	}

	text = markTimestamps(text)

	body, highlights := splitHighlights(text)
	if len(highlights) > 0 {
		var b strings.Builder
		b.WriteString(body)
		b.WriteString(`<div class="lumino-highlights">`)
		for _, h := range highlights {
			b.WriteString(`<div class="lumino-highlight"><span class="lumino-highlight-num">`)
			b.WriteString(h.Ordinal)
			b.WriteString(`</span> `)
			b.WriteString(h.Text)
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)
		text = b.String()
	}

	// 双星号必须先处理
	text = strongRe.ReplaceAllString(text, `<strong>$1</strong>`)
	text = emRe.ReplaceAllString(text, `<em>$1</em>`)

	return text
}

// Render 同 Format，返回渲染用的结构
func (f *Formatter) Render(raw string) model.FormattedSummary {
	return model.FormattedSummary{HTML: f.Format(raw)}
}

// Highlights 返回原文中的编号要点（文档顺序）
func (f *Formatter) Highlights(raw string) []model.Highlight {
	text := raw
	if f.opts.EscapeHTML {
		text = html.EscapeString(text)
	}
	_, highlights := splitHighlights(markTimestamps(text))
	return highlights
}

// markTimestamps wraps M:SS / MM:SS. Digit runs are matched whole, so
// 100:400 or 1:234 are left alone.
func markTimestamps(text string) string {
	return clockRe.ReplaceAllStringFunc(text, func(m string) string {
		i := strings.IndexByte(m, ':')
		if i < 1 || i > 2 || len(m)-i-1 != 2 {
			return m
		}
		return `<span class="lumino-timestamp">` + m + `</span>`
	})
}

// splitHighlights returns the text before the first ordinal and every
// numbered point after it. A point runs from "N." to the next "N." followed
// by whitespace, or to the end of the text.
func splitHighlights(text string) (string, []model.Highlight) {
	first := anyOrdRe.FindStringIndex(text)
	if first == nil {
		return text, nil
	}

	var highlights []model.Highlight
	start := first[0]
	for start < len(text) {
		head := ordinalRe.FindStringIndex(text[start:])
		if head == nil {
			// boundaryRe and ordinalRe agree on where a point starts
			break
		}
		bodyStart := start + head[1]

		end := len(text)
		if next := boundaryRe.FindStringIndex(text[bodyStart:]); next != nil {
			end = bodyStart + next[0]
		}

		highlights = append(highlights, model.Highlight{
			Ordinal: strings.TrimSpace(text[start:bodyStart]),
			Text:    strings.TrimSpace(text[bodyStart:end]),
		})
		start = end
	}

	return text[:first[0]], highlights
}
