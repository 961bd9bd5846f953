package summary

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NoLocalSummary 本地摘要无法生成时的占位文本
const NoLocalSummary = "සංක්ෂිප්ත සාරාංශයක් නොමැත."

const (
	localMinChars  = 20
	localSentences = 5
)

var sentenceSplitRe = regexp.MustCompile(`[.!?\n]+`)

// LocalSummarizer 离线截断：取前五个句子，不做任何语义处理
type LocalSummarizer struct{}

func NewLocalSummarizer() *LocalSummarizer {
	return &LocalSummarizer{}
}

func (l *LocalSummarizer) Summarize(_ context.Context, source string) string {
	if utf8.RuneCountInString(strings.TrimSpace(source)) < localMinChars {
		return NoLocalSummary
	}

	var sentences []string
	for _, s := range sentenceSplitRe.Split(source, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, s)
		if len(sentences) == localSentences {
			break
		}
	}

	out := strings.TrimSpace(strings.Join(sentences, ". "))
	if out == "" {
		return NoLocalSummary
	}
	return out
}
