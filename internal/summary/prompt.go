package summary

import "fmt"

// PromptBuilder 把视频标题或转录文本包装成摘要提示词
type PromptBuilder struct {
	Language string
}

func NewPromptBuilder(language string) PromptBuilder {
	if language == "" {
		language = "Sinhala"
	}
	return PromptBuilder{Language: language}
}

func (p PromptBuilder) Build(source string) string {
	return fmt.Sprintf("Summarize this video in %s: %s", p.Language, source)
}

// RawPrompt 原样使用来源文本（本地摘要模式）
func RawPrompt(source string) string {
	return source
}
