package model

// SummarizeRequest 面板发往中继的请求体
type SummarizeRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateRequest 面板“生成”按钮，可附带手动输入的字幕/转录文本
type GenerateRequest struct {
	Transcript string `json:"transcript"`
}

// NavigateRequest 宿主页面跳转到新地址
type NavigateRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html"` // 可选：直接提供页面内容，跳过抓取
}
