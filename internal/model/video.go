package model

// VideoContext 当前页面的视频信息；字段为空表示未探测到，不是错误
type VideoContext struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
}

// SummaryRequest 一次摘要请求，Generation 在发起时分配
type SummaryRequest struct {
	SourceText string `json:"source_text"`
	Generation uint64 `json:"generation"`
}

// SummaryResponse 一次摘要请求的结果
type SummaryResponse struct {
	Generation uint64 `json:"generation"`
	RawText    string `json:"raw_text"`
	IsError    bool   `json:"is_error"`
}

// Highlight 从摘要中提取的一个编号要点
type Highlight struct {
	Ordinal string `json:"ordinal"`
	Text    string `json:"text"`
}

// FormattedSummary 渲染用的摘要 HTML，不再二次解析
type FormattedSummary struct {
	HTML string `json:"html"`
}

// PanelStatus 结果区当前状态
type PanelStatus string

const (
	PanelIdle       PanelStatus = "idle"
	PanelGenerating PanelStatus = "generating"
	PanelReady      PanelStatus = "ready"
	PanelError      PanelStatus = "error"
)

// PanelState 面板状态；Minimized 与 Expanded 相互独立，可同时为真
type PanelState struct {
	Minimized     bool        `json:"minimized"`
	Expanded      bool        `json:"expanded"`
	VideoTitle    string      `json:"video_title"`
	ResultHTML    string      `json:"result_html"`
	Status        PanelStatus `json:"status"`
	MinimizeIcon  string      `json:"minimize_icon"`
	MinimizeLabel string      `json:"minimize_label"`
	ExpandIcon    string      `json:"expand_icon"`
	ExpandLabel   string      `json:"expand_label"`
}
