package model

// Envelope 生成式接口的响应信封（Gemini generateContent 格式）
type Envelope struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// FirstText 返回第一个候选的第一段文本
func (e *Envelope) FirstText() (string, bool) {
	if e == nil || len(e.Candidates) == 0 {
		return "", false
	}
	parts := e.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return "", false
	}
	return parts[0].Text, true
}

// NewTextEnvelope 把纯文本包装成单候选信封
func NewTextEnvelope(text, modelVersion string) *Envelope {
	return &Envelope{
		Candidates: []Candidate{{
			Content:      Content{Role: "model", Parts: []Part{{Text: text}}},
			FinishReason: "STOP",
		}},
		ModelVersion: modelVersion,
	}
}

// ErrorResponse 中继失败时的响应
type ErrorResponse struct {
	Error interface{} `json:"error"`
}

// ModelInfo 上游模型列表条目
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
}

type ModelList struct {
	Models []ModelInfo `json:"models"`
}
