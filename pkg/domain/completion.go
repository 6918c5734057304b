package domain

type CompletionResult struct {
	AnswerText       string `json:"answer_text"`
	ModelUsed        string `json:"model_used"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	TotalTokens      int    `json:"total_tokens,omitempty"`
}
