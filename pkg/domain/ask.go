package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is the inbound question. Either Question or Conversation must
// be set, not both; SessionID may supply stored history for a bare Question.
type AskRequest struct {
	Question            string             `json:"question"`
	Model               string             `json:"model,omitempty"`
	MaxTokens           int                `json:"max_tokens,omitempty"`
	Temperature         *float64           `json:"temperature,omitempty"`
	System              string             `json:"system,omitempty"`
	Conversation        []ConversationTurn `json:"conversation,omitempty"`
	SourceChannel       string             `json:"source_channel,omitempty"`
	ContextMessageCount int                `json:"context_message_count,omitempty"`
	DestinationChannel  string             `json:"destination_channel,omitempty"`
	SessionID           string             `json:"session_id,omitempty"`
}
