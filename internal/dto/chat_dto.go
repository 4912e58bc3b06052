package dto

// ChatMessage is one prior conversation turn supplied by the client.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Message        string        `json:"message" validate:"required"`
	Images         []string      `json:"images,omitempty" validate:"max=5"` // base64, data URI prefix allowed
	ConversationId string        `json:"conversation_id,omitempty"`
	ChatHistory    []ChatMessage `json:"chat_history,omitempty"`
}

// DocumentSource describes one document the answer was grounded on.
// Score is the 1-based rank in the final document set.
type DocumentSource struct {
	Content  string                 `json:"content"`
	Score    int                    `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ChatResponse struct {
	Response        string           `json:"response"`
	Sources         []DocumentSource `json:"sources"`
	GeneratedImages []string         `json:"generatedImages"`
	ConversationId  string           `json:"conversationId"`
}
