package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// ConversationIDPrefix prefixes the unix-millisecond id generated when
	// a client starts a new conversation.
	ConversationIDPrefix = "conv_"
)
