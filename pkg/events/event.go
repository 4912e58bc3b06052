package events

import "time"

// Event is the contract for everything published on the event bus.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a plain implementation of Event for ad-hoc payloads.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeChatCompleted     = "CHAT_COMPLETED"
	TypeKnowledgeIngested = "KNOWLEDGE_INGESTED"
)

// NewChatCompletedEvent is emitted after every answered chat turn.
func NewChatCompletedEvent(userID, conversationID, category string, sourceCount int) Event {
	return BaseEvent{
		Type: TypeChatCompleted,
		Data: map[string]interface{}{
			"user_id":         userID,
			"conversation_id": conversationID,
			"category":        category,
			"source_count":    sourceCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewKnowledgeIngestedEvent is emitted after documents are chunked and
// stored in a namespace.
func NewKnowledgeIngestedEvent(namespace, filename string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeKnowledgeIngested,
		Data: map[string]interface{}{
			"namespace":   namespace,
			"filename":    filename,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}
