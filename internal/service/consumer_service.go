package service

import (
	"context"
	"encoding/json"

	"ai-trainer-be/internal/dto"
	"ai-trainer-be/internal/pkg/logger"
	"ai-trainer-be/pkg/events"
	pktNats "ai-trainer-be/pkg/nats"
	"ai-trainer-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the ingestion worker: it drains the knowledge topic,
// chunks and embeds each document batch and writes it to the vector index.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	store          *vectorstore.Store
	eventPublisher *pktNats.Publisher // optional
	log            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	store *vectorstore.Store,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		store:          store,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestKnowledgeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ConsumerService", "Failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.log.Info("ConsumerService", "Ingesting documents", map[string]interface{}{
		"namespace": payload.Namespace,
		"count":     len(payload.Documents),
	})

	docs := make([]vectorstore.Document, 0, len(payload.Documents))
	for _, d := range payload.Documents {
		docs = append(docs, vectorstore.Document{
			Content:  d.Content,
			Metadata: vectorstore.Metadata{Filename: d.Filename},
		})
	}

	chunkIDs, err := cs.store.AddDocuments(ctx, docs, payload.Namespace)
	if err != nil {
		cs.log.Error("ConsumerService", "Failed to ingest documents", map[string]interface{}{
			"namespace": payload.Namespace,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		filename := ""
		if len(payload.Documents) > 0 {
			filename = payload.Documents[0].Filename
		}
		evt := events.NewKnowledgeIngestedEvent(payload.Namespace, filename, len(chunkIDs))
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.log.Warn("ConsumerService", "Failed to publish ingest event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
