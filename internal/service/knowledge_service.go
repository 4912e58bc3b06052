package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-trainer-be/internal/dto"
	"ai-trainer-be/internal/pkg/logger"
	"ai-trainer-be/pkg/vectorstore"
)

type IKnowledgeService interface {
	// AddGlobalDocuments queues documents for the shared fitness corpus.
	AddGlobalDocuments(ctx context.Context, docs []dto.KnowledgeDocument) (*dto.AddKnowledgeResponse, error)

	// AddUserDocuments queues documents for one user's private namespace.
	AddUserDocuments(ctx context.Context, userID string, docs []dto.KnowledgeDocument) (*dto.AddKnowledgeResponse, error)

	// SemanticSearch runs the merged global+user search.
	SemanticSearch(ctx context.Context, userID, query string, k int) ([]dto.SemanticSearchResult, error)

	// DeleteDocuments removes chunks by id from a namespace.
	DeleteDocuments(ctx context.Context, namespace string, ids []string) error
}

type knowledgeService struct {
	store            *vectorstore.Store
	publisherService IPublisherService
	log              logger.ILogger
}

func NewKnowledgeService(
	store *vectorstore.Store,
	publisherService IPublisherService,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		store:            store,
		publisherService: publisherService,
		log:              log,
	}
}

func (ks *knowledgeService) AddGlobalDocuments(ctx context.Context, docs []dto.KnowledgeDocument) (*dto.AddKnowledgeResponse, error) {
	return ks.queue(ctx, vectorstore.GlobalNamespace, docs)
}

func (ks *knowledgeService) AddUserDocuments(ctx context.Context, userID string, docs []dto.KnowledgeDocument) (*dto.AddKnowledgeResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required for personal documents")
	}
	return ks.queue(ctx, vectorstore.UserNamespace(userID), docs)
}

func (ks *knowledgeService) queue(ctx context.Context, namespace string, docs []dto.KnowledgeDocument) (*dto.AddKnowledgeResponse, error) {
	payload := dto.IngestKnowledgeMessage{
		Namespace: namespace,
		Documents: docs,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if err := ks.publisherService.Publish(ctx, payloadJson); err != nil {
		return nil, err
	}

	ks.log.Info("knowledge", "Queued documents for ingestion", map[string]interface{}{
		"namespace": namespace,
		"count":     len(docs),
	})

	return &dto.AddKnowledgeResponse{Queued: len(docs)}, nil
}

func (ks *knowledgeService) SemanticSearch(ctx context.Context, userID, query string, k int) ([]dto.SemanticSearchResult, error) {
	results, err := ks.store.SearchForUser(ctx, query, userID, k)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SemanticSearchResult, 0, len(results))
	for _, r := range results {
		collection, _ := r.Metadata["collection"].(string)
		out = append(out, dto.SemanticSearchResult{
			Content:    r.Content,
			Score:      r.Score,
			Collection: collection,
			Metadata:   r.Metadata,
		})
	}
	return out, nil
}

func (ks *knowledgeService) DeleteDocuments(ctx context.Context, namespace string, ids []string) error {
	return ks.store.DeleteDocuments(ctx, ids, namespace)
}
