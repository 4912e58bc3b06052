package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-trainer-be/internal/dto"
	"ai-trainer-be/pkg/embedding"
	"ai-trainer-be/pkg/vectordb"
	"ai-trainer-be/pkg/vectorstore"
)

// ingestIndex records which namespaces received writes.
type ingestIndex struct {
	mu    sync.Mutex
	added []string
}

func (i *ingestIndex) EnsureCollection(ctx context.Context, name string) error { return nil }
func (i *ingestIndex) Add(ctx context.Context, collection string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.added = append(i.added, collection)
	return nil
}
func (i *ingestIndex) Query(ctx context.Context, collection string, embedding []float32, k int) (*vectordb.QueryResult, error) {
	return &vectordb.QueryResult{}, nil
}
func (i *ingestIndex) Delete(ctx context.Context, collection string, ids []string) error { return nil }

func (i *ingestIndex) namespaces() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.added...)
}

// capturingLogger counts calls per level so tests can assert the worker
// reports through the injected logger.
type capturingLogger struct {
	nopLogger
	mu     sync.Mutex
	errors int
}

func (c *capturingLogger) Error(module, message string, details map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

func (c *capturingLogger) errorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

func newConsumerFixture(t *testing.T, index vectordb.Index, clog *capturingLogger) (*gochannel.GoChannel, IConsumerService) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	discard := log.New(io.Discard, "", 0)
	gateway := embedding.NewGateway(unitProvider{}, nil, discard)
	store := vectorstore.NewStore(index, gateway, discard)

	return pubSub, NewConsumerService(pubSub, "ingest-test", store, nil, clog)
}

func TestConsumerIngestsQueuedDocuments(t *testing.T) {
	index := &ingestIndex{}
	pubSub, consumer := newConsumerFixture(t, index, &capturingLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	payload, err := json.Marshal(dto.IngestKnowledgeMessage{
		Namespace: vectorstore.GlobalNamespace,
		Documents: []dto.KnowledgeDocument{{Content: "bench press setup", Filename: "bench.md"}},
	})
	require.NoError(t, err)

	pub := NewPublisherService("ingest-test", pubSub)
	require.NoError(t, pub.Publish(ctx, payload))

	require.Eventually(t, func() bool {
		return len(index.namespaces()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, vectorstore.GlobalNamespace, index.namespaces()[0])
}

func TestConsumerAcksPoisonMessages(t *testing.T) {
	index := &ingestIndex{}
	clog := &capturingLogger{}
	pubSub, consumer := newConsumerFixture(t, index, clog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	pub := NewPublisherService("ingest-test", pubSub)
	require.NoError(t, pub.Publish(ctx, []byte("not json")))

	valid, err := json.Marshal(dto.IngestKnowledgeMessage{
		Namespace: vectorstore.UserNamespace("u1"),
		Documents: []dto.KnowledgeDocument{{Content: "row technique"}},
	})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, valid))

	// The poison message is logged and dropped; the next one still lands.
	require.Eventually(t, func() bool {
		return len(index.namespaces()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{vectorstore.UserNamespace("u1")}, index.namespaces())
	assert.GreaterOrEqual(t, clog.errorCount(), 1)
}
