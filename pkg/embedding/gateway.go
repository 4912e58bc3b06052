package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

// Gateway is the single entry point the rest of the system uses to turn text
// into vectors. It never returns an error: a failed or malformed embedding
// degrades to an empty vector, which downstream callers treat as "no match"
// rather than a hard failure.
type Gateway struct {
	provider EmbeddingProvider
	cache    *redis.Client // optional, nil disables caching
	logger   *log.Logger
}

func NewGateway(provider EmbeddingProvider, cache *redis.Client, logger *log.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Embed returns the dense vector for text, or an empty slice when the
// provider fails. Query and document embeddings share the same cache since
// the providers here do not distinguish task types in output space.
func (g *Gateway) Embed(ctx context.Context, text string, taskType string) []float32 {
	if text == "" {
		return nil
	}

	key := g.cacheKey(text)

	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, key).Bytes(); err == nil {
			var values []float32
			if err := json.Unmarshal(cached, &values); err == nil {
				return values
			}
		}
	}

	res, err := g.provider.Generate(text, taskType)
	if err != nil {
		g.logger.Printf("[EMBEDDING] Generate failed, degrading to empty vector: %v", err)
		return nil
	}

	values := res.Embedding.Values
	if len(values) == 0 {
		g.logger.Printf("[EMBEDDING] Provider returned empty payload for text (len=%d)", len(text))
		return nil
	}

	if g.cache != nil {
		if data, err := json.Marshal(values); err == nil {
			// Cache write failures are invisible to callers
			if err := g.cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
				g.logger.Printf("[EMBEDDING] Cache write failed: %v", err)
			}
		}
	}

	return values
}

func (g *Gateway) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%x", sum)
}
