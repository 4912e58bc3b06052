package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"ai-trainer-be/pkg/embedding"
	"ai-trainer-be/pkg/utils"
	"ai-trainer-be/pkg/vectordb"
)

const (
	// GlobalNamespace holds the shared fitness knowledge corpus.
	GlobalNamespace = "fitness_global_knowledge"

	userNamespacePrefix = "fitness_user_"

	ScopeGlobal = "global"
	ScopeUser   = "user"

	defaultChunkSize    = 800
	defaultChunkOverlap = 150

	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

// Metadata carries the required chunk fields plus an open extension map for
// anything an ingestion collaborator wants to attach.
type Metadata struct {
	Filename string
	Scope    string
	AddedAt  time.Time
	Extra    map[string]interface{}
}

// Document is an ingestion input: raw text plus its metadata. Chunking and
// embedding happen inside the store.
type Document struct {
	Content  string
	Metadata Metadata
}

// SearchResult is a query-time view of a chunk. Score is the similarity
// distance for this query (lower = closer); it is not a stored attribute.
type SearchResult struct {
	Content  string
	Score    float32
	Metadata map[string]interface{}
}

// Store owns the two logical namespace kinds (one shared global corpus, one
// private corpus per user) on top of a remote similarity index.
type Store struct {
	index        vectordb.Index
	gateway      *embedding.Gateway
	chunkSize    int
	chunkOverlap int
	logger       *log.Logger
}

// Option tunes the store at construction time.
type Option func(*Store)

// WithChunking overrides the default chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(s *Store) {
		if size > 0 {
			s.chunkSize = size
		}
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

func NewStore(index vectordb.Index, gateway *embedding.Gateway, logger *log.Logger, opts ...Option) *Store {
	s := &Store{
		index:        index,
		gateway:      gateway,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserNamespace returns the private namespace name for a user id.
func UserNamespace(userID string) string {
	return userNamespacePrefix + userID
}

func scopeOf(namespace string) string {
	if namespace == GlobalNamespace {
		return ScopeGlobal
	}
	return ScopeUser
}

// AddDocuments splits every document into overlapping chunks, embeds each
// chunk, and stores the survivors into the namespace (auto-created when
// missing). Chunks whose embedding comes back empty are dropped with a log
// line; the call only fails when not a single chunk survives.
func (s *Store) AddDocuments(ctx context.Context, docs []Document, namespace string) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	var (
		ids        []string
		texts      []string
		embeddings [][]float32
		metadatas  []map[string]interface{}
		total      int
		dropped    int
	)

	for _, doc := range docs {
		chunks := utils.SplitText(doc.Content, s.chunkSize, s.chunkOverlap)
		for i, chunk := range chunks {
			total++

			vec := s.gateway.Embed(ctx, chunk, taskTypeDocument)
			if len(vec) == 0 {
				dropped++
				s.logger.Printf("[VECTORSTORE] Dropping chunk %d of %q: empty embedding", i, doc.Metadata.Filename)
				continue
			}

			id := fmt.Sprintf("%s_%d_%s_%d", namespace, time.Now().UnixNano(), uuid.NewString(), i)
			ids = append(ids, id)
			texts = append(texts, chunk)
			embeddings = append(embeddings, vec)
			metadatas = append(metadatas, s.chunkMetadata(doc.Metadata, namespace))
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("all %d chunks failed embedding for namespace %s", total, namespace)
	}

	if err := s.index.EnsureCollection(ctx, namespace); err != nil {
		return nil, fmt.Errorf("failed to ensure namespace %s: %w", namespace, err)
	}

	if err := s.index.Add(ctx, namespace, ids, texts, embeddings, metadatas); err != nil {
		return nil, fmt.Errorf("failed to store chunks in %s: %w", namespace, err)
	}

	s.logger.Printf("[VECTORSTORE] Added %d chunks -> (%s), dropped %d", len(ids), namespace, dropped)
	return ids, nil
}

// AddGlobalDocuments stores docs into the shared corpus.
func (s *Store) AddGlobalDocuments(ctx context.Context, docs []Document) ([]string, error) {
	return s.AddDocuments(ctx, docs, GlobalNamespace)
}

// AddUserDocuments stores docs into a user's private corpus.
func (s *Store) AddUserDocuments(ctx context.Context, userID string, docs []Document) ([]string, error) {
	return s.AddDocuments(ctx, docs, UserNamespace(userID))
}

// SimilaritySearch embeds the query and returns the k nearest chunks of the
// namespace sorted ascending by score. An empty query embedding is a degraded
// embedding service, not an error: the result is simply empty.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, namespace string) ([]SearchResult, error) {
	vec := s.gateway.Embed(ctx, query, taskTypeQuery)
	if len(vec) == 0 {
		s.logger.Printf("[VECTORSTORE] Empty embedding for query %q, returning no results", truncate(query, 50))
		return []SearchResult{}, nil
	}

	if err := s.index.EnsureCollection(ctx, namespace); err != nil {
		return nil, fmt.Errorf("failed to ensure namespace %s: %w", namespace, err)
	}

	res, err := s.index.Query(ctx, namespace, vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(res.Documents))
	for i, content := range res.Documents {
		if content == "" {
			continue
		}

		meta := make(map[string]interface{})
		if i < len(res.Metadatas) && res.Metadatas[i] != nil {
			for key, value := range res.Metadatas[i] {
				meta[key] = value
			}
		}

		var score float32
		if i < len(res.Distances) {
			score = res.Distances[i]
		}
		meta["score"] = score
		meta["collection"] = namespace

		results = append(results, SearchResult{
			Content:  content,
			Score:    score,
			Metadata: meta,
		})
	}

	sortByScore(results)
	return results, nil
}

// SearchForUser always searches the global corpus and, when userID is set,
// the user's private corpus too. A missing user namespace yields global-only
// results, and a not-yet-seeded global corpus yields empty results rather
// than an error so retrieval can fall through to web search. Merged results
// are re-sorted ascending by score but neither deduplicated nor re-capped to
// k, so up to 2k chunks can flow forward.
func (s *Store) SearchForUser(ctx context.Context, query string, userID string, k int) ([]SearchResult, error) {
	globalResults, err := s.SimilaritySearch(ctx, query, k, GlobalNamespace)
	if err != nil {
		if !errors.Is(err, vectordb.ErrCollectionNotFound) {
			return nil, err
		}
		s.logger.Printf("[VECTORSTORE] Global namespace is empty, continuing without documents")
		globalResults = []SearchResult{}
	}

	if userID == "" {
		return globalResults, nil
	}

	userResults, err := s.SimilaritySearch(ctx, query, k, UserNamespace(userID))
	if err != nil {
		// The user corpus is best-effort: a user who never uploaded
		// anything has no namespace at all.
		s.logger.Printf("[VECTORSTORE] User namespace unavailable for %s: %v", userID, err)
		return globalResults, nil
	}

	merged := append(globalResults, userResults...)
	sortByScore(merged)
	return merged, nil
}

// DeleteDocuments removes chunks by id from a namespace.
func (s *Store) DeleteDocuments(ctx context.Context, ids []string, namespace string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.index.EnsureCollection(ctx, namespace); err != nil {
		return fmt.Errorf("failed to ensure namespace %s: %w", namespace, err)
	}
	s.logger.Printf("[VECTORSTORE] Deleting %d chunks from %s", len(ids), namespace)
	return s.index.Delete(ctx, namespace, ids)
}

func (s *Store) chunkMetadata(meta Metadata, namespace string) map[string]interface{} {
	addedAt := meta.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}

	out := make(map[string]interface{}, len(meta.Extra)+3)
	for key, value := range meta.Extra {
		out[key] = value
	}
	if meta.Filename != "" {
		out["filename"] = meta.Filename
	}
	out["scope"] = scopeOf(namespace)
	out["addedAt"] = addedAt.Format(time.RFC3339)
	return out
}

func sortByScore(results []SearchResult) {
	// Stable keeps the per-namespace retrieval order for equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
