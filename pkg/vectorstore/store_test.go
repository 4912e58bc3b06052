package vectorstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-trainer-be/pkg/embedding"
	"ai-trainer-be/pkg/vectordb"
)

// fakeProvider embeds text as a fixed vector. Texts listed in failOn come
// back with an error, texts in emptyOn with an empty payload.
type fakeProvider struct {
	failOn  string
	emptyOn string
	calls   int
}

func (f *fakeProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, fmt.Errorf("provider down")
	}
	if f.emptyOn != "" && strings.Contains(text, f.emptyOn) {
		return &embedding.EmbeddingResponse{}, nil
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

// fakeIndex records writes and serves canned query results per collection.
type fakeIndex struct {
	collections map[string]bool
	added       map[string][]string // collection -> ids
	docs        map[string][]string // collection -> documents
	results     map[string]*vectordb.QueryResult
	queryErr    map[string]error
	deleted     map[string][]string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		collections: make(map[string]bool),
		added:       make(map[string][]string),
		docs:        make(map[string][]string),
		results:     make(map[string]*vectordb.QueryResult),
		queryErr:    make(map[string]error),
		deleted:     make(map[string][]string),
	}
}

func (f *fakeIndex) EnsureCollection(ctx context.Context, name string) error {
	f.collections[name] = true
	return nil
}

func (f *fakeIndex) Add(ctx context.Context, collection string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	f.added[collection] = append(f.added[collection], ids...)
	f.docs[collection] = append(f.docs[collection], documents...)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, collection string, emb []float32, k int) (*vectordb.QueryResult, error) {
	if err := f.queryErr[collection]; err != nil {
		return nil, err
	}
	if res, ok := f.results[collection]; ok {
		return res, nil
	}
	return &vectordb.QueryResult{}, nil
}

func (f *fakeIndex) Delete(ctx context.Context, collection string, ids []string) error {
	f.deleted[collection] = append(f.deleted[collection], ids...)
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestStore(index vectordb.Index, provider embedding.EmbeddingProvider) *Store {
	gateway := embedding.NewGateway(provider, nil, testLogger())
	return NewStore(index, gateway, testLogger())
}

func TestAddDocumentsStoresChunks(t *testing.T) {
	index := newFakeIndex()
	store := newTestStore(index, &fakeProvider{})

	ids, err := store.AddGlobalDocuments(context.Background(), []Document{
		{Content: "squats train the legs", Metadata: Metadata{Filename: "squats.md"}},
	})

	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.True(t, index.collections[GlobalNamespace])
	assert.Equal(t, ids, index.added[GlobalNamespace])
	assert.Equal(t, []string{"squats train the legs"}, index.docs[GlobalNamespace])
}

func TestAddDocumentsDropsFailedChunks(t *testing.T) {
	index := newFakeIndex()
	store := newTestStore(index, &fakeProvider{failOn: "bad"})

	ids, err := store.AddGlobalDocuments(context.Background(), []Document{
		{Content: "good chunk about deadlifts"},
		{Content: "bad chunk"},
	})

	require.NoError(t, err)
	assert.Len(t, ids, 1, "failed chunk should be dropped, not fatal")
	assert.Equal(t, []string{"good chunk about deadlifts"}, index.docs[GlobalNamespace])
}

func TestAddDocumentsAllChunksFail(t *testing.T) {
	index := newFakeIndex()
	store := newTestStore(index, &fakeProvider{failOn: "chunk"})

	_, err := store.AddGlobalDocuments(context.Background(), []Document{
		{Content: "first chunk"},
		{Content: "second chunk"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed embedding")
	assert.Empty(t, index.added[GlobalNamespace], "nothing should be written")
}

func TestAddDocumentsEmptyInput(t *testing.T) {
	store := newTestStore(newFakeIndex(), &fakeProvider{})

	ids, err := store.AddGlobalDocuments(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSimilaritySearchEmptyEmbeddingFailsSoft(t *testing.T) {
	index := newFakeIndex()
	index.results[GlobalNamespace] = &vectordb.QueryResult{
		Documents: []string{"should never surface"},
		Distances: []float32{0.1},
	}
	store := newTestStore(index, &fakeProvider{failOn: "anything"})

	results, err := store.SimilaritySearch(context.Background(), "anything at all", 6, GlobalNamespace)

	require.NoError(t, err, "embedding failure must not be an error")
	assert.Empty(t, results)
}

func TestSimilaritySearchSortsAscending(t *testing.T) {
	index := newFakeIndex()
	index.results[GlobalNamespace] = &vectordb.QueryResult{
		Documents: []string{"far", "near", "mid"},
		Distances: []float32{0.9, 0.1, 0.5},
		Metadatas: []map[string]interface{}{nil, nil, nil},
	}
	store := newTestStore(index, &fakeProvider{})

	results, err := store.SimilaritySearch(context.Background(), "query", 6, GlobalNamespace)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "near", results[0].Content)
	assert.Equal(t, "mid", results[1].Content)
	assert.Equal(t, "far", results[2].Content)
	assert.Equal(t, float32(0.1), results[0].Score)
	assert.Equal(t, GlobalNamespace, results[0].Metadata["collection"])
	assert.Equal(t, float32(0.1), results[0].Metadata["score"])
}

func TestSearchForUserGlobalOnly(t *testing.T) {
	index := newFakeIndex()
	index.results[GlobalNamespace] = &vectordb.QueryResult{
		Documents: []string{"global doc"},
		Distances: []float32{0.3},
	}
	store := newTestStore(index, &fakeProvider{})

	results, err := store.SearchForUser(context.Background(), "query", "", 6)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "global doc", results[0].Content)
}

func TestSearchForUserMissingNamespaceFallsBackToGlobal(t *testing.T) {
	index := newFakeIndex()
	index.results[GlobalNamespace] = &vectordb.QueryResult{
		Documents: []string{"global doc"},
		Distances: []float32{0.3},
	}
	index.queryErr[UserNamespace("u1")] = vectordb.ErrCollectionNotFound
	store := newTestStore(index, &fakeProvider{})

	results, err := store.SearchForUser(context.Background(), "query", "u1", 6)

	require.NoError(t, err, "missing user namespace must degrade to global-only")
	require.Len(t, results, 1)
	assert.Equal(t, "global doc", results[0].Content)
}

func TestSearchForUserEmptyGlobalCorpus(t *testing.T) {
	index := newFakeIndex()
	index.queryErr[GlobalNamespace] = vectordb.ErrCollectionNotFound
	store := newTestStore(index, &fakeProvider{})

	results, err := store.SearchForUser(context.Background(), "query", "", 6)

	require.NoError(t, err, "an unseeded global corpus must not abort retrieval")
	assert.Empty(t, results)
}

func TestSearchForUserEmptyGlobalCorpusKeepsUserResults(t *testing.T) {
	index := newFakeIndex()
	index.queryErr[GlobalNamespace] = vectordb.ErrCollectionNotFound
	index.results[UserNamespace("u1")] = &vectordb.QueryResult{
		Documents: []string{"user doc"},
		Distances: []float32{0.2},
	}
	store := newTestStore(index, &fakeProvider{})

	results, err := store.SearchForUser(context.Background(), "query", "u1", 6)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user doc", results[0].Content)
}

func TestSearchForUserMergesWithoutDedupOrCap(t *testing.T) {
	index := newFakeIndex()
	index.results[GlobalNamespace] = &vectordb.QueryResult{
		Documents: []string{"shared doc", "global only"},
		Distances: []float32{0.4, 0.8},
	}
	index.results[UserNamespace("u1")] = &vectordb.QueryResult{
		Documents: []string{"shared doc", "user only"},
		Distances: []float32{0.2, 0.6},
	}
	store := newTestStore(index, &fakeProvider{})

	results, err := store.SearchForUser(context.Background(), "query", "u1", 2)

	require.NoError(t, err)
	// 2 per namespace stay 4 after the merge: no dedup, no re-cap to k.
	require.Len(t, results, 4)
	assert.Equal(t, "shared doc", results[0].Content)
	assert.Equal(t, "shared doc", results[1].Content)
	assert.Equal(t, []float32{0.2, 0.4, 0.6, 0.8}, []float32{
		results[0].Score, results[1].Score, results[2].Score, results[3].Score,
	})
}

func TestDeleteDocuments(t *testing.T) {
	index := newFakeIndex()
	store := newTestStore(index, &fakeProvider{})

	err := store.DeleteDocuments(context.Background(), []string{"id1", "id2"}, GlobalNamespace)

	require.NoError(t, err)
	assert.Equal(t, []string{"id1", "id2"}, index.deleted[GlobalNamespace])
}

func TestChunkMetadataFields(t *testing.T) {
	index := newFakeIndex()
	store := newTestStore(index, &fakeProvider{})

	meta := store.chunkMetadata(Metadata{
		Filename: "plan.md",
		Extra:    map[string]interface{}{"topic": "strength"},
	}, GlobalNamespace)

	assert.Equal(t, "plan.md", meta["filename"])
	assert.Equal(t, ScopeGlobal, meta["scope"])
	assert.Equal(t, "strength", meta["topic"])
	assert.NotEmpty(t, meta["addedAt"])

	userMeta := store.chunkMetadata(Metadata{}, UserNamespace("u1"))
	assert.Equal(t, ScopeUser, userMeta["scope"])
	_, hasFilename := userMeta["filename"]
	assert.False(t, hasFilename, "empty filename should be omitted")
}
