package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-trainer-be/pkg/llm"
	"ai-trainer-be/pkg/vectorstore"
	"ai-trainer-be/pkg/websearch"
)

type fakeRetriever struct {
	results []vectorstore.SearchResult
	err     error
	gotK    int
}

func (f *fakeRetriever) SearchForUser(ctx context.Context, query, userID string, k int) ([]vectorstore.SearchResult, error) {
	f.gotK = k
	return f.results, f.err
}

type fakeGrader struct {
	keep  []string
	calls int
}

func (f *fakeGrader) Grade(ctx context.Context, question string, documents []string) ([]string, bool) {
	f.calls++
	return f.keep, len(f.keep) == 0
}

type fakeSearcher struct {
	hits  []websearch.Result
	err   error
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]websearch.Result, error) {
	f.calls++
	return f.hits, f.err
}

type fakeGenerator struct {
	answer  string
	gotDocs []string
	gotHist []llm.Message
}

func (f *fakeGenerator) Generate(ctx context.Context, question string, documents []string, userID string, history []llm.Message) string {
	f.gotDocs = documents
	f.gotHist = history
	return f.answer
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestNextStateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		current State
		state   PipelineState
		want    State
	}{
		{"start goes to retrieve", StateStart, PipelineState{}, StateRetrieve},
		{"retrieve goes to grade", StateRetrieve, PipelineState{}, StateGrade},
		{"grade with relevant docs goes to generate", StateGrade, PipelineState{WebSearchNeeded: false}, StateGenerate},
		{"grade with nothing relevant takes the fallback", StateGrade, PipelineState{WebSearchNeeded: true, RetryCount: 0}, StateWebFallback},
		{"grade never takes the fallback twice", StateGrade, PipelineState{WebSearchNeeded: true, RetryCount: 1}, StateGenerate},
		{"fallback always goes to generate", StateWebFallback, PipelineState{WebSearchNeeded: true}, StateGenerate},
		{"generate ends", StateGenerate, PipelineState{}, StateEnd},
		{"end stays end", StateEnd, PipelineState{}, StateEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextState(tt.current, &tt.state)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunHappyPath(t *testing.T) {
	retriever := &fakeRetriever{results: []vectorstore.SearchResult{
		{Content: "doc a"}, {Content: "doc b"},
	}}
	grader := &fakeGrader{keep: []string{"doc a"}}
	searcher := &fakeSearcher{}
	generator := &fakeGenerator{answer: "lift with your legs"}

	p := NewPipeline(retriever, grader, searcher, generator, testLogger())

	state, err := p.Run(context.Background(), "how to deadlift", "u1", nil)

	require.NoError(t, err)
	assert.Equal(t, "lift with your legs", state.Generation)
	assert.Equal(t, []string{"doc a"}, state.Documents)
	assert.Equal(t, 0, searcher.calls, "fallback must not run when docs survive grading")
	assert.Equal(t, 6, retriever.gotK)
	assert.Equal(t, 0, state.RetryCount)
}

func TestRunEmptyCorpusFallsBackOnce(t *testing.T) {
	retriever := &fakeRetriever{results: nil}
	grader := &fakeGrader{keep: nil}
	searcher := &fakeSearcher{hits: []websearch.Result{
		{Title: "t1", Snippet: "s1", URL: "u1"},
		{Title: "t2", Snippet: "s2", URL: "u2"},
		{Title: "t3", Snippet: "s3", URL: "u3"},
		{Title: "t4", Snippet: "s4", URL: "u4"},
	}}
	generator := &fakeGenerator{answer: "from the web"}

	p := NewPipeline(retriever, grader, searcher, generator, testLogger())

	state, err := p.Run(context.Background(), "obscure question", "", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, 1, state.RetryCount)
	// Top 3 hits only, flattened to three-line blocks, replacing the
	// graded set wholesale.
	require.Len(t, state.Documents, 3)
	assert.Equal(t, "t1\ns1\nu1", state.Documents[0])
	assert.Equal(t, "from the web", state.Generation)
	// Fallback results skip re-grading.
	assert.Equal(t, 1, grader.calls)
}

func TestRunWebFallbackErrorPropagates(t *testing.T) {
	retriever := &fakeRetriever{}
	grader := &fakeGrader{keep: nil}
	searcher := &fakeSearcher{err: fmt.Errorf("duckduckgo unreachable")}
	generator := &fakeGenerator{answer: "never"}

	p := NewPipeline(retriever, grader, searcher, generator, testLogger())

	_, err := p.Run(context.Background(), "question", "", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEB_FALLBACK")
}

func TestRunRetrieveErrorPropagates(t *testing.T) {
	retriever := &fakeRetriever{err: fmt.Errorf("index down")}

	p := NewPipeline(retriever, &fakeGrader{}, &fakeSearcher{}, &fakeGenerator{}, testLogger())

	_, err := p.Run(context.Background(), "question", "", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRIEVE")
}

func TestRunBlankGenerationStillCompletes(t *testing.T) {
	retriever := &fakeRetriever{results: []vectorstore.SearchResult{{Content: "doc"}}}
	grader := &fakeGrader{keep: []string{"doc"}}
	generator := &fakeGenerator{answer: ""}

	p := NewPipeline(retriever, grader, &fakeSearcher{}, generator, testLogger())

	state, err := p.Run(context.Background(), "question", "", nil)

	require.NoError(t, err, "a failed generation is a blank answer, not an error")
	assert.Equal(t, "", state.Generation)
	assert.Equal(t, []string{"doc"}, state.Documents)
}

func TestRunPassesHistoryToGenerator(t *testing.T) {
	generator := &fakeGenerator{answer: "ok"}
	grader := &fakeGrader{keep: []string{"doc"}}
	retriever := &fakeRetriever{results: []vectorstore.SearchResult{{Content: "doc"}}}

	p := NewPipeline(retriever, grader, &fakeSearcher{}, generator, testLogger())

	history := []llm.Message{{Role: "user", Content: "earlier question"}}
	_, err := p.Run(context.Background(), "question", "u1", history)

	require.NoError(t, err)
	assert.Equal(t, history, generator.gotHist)
}
