package pipeline

import (
	"context"
	"fmt"
	"log"

	"ai-trainer-be/pkg/llm"
	"ai-trainer-be/pkg/vectorstore"
	"ai-trainer-be/pkg/websearch"
)

const (
	maxRetrieval   = 6
	webFallbackTop = 3
	maxWebRetries  = 1
)

// State identifies where a request currently sits in the self-correcting
// retrieval loop. Transitions are computed by nextState and are acyclic:
// the web fallback detour can be taken at most once.
type State int

const (
	StateStart State = iota
	StateRetrieve
	StateGrade
	StateWebFallback
	StateGenerate
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateRetrieve:
		return "RETRIEVE"
	case StateGrade:
		return "GRADE"
	case StateWebFallback:
		return "WEB_FALLBACK"
	case StateGenerate:
		return "GENERATE"
	case StateEnd:
		return "END"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PipelineState is the mutable request state threaded through the handlers.
// A fresh value is built per request; Documents is replaced wholesale by
// each stage that touches it.
type PipelineState struct {
	Question        string
	Generation      string
	Documents       []string
	WebSearchNeeded bool
	RetryCount      int
}

// Retriever is the slice of the vector store the pipeline needs.
type Retriever interface {
	SearchForUser(ctx context.Context, query, userID string, k int) ([]vectorstore.SearchResult, error)
}

// DocumentGrader filters retrieved documents down to the relevant ones and
// reports whether a web fallback is needed.
type DocumentGrader interface {
	Grade(ctx context.Context, question string, documents []string) (filtered []string, webSearchNeeded bool)
}

// AnswerGenerator produces the final answer. It must not fail; a blank
// string stands in for a generation failure.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, documents []string, userID string, history []llm.Message) string
}

// Pipeline drives a question through retrieve, grade, optional web fallback
// and generate.
type Pipeline struct {
	retriever Retriever
	grader    DocumentGrader
	searcher  websearch.Searcher
	generator AnswerGenerator
	logger    *log.Logger
}

func NewPipeline(
	retriever Retriever,
	grader DocumentGrader,
	searcher websearch.Searcher,
	generator AnswerGenerator,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		grader:    grader,
		searcher:  searcher,
		generator: generator,
		logger:    logger,
	}
}

// nextState computes the successor of the current state. It is a pure
// function of the state pair so the whole transition table can be tested
// without any collaborators.
func nextState(current State, s *PipelineState) State {
	switch current {
	case StateStart:
		return StateRetrieve
	case StateRetrieve:
		return StateGrade
	case StateGrade:
		if s.WebSearchNeeded && s.RetryCount < maxWebRetries {
			return StateWebFallback
		}
		return StateGenerate
	case StateWebFallback:
		return StateGenerate
	case StateGenerate:
		return StateEnd
	default:
		return StateEnd
	}
}

// Run executes the full loop for one question and returns the terminal
// state. Web search failures are the only hard errors; everything else is
// absorbed by the individual stages.
func (p *Pipeline) Run(
	ctx context.Context,
	question string,
	userID string,
	history []llm.Message,
) (*PipelineState, error) {
	s := &PipelineState{
		Question:  question,
		Documents: []string{},
	}

	for state := nextState(StateStart, s); state != StateEnd; state = nextState(state, s) {
		p.logger.Printf("[PIPELINE] %s", state)

		var err error
		switch state {
		case StateRetrieve:
			err = p.retrieve(ctx, s, userID)
		case StateGrade:
			p.grade(ctx, s)
		case StateWebFallback:
			err = p.webFallback(ctx, s)
		case StateGenerate:
			s.Generation = p.generator.Generate(ctx, s.Question, s.Documents, userID, history)
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", state, err)
		}
	}

	return s, nil
}

func (p *Pipeline) retrieve(ctx context.Context, s *PipelineState, userID string) error {
	results, err := p.retriever.SearchForUser(ctx, s.Question, userID, maxRetrieval)
	if err != nil {
		return err
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Content)
	}
	s.Documents = docs
	return nil
}

func (p *Pipeline) grade(ctx context.Context, s *PipelineState) {
	s.Documents, s.WebSearchNeeded = p.grader.Grade(ctx, s.Question, s.Documents)
}

// webFallback replaces the document set with the top web hits. Each hit is
// flattened to a title, snippet and url block.
func (p *Pipeline) webFallback(ctx context.Context, s *PipelineState) error {
	hits, err := p.searcher.Search(ctx, s.Question)
	if err != nil {
		return err
	}

	if len(hits) > webFallbackTop {
		hits = hits[:webFallbackTop]
	}

	docs := make([]string, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, fmt.Sprintf("%s\n%s\n%s", h.Title, h.Snippet, h.URL))
	}

	s.Documents = docs
	s.RetryCount++
	return nil
}
