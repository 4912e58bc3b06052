package grader

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-trainer-be/pkg/llm"
)

const gradeMaxTokens = 64

// Grader runs a binary relevance check on each retrieved chunk. Documents
// are graded one by one, in retrieval order, so the filtered output keeps
// the original ranking.
type Grader struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGrader(llmProvider llm.LLMProvider, logger *log.Logger) *Grader {
	return &Grader{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Grade filters documents down to those the model judges relevant to the
// question. The second return value reports whether a web-search fallback is
// needed, which is the case exactly when nothing relevant remains. An empty
// input list skips the model entirely.
//
// A reply counts as relevant when its lower-cased text contains "yes". That
// substring check is intentionally loose (an explanation that merely mentions
// "yes" passes); it matches the observed behavior of the system this grader
// reimplements and tests depend on it.
func (g *Grader) Grade(ctx context.Context, question string, documents []string) ([]string, bool) {
	if len(documents) == 0 {
		return []string{}, true
	}

	filtered := make([]string, 0, len(documents))

	for i, doc := range documents {
		prompt := buildGradePrompt(question, doc)

		out, err := g.llmProvider.Generate(ctx, prompt, llm.WithMaxTokens(gradeMaxTokens))
		if err != nil {
			// An ungradable document counts as irrelevant rather than
			// failing the whole request.
			g.logger.Printf("[GRADER] Grading call failed for doc %d, treating as irrelevant: %v", i, err)
			continue
		}

		ans := strings.ToLower(strings.TrimSpace(out))
		if strings.Contains(ans, "yes") {
			filtered = append(filtered, doc)
		}
	}

	g.logger.Printf("[GRADER] %d/%d documents graded relevant", len(filtered), len(documents))
	return filtered, len(filtered) == 0
}

func buildGradePrompt(question, document string) string {
	return fmt.Sprintf(`
You are a strict grader. Decide if DOCUMENT is relevant to QUESTION.
Reply ONLY: "yes" or "no".

QUESTION:
%s

DOCUMENT:
%s

Relevant? Answer:`, question, document)
}
