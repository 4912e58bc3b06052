package generate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-trainer-be/pkg/llm"
	"ai-trainer-be/pkg/profile"
)

const (
	genMaxTokens     = 1024
	sourceSeparator  = "\n\n----------------------\n\n"
	emptyContextNote = "No relevant context retrieved."
)

// Generator builds the final composite prompt and calls the generation
// service. It never fails: the pipeline always completes, possibly with a
// blank answer.
type Generator struct {
	llmProvider llm.LLMProvider
	profiles    profile.Provider // optional
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, profiles profile.Provider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		profiles:    profiles,
		logger:      logger,
	}
}

// Generate produces the answer for the question given the retrieved (or
// fallback) documents. The returned value is always a plain string, empty
// when the generation service fails.
func (g *Generator) Generate(
	ctx context.Context,
	question string,
	documents []string,
	userID string,
	history []llm.Message,
) string {
	prompt := g.buildPrompt(ctx, question, documents, userID, history)

	out, err := g.llmProvider.Generate(ctx, prompt, llm.WithMaxTokens(genMaxTokens))
	if err != nil {
		g.logger.Printf("[GENERATE] Generation failed, returning empty answer: %v", err)
		return ""
	}

	return out
}

func (g *Generator) buildPrompt(
	ctx context.Context,
	question string,
	documents []string,
	userID string,
	history []llm.Message,
) string {
	var b strings.Builder

	b.WriteString("You are an expert AI fitness trainer. Use ONLY the context below.\n\n")

	// Profile enrichment is best-effort: a failed lookup is logged and the
	// block simply omitted.
	if g.profiles != nil && userID != "" {
		profileBlock, err := g.profiles.GetProfile(ctx, userID)
		if err != nil {
			g.logger.Printf("[GENERATE] Profile enrichment failed for %s: %v", userID, err)
		} else if profileBlock != "" {
			b.WriteString("USER PROFILE:\n")
			b.WriteString(profileBlock)
			b.WriteString("\n\n")
		}
	}

	if len(history) > 0 {
		b.WriteString("CONVERSATION SO FAR:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("CONTEXT:\n")
	b.WriteString(buildContext(documents))
	b.WriteString("\n\n")

	b.WriteString("QUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString("RULES:\n")
	b.WriteString("- Be encouraging + specific\n")
	b.WriteString("- Explain proper form & safety when recommending exercises\n")
	b.WriteString("- Keep it concise but helpful\n")
	b.WriteString("- Answer in the same language the question was asked in\n")
	b.WriteString("- If insufficient context -> ask a clarifying question\n\n")
	b.WriteString("Answer:\n")

	return b.String()
}

func buildContext(documents []string) string {
	if len(documents) == 0 {
		return emptyContextNote
	}

	blocks := make([]string, len(documents))
	for i, doc := range documents {
		blocks[i] = fmt.Sprintf("Source #%d:\n%s", i+1, doc)
	}
	return strings.Join(blocks, sourceSeparator)
}
