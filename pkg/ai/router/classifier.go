package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-trainer-be/pkg/llm"
)

// Category routes a chat message either through the full retrieval pipeline
// or a lightweight conversational reply.
type Category string

const (
	CategoryFitness Category = "fitness"
	CategoryGeneral Category = "general"
)

const classifyMaxTokens = 16

// Classifier decides whether a message needs the knowledge base at all.
// Small talk gets a direct conversational answer instead of a retrieval
// round-trip.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Classify labels the message fitness or general. Classification failures
// fall back to fitness so a broken classifier can never hide the knowledge
// base from the user.
func (c *Classifier) Classify(ctx context.Context, message string) Category {
	prompt := buildClassifyPrompt(message)

	out, err := c.llmProvider.Generate(ctx, prompt, llm.WithMaxTokens(classifyMaxTokens))
	if err != nil {
		c.logger.Printf("[ROUTER] Classification failed, defaulting to fitness: %v", err)
		return CategoryFitness
	}

	if strings.Contains(strings.ToLower(out), "fitness") {
		return CategoryFitness
	}
	return CategoryGeneral
}

func buildClassifyPrompt(message string) string {
	return fmt.Sprintf(`Classify the user message below as "fitness" or "general".
examples of general:
- "How are you?",
- "Hello, how are you?",
- "Hello",
- "Hi",

examples of fitness:
- "What is the best workout for weight loss?",
- "I have some problems in stomach so can you regenerate the plans according to that",
- "I want to lose weight",
- "I want to gain weight",
- "I want to build muscle",

Return ONLY the classification word without explanation.

USER MESSAGE:
%s
`, message)
}

// GeneralPrompt is the conversational prompt used when a message is
// classified general and the pipeline is bypassed.
func GeneralPrompt(message string) string {
	return fmt.Sprintf(`You are a friendly fitness coach but now responding casually in general conversation.
User asked: "%s"

Give a short, warm, conversational response.`, message)
}
