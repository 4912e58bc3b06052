package generate

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-trainer-be/pkg/llm"
)

type capturingLLM struct {
	reply     string
	err       error
	gotPrompt string
	gotOpts   []llm.Option
}

func (c *capturingLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", fmt.Errorf("not used")
}

func (c *capturingLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	c.gotPrompt = prompt
	c.gotOpts = options
	return c.reply, c.err
}

type fakeProfiles struct {
	profile string
	err     error
}

func (f *fakeProfiles) GetProfile(ctx context.Context, userID string) (string, error) {
	return f.profile, f.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestGenerateBuildsNumberedContext(t *testing.T) {
	model := &capturingLLM{reply: "answer"}
	g := NewGenerator(model, nil, testLogger())

	out := g.Generate(context.Background(), "how to squat", []string{"doc one", "doc two"}, "", nil)

	assert.Equal(t, "answer", out)
	assert.Contains(t, model.gotPrompt, "Source #1:\ndoc one")
	assert.Contains(t, model.gotPrompt, "Source #2:\ndoc two")
	assert.Contains(t, model.gotPrompt, "----------------------")
	assert.Contains(t, model.gotPrompt, "QUESTION:\nhow to squat")
}

func TestGenerateEmptyContextPlaceholder(t *testing.T) {
	model := &capturingLLM{reply: "clarify please"}
	g := NewGenerator(model, nil, testLogger())

	g.Generate(context.Background(), "question", nil, "", nil)

	assert.Contains(t, model.gotPrompt, "No relevant context retrieved.")
	assert.NotContains(t, model.gotPrompt, "Source #")
}

func TestGenerateFailureReturnsEmptyString(t *testing.T) {
	model := &capturingLLM{err: fmt.Errorf("model overloaded")}
	g := NewGenerator(model, nil, testLogger())

	out := g.Generate(context.Background(), "question", []string{"doc"}, "", nil)

	assert.Equal(t, "", out)
}

func TestGenerateIncludesProfileBlock(t *testing.T) {
	model := &capturingLLM{reply: "answer"}
	profiles := &fakeProfiles{profile: "Name: Sam\nGoal: strength"}
	g := NewGenerator(model, profiles, testLogger())

	g.Generate(context.Background(), "question", nil, "u1", nil)

	assert.Contains(t, model.gotPrompt, "USER PROFILE:")
	assert.Contains(t, model.gotPrompt, "Goal: strength")
}

func TestGenerateProfileFailureIsOmitted(t *testing.T) {
	model := &capturingLLM{reply: "answer"}
	profiles := &fakeProfiles{err: fmt.Errorf("user service down")}
	g := NewGenerator(model, profiles, testLogger())

	out := g.Generate(context.Background(), "question", nil, "u1", nil)

	assert.Equal(t, "answer", out, "profile failure must not block generation")
	assert.NotContains(t, model.gotPrompt, "USER PROFILE:")
}

func TestGenerateSkipsProfileWithoutUser(t *testing.T) {
	model := &capturingLLM{reply: "answer"}
	profiles := &fakeProfiles{profile: "should not appear"}
	g := NewGenerator(model, profiles, testLogger())

	g.Generate(context.Background(), "question", nil, "", nil)

	assert.NotContains(t, model.gotPrompt, "USER PROFILE:")
}

func TestGenerateIncludesHistoryInOrder(t *testing.T) {
	model := &capturingLLM{reply: "answer"}
	g := NewGenerator(model, nil, testLogger())

	history := []llm.Message{
		{Role: "user", Content: "first turn"},
		{Role: "assistant", Content: "first reply"},
	}
	g.Generate(context.Background(), "question", nil, "", history)

	require.Contains(t, model.gotPrompt, "CONVERSATION SO FAR:")
	firstIdx := strings.Index(model.gotPrompt, "user: first turn")
	secondIdx := strings.Index(model.gotPrompt, "assistant: first reply")
	require.GreaterOrEqual(t, firstIdx, 0)
	require.Greater(t, secondIdx, firstIdx)

	// History precedes the context block.
	contextIdx := strings.Index(model.gotPrompt, "CONTEXT:")
	assert.Greater(t, contextIdx, secondIdx)
}

func TestGenerateAppliesTokenBudget(t *testing.T) {
	model := &capturingLLM{reply: "answer"}
	g := NewGenerator(model, nil, testLogger())

	g.Generate(context.Background(), "question", nil, "", nil)

	var opts llm.Options
	for _, o := range model.gotOpts {
		o(&opts)
	}
	assert.Equal(t, genMaxTokens, opts.MaxTokens)
}
