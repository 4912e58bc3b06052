package multimodal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const analyzeFormPrompt = `As a professional fitness trainer, analyze this exercise form image and provide detailed feedback:

1. **What they're doing well**: Identify correct form elements
2. **Areas for improvement**: Point out technique issues
3. **Safety concerns**: Highlight any potential injury risks
4. **Specific corrections**: Give actionable advice to improve form

Be encouraging but honest. Focus on biomechanics and proper muscle activation.`

const describeImagePrompt = `Describe this image in detail, focusing on any fitness-related content such as equipment, exercises, body positioning or training environment.`

// Processor analyzes user-supplied images so the answer can take them into
// account.
type Processor interface {
	AnalyzeExerciseForm(ctx context.Context, imageBase64 string) (string, error)
	DescribeImage(ctx context.Context, imageBase64 string) (string, error)
}

// MistralProcessor implements Processor against the Mistral vision chat API.
type MistralProcessor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func NewMistralProcessor(apiKey, model string, logger *log.Logger) *MistralProcessor {
	if model == "" {
		model = "pixtral-12b-2409"
	}
	return &MistralProcessor{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.mistral.ai/v1",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (p *MistralProcessor) AnalyzeExerciseForm(ctx context.Context, imageBase64 string) (string, error) {
	p.logger.Printf("[MULTIMODAL] Analyzing exercise form")
	return p.visionChat(ctx, analyzeFormPrompt, imageBase64)
}

func (p *MistralProcessor) DescribeImage(ctx context.Context, imageBase64 string) (string, error) {
	p.logger.Printf("[MULTIMODAL] Describing image")
	return p.visionChat(ctx, describeImagePrompt, imageBase64)
}

type visionContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type visionMessage struct {
	Role    string              `json:"role"`
	Content []visionContentPart `json:"content"`
}

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *MistralProcessor) visionChat(ctx context.Context, prompt, imageBase64 string) (string, error) {
	clean := stripDataURIPrefix(imageBase64)

	reqBody := visionRequest{
		Model: p.model,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []visionContentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: "data:image/jpeg;base64," + clean},
				},
			},
		},
		MaxTokens: 1024,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read vision response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision API returned status %d: %s", resp.StatusCode, string(body))
	}

	var out visionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("vision API returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}

// stripDataURIPrefix removes a leading "data:<mime>;base64," marker so
// callers may pass either raw base64 or a full data URI.
func stripDataURIPrefix(s string) string {
	if idx := strings.Index(s, ";base64,"); idx >= 0 {
		return s[idx+len(";base64,"):]
	}
	return s
}
