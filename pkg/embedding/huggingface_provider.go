package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HuggingFaceProvider calls the HF Inference Router feature-extraction
// endpoint. Default model is sentence-transformers/all-MiniLM-L6-v2
// (384 dimensions), which is free tier friendly.
type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type hfEmbeddingRequest struct {
	Model  string `json:"model"`
	Inputs string `json:"inputs"`
}

func NewHuggingFaceProvider(apiKey string, model string) EmbeddingProvider {
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: "https://router.huggingface.co/hf-inference/feature-extraction",
		model:   model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *HuggingFaceProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	// taskType is a Gemini concept; the HF feature-extraction endpoint ignores it

	reqBody := hfEmbeddingRequest{
		Model:  p.model,
		Inputs: text,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	// The router returns either [[...floats]] or [...floats] depending on
	// whether the backend batches. Try the nested form first.
	var nested [][]float32
	if err := json.Unmarshal(bodyBytes, &nested); err == nil && len(nested) > 0 {
		return &EmbeddingResponse{
			Embedding: EmbeddingResponseEmbedding{Values: nested[0]},
		}, nil
	}

	var flat []float32
	if err := json.Unmarshal(bodyBytes, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("empty embedding from huggingface api")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: flat},
	}, nil
}
