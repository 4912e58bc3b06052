package factory

import (
	"fmt"

	"ai-trainer-be/pkg/llm"
	"ai-trainer-be/pkg/llm/huggingface"
	"ai-trainer-be/pkg/llm/mistral"
	"ai-trainer-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "mistral":
		return mistral.NewMistralProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
