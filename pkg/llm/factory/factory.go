package factory

import (
	"fmt"

	"mood-journal-be/pkg/llm"
	"mood-journal-be/pkg/llm/gemini"
	"mood-journal-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey, persona string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini":
		return gemini.NewGeminiProvider(apiKey, modelName, persona), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName, persona), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
