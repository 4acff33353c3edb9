package ai

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Generator produces free-form text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Embedder turns text into a fixed-dimension vector. The same model must
// return the same vector for the same input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// NormalizeProvider returns the canonical provider name, defaulting to gemini.
func NormalizeProvider(provider string) (string, error) {
	switch p := strings.TrimSpace(strings.ToLower(provider)); p {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI, "ollama":
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("unsupported ai provider: %s", provider)
	}
}
