package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/spigell/cv-align/internal/ai"
	"github.com/spigell/cv-align/internal/logger"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	embeddingTaskType     = "SEMANTIC_SIMILARITY"
)

// modelsAPI is the part of genai.Models used here.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Options configures the Gemini generator and embedder.
type Options struct {
	Model string
	// Temperature is applied when not negative.
	Temperature       float32
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *zap.Logger
}

// NewClient creates a Google GenAI client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return client, nil
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models      modelsAPI
	modelName   string
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewGenerator creates a Generator on top of an existing client.
func NewGenerator(client *genai.Client, opts Options) (*Generator, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	return newGenerator(client.Models, opts), nil
}

func newGenerator(models modelsAPI, opts Options) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{
		models:      models,
		modelName:   model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		limiter:     ai.NewLimiter(opts.RequestsPerSecond),
		logger:      logger.WithModel(opts.Logger, ai.ProviderGemini, model),
	}
}

// GenerateContent sends the prompt to Gemini and returns the textual response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	callCtx, cancel, err := ai.Acquire(ctx, g.limiter, g.timeout)
	if err != nil {
		return "", err
	}
	defer cancel()

	var config *genai.GenerateContentConfig
	if g.temperature >= 0 {
		temperature := g.temperature
		config = &genai.GenerateContentConfig{Temperature: &temperature}
	}

	g.logger.Debug("sending prompt", zap.Int("prompt_length", len(prompt)))

	resp, err := g.models.GenerateContent(callCtx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	g.logger.Debug("received response", zap.Int("response_length", len(output)))

	return output, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// Embedder produces embeddings through the Gemini embedding models.
type Embedder struct {
	models    modelsAPI
	modelName string
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewEmbedder creates an Embedder on top of an existing client.
func NewEmbedder(client *genai.Client, opts Options) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	return newEmbedder(client.Models, opts), nil
}

func newEmbedder(models modelsAPI, opts Options) *Embedder {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultEmbeddingModel
	}

	return &Embedder{
		models:    models,
		modelName: model,
		timeout:   opts.Timeout,
		limiter:   ai.NewLimiter(opts.RequestsPerSecond),
		logger:    logger.WithModel(opts.Logger, ai.ProviderGemini, model),
	}
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text must not be empty")
	}

	callCtx, cancel, err := ai.Acquire(ctx, e.limiter, e.timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	e.logger.Debug("sending embedding request", zap.Int("text_length", len(text)))

	resp, err := e.models.EmbedContent(callCtx, e.modelName, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: embeddingTaskType,
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned no embedding")
	}

	values := resp.Embeddings[0].Values
	e.logger.Debug("received embedding", zap.Int("dimensions", len(values)))

	return values, nil
}

// Model returns the configured embedding model name.
func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.modelName
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
