// Package openai talks to OpenAI-compatible endpoints, including a local
// Ollama server exposing its /v1 API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/cv-align/internal/ai"
	"github.com/spigell/cv-align/internal/logger"
)

const (
	defaultModel          = "llama3"
	defaultEmbeddingModel = "nomic-embed-text"
	// DefaultBaseURL points to a local Ollama server.
	DefaultBaseURL = "http://localhost:11434/v1"
)

// api is the part of the go-openai client used here.
type api interface {
	CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, conv goopenai.EmbeddingRequestConverter) (goopenai.EmbeddingResponse, error)
}

// Options configures the OpenAI-compatible generator and embedder.
type Options struct {
	Model string
	// Temperature is applied when not negative.
	Temperature       float32
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *zap.Logger
}

// NewClient builds a go-openai client. An empty base URL targets the local
// Ollama endpoint; Ollama ignores the API key so an empty key is allowed.
func NewClient(apiKey, baseURL string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(strings.TrimSpace(apiKey))
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return goopenai.NewClientWithConfig(cfg)
}

// Generator sends single-turn chat completions.
type Generator struct {
	client      api
	modelName   string
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewGenerator creates a Generator on top of an existing client.
func NewGenerator(client *goopenai.Client, opts Options) (*Generator, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	return newGenerator(client, opts), nil
}

func newGenerator(client api, opts Options) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{
		client:      client,
		modelName:   model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		limiter:     ai.NewLimiter(opts.RequestsPerSecond),
		logger:      logger.WithModel(opts.Logger, ai.ProviderOpenAI, model),
	}
}

// GenerateContent sends the prompt as a user message and returns the first choice.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openai generator is not initialized")
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

	req := goopenai.ChatCompletionRequest{
		Model: g.modelName,
		Messages: []goopenai.ChatCompletionMessage{{
			Role:    goopenai.ChatMessageRoleUser,
			Content: prompt,
		}},
	}
	if g.temperature >= 0 {
		req.Temperature = g.temperature
	}

	g.logger.Debug("sending prompt", zap.Int("prompt_length", len(prompt)))

	resp, err := g.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}

	g.logger.Debug("received response",
		zap.Int("response_length", len(output)),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return output, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// Embedder produces embeddings through the /embeddings endpoint.
type Embedder struct {
	client    api
	modelName string
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewEmbedder creates an Embedder on top of an existing client.
func NewEmbedder(client *goopenai.Client, opts Options) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	return newEmbedder(client, opts), nil
}

func newEmbedder(client api, opts Options) *Embedder {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultEmbeddingModel
	}

	return &Embedder{
		client:    client,
		modelName: model,
		timeout:   opts.Timeout,
		limiter:   ai.NewLimiter(opts.RequestsPerSecond),
		logger:    logger.WithModel(opts.Logger, ai.ProviderOpenAI, model),
	}
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.client == nil {
		return nil, errors.New("openai embedder is not initialized")
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

	resp, err := e.client.CreateEmbeddings(callCtx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.modelName),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("openai api returned no embedding")
	}

	values := resp.Data[0].Embedding
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
