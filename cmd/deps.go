package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/ai"
	"github.com/spigell/cv-align/internal/ai/gemini"
	"github.com/spigell/cv-align/internal/ai/openai"
	"github.com/spigell/cv-align/internal/embedding"
	"github.com/spigell/cv-align/internal/evaluation"
	"github.com/spigell/cv-align/internal/feedback"
	"github.com/spigell/cv-align/internal/scoring"
	"github.com/spigell/cv-align/internal/secrets"
	"github.com/spigell/cv-align/internal/vectorstore"
)

const (
	envGeminiAPIKey = "GEMINI_API_KEY"
	envOpenAIAPIKey = "OPENAI_API_KEY"
)

func newStore(config *Config, logger *zap.Logger) (*vectorstore.Manager, error) {
	return vectorstore.New(afero.NewOsFs(), config.Store.Root, logger)
}

func newChunker(config *Config) (*embedding.Chunker, error) {
	return embedding.NewChunker(config.Chunking.Size, config.Chunking.Overlap)
}

func newPolicy(config *Config) (scoring.Policy, error) {
	strategy, err := scoring.ParseStrategy(config.Scoring.Strategy)
	if err != nil {
		return scoring.Policy{}, err
	}

	policy := scoring.Policy{
		Strategy:  strategy,
		TopK:      config.Scoring.TopK,
		BandLow:   config.Scoring.BandLow,
		BandWidth: config.Scoring.BandWidth,
	}
	if err := policy.Validate(); err != nil {
		return scoring.Policy{}, err
	}
	return policy, nil
}

func geminiAPIKey(keyFile string) (string, error) {
	key, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: keyFile,
		Env:  envGeminiAPIKey,
	})
	if err != nil {
		return "", fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}
	return key, nil
}

// openAIAPIKey tolerates a missing key since local Ollama servers do not check it.
func openAIAPIKey(keyFile string, logger *zap.Logger) string {
	key, err := secrets.Load(secrets.Source{
		Name: "openai api key",
		File: keyFile,
		Env:  envOpenAIAPIKey,
	})
	if err != nil {
		logger.Debug("using openai-compatible endpoint without api key", zap.Error(err))
		return ""
	}
	return key
}

func newEmbedder(ctx context.Context, config *Config, logger *zap.Logger) (ai.Embedder, error) {
	provider, err := ai.NormalizeProvider(config.Embedding.Provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case ai.ProviderOpenAI:
		keyFile := firstSet(config.Embedding.APIKeyFile, config.AI.OpenAI.APIKeyFile)
		baseURL := firstSet(config.Embedding.BaseURL, config.AI.OpenAI.BaseURL)
		client := openai.NewClient(openAIAPIKey(keyFile, logger), baseURL)
		return openai.NewEmbedder(client, openai.Options{
			Model:             config.Embedding.Model,
			Timeout:           config.AI.Timeout,
			RequestsPerSecond: config.AI.RequestsPerSecond,
			Logger:            logger,
		})
	default:
		key, err := geminiAPIKey(firstSet(config.Embedding.APIKeyFile, config.AI.Gemini.APIKeyFile))
		if err != nil {
			return nil, err
		}
		client, err := gemini.NewClient(ctx, key)
		if err != nil {
			return nil, err
		}
		return gemini.NewEmbedder(client, gemini.Options{
			Model:             config.Embedding.Model,
			Timeout:           config.AI.Timeout,
			RequestsPerSecond: config.AI.RequestsPerSecond,
			Logger:            logger,
		})
	}
}

func newGenerator(ctx context.Context, config *Config, logger *zap.Logger) (ai.Generator, error) {
	provider, err := ai.NormalizeProvider(config.AI.Provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case ai.ProviderOpenAI:
		client := openai.NewClient(openAIAPIKey(config.AI.OpenAI.APIKeyFile, logger), config.AI.OpenAI.BaseURL)
		return openai.NewGenerator(client, openai.Options{
			Model:             config.AI.OpenAI.Model,
			Temperature:       config.AI.Temperature,
			Timeout:           config.AI.Timeout,
			RequestsPerSecond: config.AI.RequestsPerSecond,
			Logger:            logger,
		})
	default:
		key, err := geminiAPIKey(config.AI.Gemini.APIKeyFile)
		if err != nil {
			return nil, err
		}
		client, err := gemini.NewClient(ctx, key)
		if err != nil {
			return nil, err
		}
		return gemini.NewGenerator(client, gemini.Options{
			Model:             config.AI.Gemini.Model,
			Temperature:       config.AI.Temperature,
			Timeout:           config.AI.Timeout,
			RequestsPerSecond: config.AI.RequestsPerSecond,
			Logger:            logger,
		})
	}
}

func newPipeline(ctx context.Context, config *Config, logger *zap.Logger) (*embedding.Pipeline, *vectorstore.Manager, error) {
	chunker, err := newChunker(config)
	if err != nil {
		return nil, nil, err
	}

	store, err := newStore(config, logger)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := newEmbedder(ctx, config, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building embedder: %w", err)
	}

	pipeline, err := embedding.New(store, embedder, chunker, logger)
	if err != nil {
		return nil, nil, err
	}
	return pipeline, store, nil
}

func newEngine(config *Config, store *vectorstore.Manager, logger *zap.Logger) (*scoring.Engine, error) {
	policy, err := newPolicy(config)
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(store, policy, logger)
}

func newFeedback(ctx context.Context, config *Config, logger *zap.Logger) (*feedback.Generator, error) {
	prompts, err := feedback.LoadPrompts(config.AI.PromptsFile)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(ctx, config, logger)
	if err != nil {
		return nil, fmt.Errorf("building generator: %w", err)
	}

	return feedback.NewGenerator(generator, feedback.Options{
		MaxRetries:    config.AI.MaxRetries,
		RetryInterval: config.AI.RetryInterval,
		Parallel:      config.AI.Parallel,
		MaxLogLength:  config.AI.MaxLogLength,
		Prompts:       prompts,
	}, logger), nil
}

func newEvaluator(ctx context.Context, config *Config, logger *zap.Logger) (*evaluation.Evaluator, error) {
	pipeline, store, err := newPipeline(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	engine, err := newEngine(config, store, logger)
	if err != nil {
		return nil, err
	}

	reviewer, err := newFeedback(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	return evaluation.New(pipeline, engine, reviewer, config.Scoring.ShortlistThreshold, logger)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
