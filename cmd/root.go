package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/embedding"
	"github.com/spigell/cv-align/internal/evaluation"
	"github.com/spigell/cv-align/internal/feedback"
	"github.com/spigell/cv-align/internal/logger"
	"github.com/spigell/cv-align/internal/scoring"
)

const (
	app = "cv-align"
)

type Config struct {
	Store     *StoreConfig     `mapstructure:"store"`
	Chunking  *ChunkingConfig  `mapstructure:"chunking"`
	Scoring   *ScoringConfig   `mapstructure:"scoring"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	AI        *AIConfig        `mapstructure:"ai"`
}

type StoreConfig struct {
	Root string `mapstructure:"root"`
}

type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

type ScoringConfig struct {
	Strategy           string  `mapstructure:"strategy"`
	TopK               int     `mapstructure:"top-k"`
	BandLow            float64 `mapstructure:"band-low"`
	BandWidth          float64 `mapstructure:"band-width"`
	ShortlistThreshold float64 `mapstructure:"shortlist-threshold"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
}

type AIConfig struct {
	Provider          string        `mapstructure:"provider"`
	MaxRetries        int           `mapstructure:"max-retries"`
	RetryInterval     time.Duration `mapstructure:"retry-interval"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	Parallel          bool          `mapstructure:"parallel"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
	PromptsFile       string        `mapstructure:"prompts-file"`
	Temperature       float32       `mapstructure:"temperature"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
	OpenAI            *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type OpenAIConfig struct {
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-align ranks resumes against job descriptions and explains the match",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.openai.api-key-file": "OPENAI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-align.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("store", "", "vector store root directory (overrides store.root)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("store.root", rootCmd.PersistentFlags().Lookup("store"))
}

func setDefaults() {
	viper.SetDefault("store.root", "vector_store")

	viper.SetDefault("chunking.size", embedding.DefaultChunkSize)
	viper.SetDefault("chunking.overlap", embedding.DefaultChunkOverlap)

	viper.SetDefault("scoring.strategy", string(scoring.StrategyTopKStretched))
	viper.SetDefault("scoring.top-k", scoring.DefaultTopK)
	viper.SetDefault("scoring.band-low", scoring.DefaultBandLow)
	viper.SetDefault("scoring.band-width", scoring.DefaultBandWidth)
	viper.SetDefault("scoring.shortlist-threshold", evaluation.DefaultShortlistThreshold)

	viper.SetDefault("embedding.provider", "gemini")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.max-retries", feedback.DefaultMaxRetries)
	viper.SetDefault("ai.retry-interval", feedback.DefaultRetryInterval)
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("ai.parallel", true)
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.temperature", 0.2)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.openai.model", "llama3")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough to run without a config file, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil || config.Store == nil || config.Chunking == nil || config.Scoring == nil ||
		config.Embedding == nil || config.AI == nil || config.AI.Gemini == nil || config.AI.OpenAI == nil {
		return nil, fmt.Errorf("incomplete configuration")
	}

	return config, nil
}

// setup builds the logger and the configuration every command needs.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting", zap.String("app", app), zap.String("version", version), zap.String("store", config.Store.Root))

	return logger, config
}
