// Package ai provides the embedding and language-model services used by
// the recommendation pipeline, backed by OpenAI-compatible providers.
package ai

import (
	"github.com/ayaka-io/animatch/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Enabled   bool
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// LLMConfig represents language-model configuration.
type LLMConfig struct {
	Provider    string // openai, deepseek, siliconflow, ollama, ...
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.1, query interpretation wants determinism
	Timeout     int     // request timeout in seconds (default: 60)
}

// NewConfigFromProfile creates AI config from the instance profile.
// Enabled only reflects LLM availability; the embedding service is
// always configured since both the server and the ingestion job need it.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	cfg.Embedding = EmbeddingConfig{
		Provider:   p.EmbeddingProvider,
		Model:      p.EmbeddingModel,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
		Dimensions: p.EmbeddingDimensions,
	}

	cfg.LLM = LLMConfig{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   1024,
		Temperature: 0.1,
		Timeout:     p.LLMTimeout,
	}

	return cfg
}
