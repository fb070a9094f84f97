// Package profile holds the instance configuration assembled from flags
// and environment variables.
package profile

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol). All providers
	// (openai, deepseek, siliconflow, ollama, ...) share this config.
	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string // optional, has a default per provider
	LLMModel    string
	LLMTimeout  int // request timeout in seconds (default: 60)

	// Embedding configuration.
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Recommendation configuration.
	// FallbackTotalDocs is used for rank normalization when the live
	// corpus count is unavailable.
	FallbackTotalDocs int

	Mode    string // "prod", "dev"
	Addr    string
	Port    int
	Driver  string // "postgres" or "sqlite"
	DSN     string
	Version string
}

// Provider default configurations for the LLM, applied when
// ANIMATCH_LLM_BASE_URL / ANIMATCH_LLM_MODEL are not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured. Without it
// the query interpreter always takes the keyword fallback path.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns an environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns an environment variable value as int or a default.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("ANIMATCH_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("ANIMATCH_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("ANIMATCH_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("ANIMATCH_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("ANIMATCH_LLM_TIMEOUT_SECONDS", 60)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.EmbeddingProvider = getEnvOrDefault("ANIMATCH_EMBEDDING_PROVIDER", "siliconflow")
	p.EmbeddingModel = getEnvOrDefault("ANIMATCH_EMBEDDING_MODEL", "BAAI/bge-m3")
	p.EmbeddingAPIKey = getEnvOrDefault("ANIMATCH_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("ANIMATCH_EMBEDDING_BASE_URL", "https://api.siliconflow.cn/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("ANIMATCH_EMBEDDING_DIMENSIONS", 1024)

	p.FallbackTotalDocs = getEnvOrDefaultInt("ANIMATCH_FALLBACK_TOTAL_DOCS", 24012)
}

// Validate checks that the profile can start a server.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}

	switch p.Driver {
	case "postgres", "sqlite":
	default:
		return errors.Errorf("unsupported database driver: %s", p.Driver)
	}

	if p.DSN == "" {
		return errors.New("dsn is required")
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port: %d", p.Port)
	}

	if p.FallbackTotalDocs <= 0 {
		return errors.New("fallback total docs must be positive")
	}

	return nil
}

// String returns a printable summary without secrets.
func (p *Profile) String() string {
	return fmt.Sprintf("mode=%s addr=%s port=%d driver=%s llm=%s/%s embedding=%s/%s",
		p.Mode, p.Addr, p.Port, p.Driver, p.LLMProvider, p.LLMModel, p.EmbeddingProvider, p.EmbeddingModel)
}
